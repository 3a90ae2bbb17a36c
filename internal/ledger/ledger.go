// Package ledger is the gateway to the persistent ledger: append-only
// transaction rows and custody balance queries. The ledger itself is an
// external collaborator; this package only speaks its interface.
package ledger

import (
	"context"

	"github.com/divantrade/masareef/internal/domain"
)

// AppendResult reports one successful ledger write.
type AppendResult struct {
	ID      string
	Message string
}

// Gateway writes candidates and answers balance queries. Append failures
// must carry a human-readable reason; a failed candidate never blocks its
// siblings.
type Gateway interface {
	Append(ctx context.Context, c domain.TransactionCandidate, sender domain.Sender) (AppendResult, error)

	// CustodyBalance returns deposits minus withdrawals for the custodian,
	// in the custody account's currency.
	CustodyBalance(ctx context.Context, custodianCode string) (float64, error)
}
