// Package staging defines the pending batch store: the time-boxed area
// holding one assembled batch of candidates per conversation until the user
// confirms, cancels or edits. The store exclusively owns batch lifetime.
package staging

import (
	"context"
	"time"

	"github.com/divantrade/masareef/internal/domain"
)

// DefaultTTL is how long a staged batch stays confirmable.
const DefaultTTL = 300 * time.Second

// Store stages at most one PendingBatch per conversation.
type Store interface {
	// Stage overwrites any existing batch for the conversation and stamps
	// StagedAt/ExpiresAt. An error means the backing store rejected the
	// write; the caller must fall back to committing directly.
	Stage(ctx context.Context, conversationID int64, batch domain.PendingBatch) error

	// Peek returns the staged batch, or nil when absent or expired.
	Peek(ctx context.Context, conversationID int64) (*domain.PendingBatch, error)

	// Clear removes the staged batch. Idempotent; clearing an absent batch
	// is a no-op.
	Clear(ctx context.Context, conversationID int64) error
}
