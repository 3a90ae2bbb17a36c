// Package confirm is the confirmation state machine: it consumes the user's
// confirm/cancel/edit signals, owns the only write/destroy path of the
// pending batch store, and drives commits to the ledger gateway. The state
// (Idle, Staged, Committing) is derived from the store: a present batch
// means Staged, an in-flight commit means Committing, anything else Idle.
package confirm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/ledger"
	"github.com/divantrade/masareef/internal/staging"
)

const (
	expiredReply = "لا توجد معاملات بانتظار التأكيد، أو انتهت مهلة التأكيد. أعد إرسال الرسالة من فضلك."
	cancelReply  = "تم الإلغاء. لم يتم تسجيل أي معاملة."
	editReply    = "حسناً، أعد إرسال الرسالة بالصيغة المعدلة وسأحللها من جديد."

	// defaultLedgerTimeout bounds each individual ledger call. A hung
	// append must not wedge the batch, the conversation, or the poll loop.
	defaultLedgerTimeout = 30 * time.Second
)

// StateMachine applies confirm/cancel/edit transitions for all
// conversations. A per-conversation in-flight guard prevents a second
// confirm from double-committing while the first commit is still running.
type StateMachine struct {
	store         staging.Store
	gateway       ledger.Gateway
	log           zerolog.Logger
	ledgerTimeout time.Duration

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// Option configures the state machine.
type Option func(*StateMachine)

// WithLedgerTimeout overrides the per-call ledger deadline.
func WithLedgerTimeout(d time.Duration) Option {
	return func(m *StateMachine) {
		m.ledgerTimeout = d
	}
}

func NewStateMachine(store staging.Store, gateway ledger.Gateway, log zerolog.Logger, opts ...Option) *StateMachine {
	m := &StateMachine{
		store:         store,
		gateway:       gateway,
		log:           log,
		ledgerTimeout: defaultLedgerTimeout,
		inflight:      make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnConfirm commits the staged batch and clears the store. An absent,
// expired or already-committing batch all get the same expiry reply; that
// is the only way a confirm can be a no-op.
func (m *StateMachine) OnConfirm(ctx context.Context, conversationID int64) (string, []domain.CommitResult) {
	if !m.acquire(conversationID) {
		return expiredReply, nil
	}
	defer m.release(conversationID)

	batch, err := m.store.Peek(ctx, conversationID)
	if err != nil {
		m.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("pending batch read failed")
		return expiredReply, nil
	}
	if batch == nil {
		return expiredReply, nil
	}

	results := m.Commit(ctx, *batch)
	if err := m.store.Clear(ctx, conversationID); err != nil {
		m.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("pending batch clear failed")
	}
	return m.Summary(ctx, results), results
}

// OnCancel discards the staged batch without any ledger write.
func (m *StateMachine) OnCancel(ctx context.Context, conversationID int64) string {
	if err := m.store.Clear(ctx, conversationID); err != nil {
		m.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("pending batch clear failed")
	}
	return cancelReply
}

// OnEdit discards the staged batch and asks the user to resend.
func (m *StateMachine) OnEdit(ctx context.Context, conversationID int64) string {
	if err := m.store.Clear(ctx, conversationID); err != nil {
		m.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("pending batch clear failed")
	}
	return editReply
}

// Commit writes every candidate individually, in extraction order. A failed
// candidate is reported and never blocks its siblings; commit, once begun,
// runs to completion for the whole batch.
func (m *StateMachine) Commit(ctx context.Context, batch domain.PendingBatch) []domain.CommitResult {
	results := make([]domain.CommitResult, 0, len(batch.Candidates))
	for _, c := range batch.Candidates {
		appended, err := m.appendBounded(ctx, c, batch.SubmittedBy)
		if err != nil {
			m.log.Error().Err(err).
				Int64("conversation_id", batch.ConversationID).
				Str("kind", string(c.Kind)).
				Msg("ledger append failed")
			results = append(results, domain.CommitResult{
				Candidate:     c,
				Success:       false,
				FailureReason: err.Error(),
			})
			continue
		}
		results = append(results, domain.CommitResult{
			Candidate:   c,
			LedgerRowID: appended.ID,
			Success:     true,
		})
	}
	return results
}

// Summary renders the commit outcome for the chat: counts, assigned row
// ids, per-candidate failure reasons, and the updated custodian balance for
// custody-class candidates.
func (m *StateMachine) Summary(ctx context.Context, results []domain.CommitResult) string {
	committed := 0
	for _, r := range results {
		if r.Success {
			committed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "تم تسجيل %d من %d معاملة.\n", committed, len(results))
	for _, r := range results {
		c := r.Candidate
		if r.Success {
			fmt.Fprintf(&b, "✅ %s: %s %s", KindLabel(c.Kind), FormatAmount(c.Amount), c.Currency)
			if r.LedgerRowID != "" {
				fmt.Fprintf(&b, " (رقم %s)", shortID(r.LedgerRowID))
			}
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "⚠️ تعذر تسجيل %s %s %s: %s\n",
				KindLabel(c.Kind), FormatAmount(c.Amount), c.Currency, r.FailureReason)
		}
	}

	for _, code := range custodians(results) {
		balance, err := m.custodyBalanceBounded(ctx, code)
		if err != nil {
			m.log.Warn().Err(err).Str("custodian", code).Msg("custody balance query failed")
			continue
		}
		fmt.Fprintf(&b, "رصيد عهدة %s: %s\n", code, FormatAmount(balance))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *StateMachine) appendBounded(ctx context.Context, c domain.TransactionCandidate, sender domain.Sender) (ledger.AppendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ledgerTimeout)
	defer cancel()
	return m.gateway.Append(ctx, c, sender)
}

func (m *StateMachine) custodyBalanceBounded(ctx context.Context, custodianCode string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ledgerTimeout)
	defer cancel()
	return m.gateway.CustodyBalance(ctx, custodianCode)
}

func (m *StateMachine) acquire(conversationID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[conversationID]; busy {
		return false
	}
	m.inflight[conversationID] = struct{}{}
	return true
}

func (m *StateMachine) release(conversationID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, conversationID)
}

// custodians lists the distinct custodian codes of successfully committed
// custody candidates, in first-seen order.
func custodians(results []domain.CommitResult) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range results {
		c := r.Candidate
		if !r.Success || !c.Kind.IsCustody() || c.CounterpartyCode == "" {
			continue
		}
		if _, ok := seen[c.CounterpartyCode]; ok {
			continue
		}
		seen[c.CounterpartyCode] = struct{}{}
		out = append(out, c.CounterpartyCode)
	}
	return out
}

var kindLabels = map[domain.Kind]string{
	domain.KindIncome:            "دخل",
	domain.KindExpense:           "مصروف",
	domain.KindTransfer:          "تحويل",
	domain.KindCustodyDeposit:    "إيداع عهدة",
	domain.KindCustodyWithdrawal: "سحب عهدة",
	domain.KindGoldPurchase:      "شراء ذهب",
	domain.KindLoanTaken:         "قرض",
	domain.KindLoanRepaid:        "سداد قرض",
}

// KindLabel is the Arabic display name of a transaction kind.
func KindLabel(k domain.Kind) string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// FormatAmount renders an amount without trailing zeros.
func FormatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
