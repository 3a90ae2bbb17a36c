package confirm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/ledger"
	"github.com/divantrade/masareef/internal/staging/inmemory"
)

// mockGateway records appends and can be made slow or failing per kind.
type mockGateway struct {
	mu       sync.Mutex
	appended []domain.TransactionCandidate
	failFor  domain.Kind
	block    chan struct{} // when set, Append waits until closed
	entered  chan struct{} // signaled once Append has started
	balances map[string]float64
}

func (g *mockGateway) Append(ctx context.Context, c domain.TransactionCandidate, sender domain.Sender) (ledger.AppendResult, error) {
	if g.entered != nil {
		select {
		case g.entered <- struct{}{}:
		default:
		}
	}
	if g.block != nil {
		<-g.block
	}
	if g.failFor != "" && c.Kind == g.failFor {
		return ledger.AppendResult{}, fmt.Errorf("insert rejected")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appended = append(g.appended, c)
	return ledger.AppendResult{ID: fmt.Sprintf("row-%d", len(g.appended))}, nil
}

func (g *mockGateway) CustodyBalance(ctx context.Context, custodianCode string) (float64, error) {
	return g.balances[custodianCode], nil
}

func stagedMachine(t *testing.T, gateway *mockGateway, candidates ...domain.TransactionCandidate) (*StateMachine, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore(300 * time.Second)
	machine := NewStateMachine(store, gateway, zerolog.Nop())
	batch := domain.PendingBatch{
		Candidates:  candidates,
		SubmittedBy: domain.Sender{ID: 7, Name: "محمود"},
	}
	if err := store.Stage(context.Background(), 42, batch); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	return machine, store
}

func TestOnConfirmCommitsInOrderAndClears(t *testing.T) {
	gateway := &mockGateway{}
	machine, store := stagedMachine(t, gateway,
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
		domain.TransactionCandidate{Kind: domain.KindIncome, Amount: 100, Currency: "EGP"},
	)
	ctx := context.Background()

	reply, results := machine.OnConfirm(ctx, 42)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if len(gateway.appended) != 2 {
		t.Fatalf("appended = %d, want 2", len(gateway.appended))
	}
	if gateway.appended[0].Amount != 50 || gateway.appended[1].Amount != 100 {
		t.Errorf("commit order broken: %+v", gateway.appended)
	}
	if !strings.Contains(reply, "تم تسجيل 2 من 2") {
		t.Errorf("reply = %q", reply)
	}

	if got, _ := store.Peek(ctx, 42); got != nil {
		t.Error("store not cleared after confirm")
	}

	// A second confirm finds nothing: exactly-once commit.
	reply2, results2 := machine.OnConfirm(ctx, 42)
	if results2 != nil || reply2 != expiredReply {
		t.Errorf("second confirm = %q, %v", reply2, results2)
	}
	if len(gateway.appended) != 2 {
		t.Errorf("double commit: %d rows", len(gateway.appended))
	}
}

func TestOnConfirmPartialFailure(t *testing.T) {
	gateway := &mockGateway{failFor: domain.KindIncome}
	machine, _ := stagedMachine(t, gateway,
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
		domain.TransactionCandidate{Kind: domain.KindIncome, Amount: 100, Currency: "EGP"},
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 30, Currency: "EGP"},
	)

	reply, results := machine.OnConfirm(context.Background(), 42)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Success != true || results[1].Success != false || results[2].Success != true {
		t.Errorf("per-candidate outcomes = %+v", results)
	}
	if results[1].FailureReason == "" {
		t.Error("failed candidate should carry a reason")
	}
	// The failure must not block siblings.
	if len(gateway.appended) != 2 {
		t.Errorf("appended = %d, want 2", len(gateway.appended))
	}
	if !strings.Contains(reply, "تم تسجيل 2 من 3") {
		t.Errorf("reply = %q", reply)
	}
}

func TestOnConfirmExpiredBatch(t *testing.T) {
	gateway := &mockGateway{}
	store := inmemory.NewStore(300 * time.Second)
	machine := NewStateMachine(store, gateway, zerolog.Nop())

	reply, results := machine.OnConfirm(context.Background(), 42)
	if reply != expiredReply || results != nil {
		t.Errorf("confirm without batch = %q, %v", reply, results)
	}
	if len(gateway.appended) != 0 {
		t.Error("nothing should be committed")
	}
}

func TestOnCancelClearsWithoutWrite(t *testing.T) {
	gateway := &mockGateway{}
	machine, store := stagedMachine(t, gateway,
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
	)
	ctx := context.Background()

	reply := machine.OnCancel(ctx, 42)
	if reply != cancelReply {
		t.Errorf("reply = %q", reply)
	}
	if len(gateway.appended) != 0 {
		t.Error("cancel must not write to the ledger")
	}
	if got, _ := store.Peek(ctx, 42); got != nil {
		t.Error("store not cleared after cancel")
	}
}

func TestOnEditClearsAndAsksForResend(t *testing.T) {
	gateway := &mockGateway{}
	machine, store := stagedMachine(t, gateway,
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
	)
	ctx := context.Background()

	if reply := machine.OnEdit(ctx, 42); reply != editReply {
		t.Errorf("reply = %q", reply)
	}
	if got, _ := store.Peek(ctx, 42); got != nil {
		t.Error("store not cleared after edit")
	}
	if len(gateway.appended) != 0 {
		t.Error("edit must not write to the ledger")
	}
}

func TestDoubleConfirmWhileCommitting(t *testing.T) {
	gateway := &mockGateway{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	machine, _ := stagedMachine(t, gateway,
		domain.TransactionCandidate{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
	)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		machine.OnConfirm(ctx, 42)
		close(done)
	}()

	<-gateway.entered // first confirm is now inside the ledger write

	reply, results := machine.OnConfirm(ctx, 42)
	if reply != expiredReply || results != nil {
		t.Errorf("concurrent confirm = %q, %v, expected in-flight guard rejection", reply, results)
	}

	close(gateway.block)
	<-done

	if len(gateway.appended) != 1 {
		t.Errorf("appended = %d, want exactly 1", len(gateway.appended))
	}
}

func TestSummaryReportsCustodyBalance(t *testing.T) {
	gateway := &mockGateway{balances: map[string]float64{"SARA": 5500}}
	received := 6000.0
	machine, _ := stagedMachine(t, gateway,
		domain.TransactionCandidate{
			Kind:             domain.KindCustodyDeposit,
			Amount:           500,
			Currency:         "SAR",
			AmountReceived:   &received,
			CurrencyReceived: "EGP",
			CounterpartyCode: "SARA",
		},
	)

	reply, _ := machine.OnConfirm(context.Background(), 42)
	if !strings.Contains(reply, "رصيد عهدة SARA: 5500") {
		t.Errorf("reply missing custody balance: %q", reply)
	}
}

// deadlineGateway records whether each ledger call arrived with a deadline.
type deadlineGateway struct {
	appendDeadlines  []bool
	balanceDeadlines []bool
}

func (g *deadlineGateway) Append(ctx context.Context, c domain.TransactionCandidate, sender domain.Sender) (ledger.AppendResult, error) {
	_, ok := ctx.Deadline()
	g.appendDeadlines = append(g.appendDeadlines, ok)
	return ledger.AppendResult{ID: fmt.Sprintf("row-%d", len(g.appendDeadlines))}, nil
}

func (g *deadlineGateway) CustodyBalance(ctx context.Context, custodianCode string) (float64, error) {
	_, ok := ctx.Deadline()
	g.balanceDeadlines = append(g.balanceDeadlines, ok)
	return 500, nil
}

func TestCommitBoundsEveryLedgerCall(t *testing.T) {
	gateway := &deadlineGateway{}
	store := inmemory.NewStore(300 * time.Second)
	machine := NewStateMachine(store, gateway, zerolog.Nop())

	batch := domain.PendingBatch{
		ConversationID: 42,
		Candidates: []domain.TransactionCandidate{
			{Kind: domain.KindCustodyDeposit, Amount: 500, Currency: "SAR", CounterpartyCode: "SARA"},
			{Kind: domain.KindExpense, Amount: 50, Currency: "EGP"},
		},
		SubmittedBy: domain.Sender{ID: 7, Name: "محمود"},
	}

	results := machine.Commit(context.Background(), batch)
	if len(gateway.appendDeadlines) != 2 {
		t.Fatalf("appends = %d, want 2", len(gateway.appendDeadlines))
	}
	for i, bounded := range gateway.appendDeadlines {
		if !bounded {
			t.Errorf("append %d ran without a deadline", i)
		}
	}

	machine.Summary(context.Background(), results)
	if len(gateway.balanceDeadlines) != 1 {
		t.Fatalf("balance queries = %d, want 1", len(gateway.balanceDeadlines))
	}
	if !gateway.balanceDeadlines[0] {
		t.Error("custody balance query ran without a deadline")
	}
}
