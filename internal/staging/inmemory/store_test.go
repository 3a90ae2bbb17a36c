package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/divantrade/masareef/internal/domain"
)

func testBatch(amounts ...float64) domain.PendingBatch {
	var candidates []domain.TransactionCandidate
	for _, a := range amounts {
		candidates = append(candidates, domain.TransactionCandidate{
			Kind:     domain.KindExpense,
			Amount:   a,
			Currency: "EGP",
		})
	}
	return domain.PendingBatch{
		Candidates:  candidates,
		SubmittedBy: domain.Sender{ID: 7, Name: "محمود"},
	}
}

func TestStageAndPeekWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(300*time.Second, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := store.Stage(ctx, 42, testBatch(50, 100)); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	got, err := store.Peek(ctx, 42)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if got == nil {
		t.Fatal("Peek returned nil inside TTL window")
	}
	if len(got.Candidates) != 2 || got.Candidates[0].Amount != 50 || got.Candidates[1].Amount != 100 {
		t.Errorf("peeked batch differs from staged: %+v", got.Candidates)
	}
	if got.ConversationID != 42 || got.SubmittedBy.ID != 7 {
		t.Errorf("batch identity = %+v", got)
	}
	if want := now.Add(300 * time.Second); !got.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
}

func TestPeekAfterExpiryReturnsNil(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(300*time.Second, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := store.Stage(ctx, 42, testBatch(50)); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	now = now.Add(301 * time.Second)
	got, err := store.Peek(ctx, 42)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if got != nil {
		t.Errorf("Peek after TTL = %+v, want nil", got)
	}
}

func TestStageOverwritesPriorBatch(t *testing.T) {
	store := NewStore(300 * time.Second)
	ctx := context.Background()

	if err := store.Stage(ctx, 42, testBatch(50)); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := store.Stage(ctx, 42, testBatch(999)); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	got, _ := store.Peek(ctx, 42)
	if got == nil || len(got.Candidates) != 1 || got.Candidates[0].Amount != 999 {
		t.Errorf("expected the newer batch to replace the old, got %+v", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store := NewStore(300 * time.Second)
	ctx := context.Background()

	if err := store.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear on absent batch: %v", err)
	}

	if err := store.Stage(ctx, 42, testBatch(50)); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := store.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx, 42); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	if got, _ := store.Peek(ctx, 42); got != nil {
		t.Errorf("Peek after Clear = %+v, want nil", got)
	}
}

func TestConversationsArePartitioned(t *testing.T) {
	store := NewStore(300 * time.Second)
	ctx := context.Background()

	if err := store.Stage(ctx, 1, testBatch(10)); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := store.Stage(ctx, 2, testBatch(20)); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if got, _ := store.Peek(ctx, 2); got == nil || got.Candidates[0].Amount != 20 {
		t.Errorf("conversation 2 batch affected by conversation 1 clear: %+v", got)
	}
}
