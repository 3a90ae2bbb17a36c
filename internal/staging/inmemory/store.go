// Package inmemory is the in-process implementation of the pending batch
// store. Batches live in a mutex'd map partitioned by conversation; data is
// lost on restart, which matches the short confirmation window.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/divantrade/masareef/internal/domain"
	"github.com/divantrade/masareef/internal/staging"
)

// Store holds staged batches with TTL expiry. The clock is injectable so
// expiry is testable without wall-clock sleeps.
type Store struct {
	mu      sync.Mutex
	batches map[int64]domain.PendingBatch
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store with the given TTL; ttl <= 0 uses the default.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = staging.DefaultTTL
	}
	s := &Store{
		batches: make(map[int64]domain.PendingBatch),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage implements staging.Store. Last write wins: a new batch entirely
// replaces any prior one for the conversation.
func (s *Store) Stage(ctx context.Context, conversationID int64, batch domain.PendingBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	batch.ConversationID = conversationID
	batch.StagedAt = now
	batch.ExpiresAt = now.Add(s.ttl)

	// Copy the candidate slice so later caller mutations cannot reach the
	// staged data: confirmation must commit exactly what was staged.
	batch.Candidates = append([]domain.TransactionCandidate(nil), batch.Candidates...)
	s.batches[conversationID] = batch
	return nil
}

// Peek implements staging.Store, enforcing expiry lazily on read.
func (s *Store) Peek(ctx context.Context, conversationID int64) (*domain.PendingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[conversationID]
	if !ok {
		return nil, nil
	}
	if s.now().After(batch.ExpiresAt) {
		delete(s.batches, conversationID)
		return nil, nil
	}

	out := batch
	out.Candidates = append([]domain.TransactionCandidate(nil), batch.Candidates...)
	return &out, nil
}

// Clear implements staging.Store.
func (s *Store) Clear(ctx context.Context, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, conversationID)
	return nil
}

var _ staging.Store = (*Store)(nil)
