package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/store"
)

// MemoryCardStore is an in-memory store.CardStore with the same
// transition semantics as the Postgres implementation: monotonic IDs,
// creation-order pending listing, success-wins status updates.
//
// ForcedErr, when set, is returned by every operation; tests use it to
// simulate storage failures.
type MemoryCardStore struct {
	mu        sync.Mutex
	cards     map[int64]*domain.Card
	nextID    int64
	ForcedErr error
}

// NewMemoryCardStore creates an empty in-memory card store.
func NewMemoryCardStore() *MemoryCardStore {
	return &MemoryCardStore{
		cards:  make(map[int64]*domain.Card),
		nextID: 1,
	}
}

// Ensure MemoryCardStore implements store.CardStore interface
var _ store.CardStore = (*MemoryCardStore)(nil)

// Enqueue implements store.CardStore.Enqueue.
func (s *MemoryCardStore) Enqueue(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	stored := *card
	stored.ID = s.nextID
	stored.Status = domain.StatusPending
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.nextID++
	s.cards[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetByID implements store.CardStore.GetByID.
func (s *MemoryCardStore) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	card, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

// ListPending implements store.CardStore.ListPending.
func (s *MemoryCardStore) ListPending(ctx context.Context) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	var pending []*domain.Card
	for _, card := range s.cards {
		if card.Status == domain.StatusPending {
			copied := *card
			pending = append(pending, &copied)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	return pending, nil
}

// MarkSynced implements store.CardStore.MarkSynced.
func (s *MemoryCardStore) MarkSynced(ctx context.Context, id int64) (domain.AckStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return "", s.ForcedErr
	}

	card, ok := s.cards[id]
	if !ok {
		return "", store.ErrCardNotFound
	}
	if card.Status == domain.StatusSynced {
		return domain.AckAlreadySynced, nil
	}

	now := time.Now().UTC()
	card.Status = domain.StatusSynced
	card.SyncedAt = &now
	card.FailReason = ""
	card.Attempts++
	return domain.AckSynced, nil
}

// MarkFailed implements store.CardStore.MarkFailed.
func (s *MemoryCardStore) MarkFailed(ctx context.Context, id int64, reason string) (domain.AckStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return "", s.ForcedErr
	}

	card, ok := s.cards[id]
	if !ok {
		return "", store.ErrCardNotFound
	}

	if card.Status == domain.StatusSynced {
		// Success wins over a stale failure report.
		return domain.AckAlreadySynced, nil
	}

	card.Status = domain.StatusFailed
	card.FailReason = reason
	card.Attempts++
	return domain.AckFailed, nil
}

// Requeue implements store.CardStore.Requeue.
func (s *MemoryCardStore) Requeue(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return s.ForcedErr
	}

	card, ok := s.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if card.Status != domain.StatusFailed {
		return store.ErrNotRequeueable
	}

	card.Status = domain.StatusPending
	card.FailReason = ""
	return nil
}

// WithTx implements store.CardStore.WithTx. The in-memory store has no
// transactions, so it returns itself.
func (s *MemoryCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return s
}
