package service

import (
	"context"
	"database/sql"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/store"
)

// NewCardRepositoryAdapter allows a store.CardStore to be used where a
// CardRepository is expected. db may be nil for stores that have no
// underlying pool, in which case transactional operations are not
// available.
func NewCardRepositoryAdapter(cardStore store.CardStore, db *sql.DB) CardRepository {
	return &cardRepositoryAdapter{
		cardStore: cardStore,
		db:        db,
	}
}

type cardRepositoryAdapter struct {
	cardStore store.CardStore
	db        *sql.DB
}

func (a *cardRepositoryAdapter) Enqueue(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	return a.cardStore.Enqueue(ctx, card)
}

func (a *cardRepositoryAdapter) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	return a.cardStore.GetByID(ctx, id)
}

func (a *cardRepositoryAdapter) ListPending(ctx context.Context) ([]*domain.Card, error) {
	return a.cardStore.ListPending(ctx)
}

func (a *cardRepositoryAdapter) MarkSynced(ctx context.Context, id int64) (domain.AckStatus, error) {
	return a.cardStore.MarkSynced(ctx, id)
}

func (a *cardRepositoryAdapter) MarkFailed(ctx context.Context, id int64, reason string) (domain.AckStatus, error) {
	return a.cardStore.MarkFailed(ctx, id, reason)
}

func (a *cardRepositoryAdapter) Requeue(ctx context.Context, id int64) error {
	return a.cardStore.Requeue(ctx, id)
}

// WithTx implements CardRepository.WithTx.
func (a *cardRepositoryAdapter) WithTx(tx *sql.Tx) CardRepository {
	return &cardRepositoryAdapter{
		cardStore: a.cardStore.WithTx(tx),
		db:        a.db,
	}
}

// DB implements CardRepository.DB.
func (a *cardRepositoryAdapter) DB() *sql.DB {
	return a.db
}
