package store

import (
	"context"
	"database/sql"

	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// CardStore defines the interface for card queue persistence.
//
// The queue is an append/mutate log: cards are never deleted, so a
// re-fetch of the pending set after a crash is always safe. Status
// mutations observe success-wins: once a card is Synced it never leaves
// Synced, no matter what reports arrive later.
type CardStore interface {
	// Enqueue appends a new Pending card and returns it with its
	// store-assigned ID. IDs are unique and monotonically increasing
	// for the lifetime of the store.
	Enqueue(ctx context.Context, card *domain.Card) (*domain.Card, error)

	// GetByID retrieves a card by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Card, error)

	// ListPending returns all Pending cards, oldest first by creation
	// time. Read-only and safe to call repeatedly.
	ListPending(ctx context.Context) ([]*domain.Card, error)

	// MarkSynced transitions a card to Synced and increments its
	// attempt count. Marking an already-Synced card is a no-op success
	// reported as AckAlreadySynced: the client retries reports after
	// network failures and must be able to converge.
	// Returns ErrCardNotFound if the card does not exist.
	MarkSynced(ctx context.Context, id int64) (domain.AckStatus, error)

	// MarkFailed transitions a Pending card to Failed with the given
	// reason and increments its attempt count. A Synced card is left
	// untouched (AckAlreadySynced): a stale failure report must never
	// overwrite a recorded success.
	// Returns ErrCardNotFound if the card does not exist.
	MarkFailed(ctx context.Context, id int64, reason string) (domain.AckStatus, error)

	// Requeue re-arms a Failed card as Pending, clearing its failure
	// reason. Synced cards are not requeued. Returns ErrCardNotFound if
	// the card does not exist, ErrNotRequeueable if it is not Failed.
	Requeue(ctx context.Context, id int64) error

	// WithTx returns a store bound to the given transaction. In-memory
	// implementations return themselves.
	WithTx(tx *sql.Tx) CardStore
}
