package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/store"
)

// PostgresCardStore implements the store.CardStore interface using a
// PostgreSQL database as the storage backend. Status transitions are
// guarded in SQL so concurrent reports cannot interleave into an
// inconsistent state: the WHERE clauses on the UPDATE statements are
// the per-card serialization point.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, the default logger is used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx returns a store that runs its statements on the given
// transaction instead of the pool.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Enqueue implements store.CardStore.Enqueue.
func (s *PostgresCardStore) Enqueue(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cards (front, back, sentence)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, card.Front, card.Back, card.Sentence)

	stored := *card
	stored.Status = domain.StatusPending
	if err := row.Scan(&stored.ID, &stored.CreatedAt); err != nil {
		return nil, MapError(err)
	}

	s.logger.Debug("card enqueued", slog.Int64("card_id", stored.ID))
	return &stored, nil
}

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, front, back, sentence, status, fail_reason, attempts, created_at, synced_at
		FROM cards
		WHERE id = $1
	`, id)

	return scanCard(row)
}

// ListPending implements store.CardStore.ListPending. Cards come back
// oldest first; the id tiebreak keeps the order deterministic for cards
// created in the same instant.
func (s *PostgresCardStore) ListPending(ctx context.Context) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, front, back, sentence, status, fail_reason, attempts, created_at, synced_at
		FROM cards
		WHERE status = 'pending'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// MarkSynced implements store.CardStore.MarkSynced. The status guard in
// the UPDATE makes the operation idempotent: a second report for a card
// that is already Synced changes nothing and is acknowledged as such.
func (s *PostgresCardStore) MarkSynced(ctx context.Context, id int64) (domain.AckStatus, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET status = 'synced', synced_at = $2, attempts = attempts + 1, fail_reason = ''
		WHERE id = $1 AND status <> 'synced'
	`, id, time.Now().UTC())
	if err != nil {
		return "", MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", MapError(err)
	}
	if affected > 0 {
		return domain.AckSynced, nil
	}

	// Nothing changed: either the card is already Synced or it does not
	// exist. Distinguish the two for the per-id acknowledgment.
	status, err := s.currentStatus(ctx, id)
	if err != nil {
		return "", err
	}
	if status == domain.StatusSynced {
		return domain.AckAlreadySynced, nil
	}

	// The guard only skips synced rows, so any other status means the
	// row did not exist when the UPDATE ran.
	return "", store.ErrCardNotFound
}

// MarkFailed implements store.CardStore.MarkFailed. Success always
// wins: a stale failure report for a card that was already marked
// Synced leaves it Synced and is acknowledged as already_synced.
func (s *PostgresCardStore) MarkFailed(ctx context.Context, id int64, reason string) (domain.AckStatus, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET status = 'failed', fail_reason = $2, attempts = attempts + 1
		WHERE id = $1 AND status <> 'synced'
	`, id, reason)
	if err != nil {
		return "", MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", MapError(err)
	}
	if affected > 0 {
		return domain.AckFailed, nil
	}

	status, err := s.currentStatus(ctx, id)
	if err != nil {
		return "", err
	}
	if status == domain.StatusSynced {
		return domain.AckAlreadySynced, nil
	}
	return "", store.ErrCardNotFound
}

// Requeue implements store.CardStore.Requeue.
func (s *PostgresCardStore) Requeue(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET status = 'pending', fail_reason = ''
		WHERE id = $1 AND status = 'failed'
	`, id)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected > 0 {
		s.logger.Info("card requeued", slog.Int64("card_id", id))
		return nil
	}

	if _, err := s.currentStatus(ctx, id); err != nil {
		return err
	}
	return store.ErrNotRequeueable
}

func (s *PostgresCardStore) currentStatus(ctx context.Context, id int64) (domain.CardStatus, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM cards WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrCardNotFound
		}
		return "", MapError(err)
	}

	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", MapError(err)
	}
	return status, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card     domain.Card
		rawState string
		syncedAt sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.Front,
		&card.Back,
		&card.Sentence,
		&rawState,
		&card.FailReason,
		&card.Attempts,
		&card.CreatedAt,
		&syncedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}

	status, err := domain.ParseStatus(rawState)
	if err != nil {
		return nil, MapError(err)
	}
	card.Status = status

	if syncedAt.Valid {
		t := syncedAt.Time
		card.SyncedAt = &t
	}

	return &card, nil
}
