package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/store"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore opens the test database named by ANKIQUEUE_TEST_DATABASE_URL,
// applies migrations and truncates the cards table. Tests are skipped
// when the variable is unset so the suite stays runnable without a
// database.
func testStore(t *testing.T) *PostgresCardStore {
	t.Helper()

	url := os.Getenv("ANKIQUEUE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ANKIQUEUE_TEST_DATABASE_URL not set, skipping database tests")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "../../../migrations"))

	_, err = db.Exec("TRUNCATE cards RESTART IDENTITY")
	require.NoError(t, err)

	return NewPostgresCardStore(db, nil)
}

func mustEnqueue(t *testing.T, s *PostgresCardStore, front, back, sentence string) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(front, back, sentence)
	require.NoError(t, err)
	stored, err := s.Enqueue(context.Background(), card)
	require.NoError(t, err)
	return stored
}

func TestPostgresEnqueueAndListPending(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := mustEnqueue(t, s, "hola", "hello", "hola amigo")
	second := mustEnqueue(t, s, "adios", "goodbye", "")

	assert.Greater(t, second.ID, first.ID, "ids are monotonic")

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "hola", pending[0].Front)
	assert.Equal(t, "hola amigo", pending[0].Sentence)
	assert.Equal(t, domain.StatusPending, pending[0].Status)
}

func TestPostgresMarkSyncedIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	card := mustEnqueue(t, s, "hola", "hello", "")

	ack, err := s.MarkSynced(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AckSynced, ack)

	ack, err = s.MarkSynced(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AckAlreadySynced, ack)

	got, err := s.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.SyncedAt)
}

func TestPostgresSuccessWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	card := mustEnqueue(t, s, "hola", "hello", "")

	_, err := s.MarkSynced(ctx, card.ID)
	require.NoError(t, err)

	ack, err := s.MarkFailed(ctx, card.ID, "stale failure")
	require.NoError(t, err)
	assert.Equal(t, domain.AckAlreadySynced, ack)

	got, err := s.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
}

func TestPostgresFailAndRequeue(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	card := mustEnqueue(t, s, "hola", "hello", "")

	ack, err := s.MarkFailed(ctx, card.ID, "deck missing")
	require.NoError(t, err)
	assert.Equal(t, domain.AckFailed, ack)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.Requeue(ctx, card.ID))

	got, err := s.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, got.FailReason)
	assert.Equal(t, 1, got.Attempts, "attempt history survives requeue")
}

func TestPostgresUnknownID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.GetByID(ctx, 4242)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	_, err = s.MarkSynced(ctx, 4242)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	err = s.Requeue(ctx, 4242)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}
