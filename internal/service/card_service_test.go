package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/mocks"
	"github.com/ankiqueue/ankiqueue/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService builds a CardService over the in-memory store.
func newTestService(t *testing.T) (CardService, *mocks.MemoryCardStore) {
	t.Helper()

	memStore := mocks.NewMemoryCardStore()
	svc, err := NewCardService(NewCardRepositoryAdapter(memStore, nil), nil)
	require.NoError(t, err)
	return svc, memStore
}

func TestEnqueueValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "", "hello", "")
	assert.ErrorIs(t, err, domain.ErrCardFrontEmpty)

	_, err = svc.Enqueue(ctx, "hola", "", "")
	assert.ErrorIs(t, err, domain.ErrCardBackEmpty)

	card, err := svc.Enqueue(ctx, "hola", "hello", "hola amigo")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, card.Status)
	assert.Positive(t, card.ID)
}

func TestEnqueueBatchAllOrNothing(t *testing.T) {
	svc, memStore := newTestService(t)
	ctx := context.Background()

	good, err := domain.NewCard("uno", "one", "")
	require.NoError(t, err)
	bad := &domain.Card{Front: "dos"} // missing back

	_, err = svc.EnqueueBatch(ctx, []*domain.Card{good, bad})
	assert.ErrorIs(t, err, domain.ErrCardBackEmpty)

	// Validation failed before anything was stored.
	pending, err := memStore.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	alsoGood, err := domain.NewCard("dos", "two", "")
	require.NoError(t, err)
	stored, err := svc.EnqueueBatch(ctx, []*domain.Card{good, alsoGood})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Greater(t, stored[1].ID, stored[0].ID)
}

func TestApplyReportPerIDIndependence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, "adios", "goodbye", "")
	require.NoError(t, err)

	acks, err := svc.ApplyReport(ctx, []domain.Outcome{
		{CardID: first.ID, Kind: domain.OutcomeSynced},
		{CardID: 99999, Kind: domain.OutcomeSynced},
		{CardID: second.ID, Kind: domain.OutcomeFailed, Reason: "deck missing"},
	})
	require.NoError(t, err)
	require.Len(t, acks, 3)

	assert.Equal(t, domain.AckSynced, acks[0].Status)
	assert.Equal(t, domain.AckNotFound, acks[1].Status)
	assert.Equal(t, domain.AckFailed, acks[2].Status)

	// The unknown ID in the middle did not block either neighbor.
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
	got, err = svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "deck missing", got.FailReason)
}

func TestApplyReportSuccessWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	card, err := svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)

	_, err = svc.ApplyReport(ctx, []domain.Outcome{
		{CardID: card.ID, Kind: domain.OutcomeSynced},
	})
	require.NoError(t, err)

	acks, err := svc.ApplyReport(ctx, []domain.Outcome{
		{CardID: card.ID, Kind: domain.OutcomeFailed, Reason: "stale"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AckAlreadySynced, acks[0].Status)

	got, err := svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
}

func TestApplyReportUnknownKind(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ApplyReport(context.Background(), []domain.Outcome{
		{CardID: 1, Kind: "exploded"},
	})
	assert.ErrorIs(t, err, ErrUnknownOutcomeKind)
}

func TestRequeuePassesThroughSentinels(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Requeue(ctx, 42)
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	card, err := svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)

	err = svc.Requeue(ctx, card.ID)
	assert.ErrorIs(t, err, store.ErrNotRequeueable)

	_, err = svc.ApplyReport(ctx, []domain.Outcome{
		{CardID: card.ID, Kind: domain.OutcomeFailed, Reason: "boom"},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Requeue(ctx, card.ID))

	got, err := svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	svc, memStore := newTestService(t)
	memStore.ForcedErr = store.ErrStorage

	_, err := svc.Pending(context.Background())
	require.Error(t, err)

	var svcErr *CardServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.ErrorIs(t, err, store.ErrStorage)
}
