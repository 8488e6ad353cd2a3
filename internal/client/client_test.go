package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankiqueue/ankiqueue/internal/api"
	"github.com/ankiqueue/ankiqueue/internal/api/middleware"
	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/mocks"
	"github.com/ankiqueue/ankiqueue/internal/service"
)

const testSecret = "sync-secret"

// newTestServer runs the real handler stack over the in-memory store
// so the client is tested against the exact wire format it will see
// in production.
func newTestServer(t *testing.T) (*httptest.Server, service.CardService) {
	t.Helper()

	memStore := mocks.NewMemoryCardStore()
	svc, err := service.NewCardService(service.NewCardRepositoryAdapter(memStore, nil), nil)
	require.NoError(t, err)

	handler := api.NewCardHandler(svc, nil)
	auth := middleware.NewAuthMiddleware(config.AuthConfig{Secret: testSecret})

	r := chi.NewRouter()
	r.Get("/health", api.Health)
	r.Route("/api/cards", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/", handler.Enqueue)
		r.Get("/pending", handler.ListPending)
		r.Post("/report", handler.Report)
		r.Post("/{id}/requeue", handler.Requeue)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestPingAndPendingRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t)
	c := New(srv.URL, testSecret, 2*time.Second, nil)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	cards, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	_, err = svc.Enqueue(ctx, "hola", "hello", "hola amigo")
	require.NoError(t, err)

	cards, err = c.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "hola", cards[0].Front)
	assert.Equal(t, "hello", cards[0].Back)
	assert.Equal(t, domain.StatusPending, cards[0].Status)
}

func TestReportRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t)
	c := New(srv.URL, testSecret, 2*time.Second, nil)
	ctx := context.Background()

	card, err := svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)

	acks, err := c.Report(ctx, []domain.Outcome{
		{CardID: card.ID, Kind: domain.OutcomeSynced},
		{CardID: 99999, Kind: domain.OutcomeFailed, Reason: "gone"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AckSynced, acks[card.ID])
	assert.Equal(t, domain.AckNotFound, acks[99999])
}

func TestWrongSecretIsUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL, "wrong", 2*time.Second, nil)

	_, err := c.Pending(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The health probe is unauthenticated and still works.
	assert.NoError(t, c.Ping(context.Background()))
}

func TestEnqueueAndRequeueRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t)
	c := New(srv.URL, testSecret, 2*time.Second, nil)
	ctx := context.Background()

	card, err := c.Enqueue(ctx, "adios", "goodbye", "")
	require.NoError(t, err)
	assert.Positive(t, card.ID)

	_, err = svc.ApplyReport(ctx, []domain.Outcome{
		{CardID: card.ID, Kind: domain.OutcomeFailed, Reason: "boom"},
	})
	require.NoError(t, err)

	got, err := c.Requeue(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
}

func TestUnreachableServer(t *testing.T) {
	c := New("http://127.0.0.1:1", testSecret, 500*time.Millisecond, nil)

	assert.Error(t, c.Ping(context.Background()))
	_, err := c.Pending(context.Background())
	assert.Error(t, err)
}
