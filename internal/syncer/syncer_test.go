package syncer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankiqueue/ankiqueue/internal/api"
	"github.com/ankiqueue/ankiqueue/internal/api/middleware"
	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/delivery"
	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/mocks"
	"github.com/ankiqueue/ankiqueue/internal/service"
)

const testSecret = "cycle-secret"

// stubDeliverer scripts delivery outcomes per card ID and counts
// attempts.
type stubDeliverer struct {
	reachable bool
	errs      map[int64]error
	attempts  map[int64]int
}

func newStubDeliverer() *stubDeliverer {
	return &stubDeliverer{
		reachable: true,
		errs:      make(map[int64]error),
		attempts:  make(map[int64]int),
	}
}

func (d *stubDeliverer) AddEntry(ctx context.Context, card *domain.Card) error {
	d.attempts[card.ID]++
	return d.errs[card.ID]
}

func (d *stubDeliverer) IsReachable(ctx context.Context) bool {
	return d.reachable
}

// harness wires a real server stack, a stub deliverer and a syncer
// with durable state in a temp directory.
type harness struct {
	srv        *httptest.Server
	svc        service.CardService
	deliverer  *stubDeliverer
	syncer     *Syncer
	state      *StateStore
	failReport *atomic.Bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	memStore := mocks.NewMemoryCardStore()
	svc, err := service.NewCardService(service.NewCardRepositoryAdapter(memStore, nil), nil)
	require.NoError(t, err)

	handler := api.NewCardHandler(svc, nil)
	auth := middleware.NewAuthMiddleware(config.AuthConfig{Secret: testSecret})

	failReport := &atomic.Bool{}

	r := chi.NewRouter()
	r.Get("/health", api.Health)
	r.Route("/api/cards", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/pending", handler.ListPending)
		r.Post("/report", func(w http.ResponseWriter, req *http.Request) {
			if failReport.Load() {
				// Drop the connection mid-request to simulate a
				// network failure during the report call.
				panic(http.ErrAbortHandler)
			}
			handler.Report(w, req)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	state, err := OpenState(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	deliverer := newStubDeliverer()
	s, err := New(config.SyncConfig{
		ServerURL:       srv.URL,
		PortAttempts:    1,
		IntervalSeconds: 1,
		TimeoutSeconds:  2,
		StatePath:       "unused",
	}, testSecret, deliverer, state, nil)
	require.NoError(t, err)

	return &harness{
		srv:        srv,
		svc:        svc,
		deliverer:  deliverer,
		syncer:     s,
		state:      state,
		failReport: failReport,
	}
}

func TestCycleDeliversAndSyncs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "hola amigo")
	require.NoError(t, err)

	require.NoError(t, h.syncer.RunOnce(ctx))

	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
	assert.Equal(t, 1, got.Attempts)

	// A second fetch no longer includes the card.
	pending, err := h.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Nothing left held.
	held, err := h.state.HeldOutcomes(ctx)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestCycleDuplicateCountsAsSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	h.deliverer.errs[card.ID] = delivery.ErrDuplicate

	require.NoError(t, h.syncer.RunOnce(ctx))

	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
}

func TestCycleDeliveryFailureMarksFailed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	h.deliverer.errs[card.ID] = errors.New("deck was not found: Spanish")

	require.NoError(t, h.syncer.RunOnce(ctx))

	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.FailReason, "deck was not found")

	// A failed card is not retried on the next cycle unless requeued.
	require.NoError(t, h.syncer.RunOnce(ctx))
	assert.Equal(t, 1, h.deliverer.attempts[card.ID])
}

func TestTransportErrorLeavesCardPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	h.deliverer.errs[card.ID] = context.DeadlineExceeded

	require.NoError(t, h.syncer.RunOnce(ctx))

	// The request never completed, so no outcome was reported and the
	// card stays pending rather than being parked as failed.
	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, got.FailReason)

	held, err := h.state.HeldOutcomes(ctx)
	require.NoError(t, err)
	assert.Empty(t, held)

	// Once the destination answers again the card syncs normally.
	delete(h.deliverer.errs, card.ID)
	require.NoError(t, h.syncer.RunOnce(ctx))
	got, err = h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
}

func TestTransportErrorMidBatchStopsDelivery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	second, err := h.svc.Enqueue(ctx, "adios", "goodbye", "")
	require.NoError(t, err)
	h.deliverer.errs[second.ID] = delivery.ErrUnreachable

	require.NoError(t, h.syncer.RunOnce(ctx))

	// The first card's outcome still went out; the second and anything
	// after it waits for the next cycle.
	got, err := h.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)

	got, err = h.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestCycleSkipsWhenDestinationDown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)
	h.deliverer.reachable = false

	require.NoError(t, h.syncer.RunOnce(ctx))

	// No attempt was made and the card stayed pending for the next
	// cycle.
	assert.Zero(t, h.deliverer.attempts[card.ID])
	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	h.deliverer.reachable = true
	require.NoError(t, h.syncer.RunOnce(ctx))
	got, err = h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
}

func TestHeldReportRetriedBeforeNextFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	card, err := h.svc.Enqueue(ctx, "hola", "hello", "")
	require.NoError(t, err)

	// Delivery succeeds but the report call dies on the wire. The
	// cycle itself does not error; the outcome is held.
	h.failReport.Store(true)
	require.NoError(t, h.syncer.RunOnce(ctx))

	held, err := h.state.HeldOutcomes(ctx)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, domain.OutcomeSynced, held[0].Kind)

	// Server still believes the card is pending.
	got, err := h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	// Next cycle: held report goes out first and the card is not
	// delivered a second time.
	h.failReport.Store(false)
	require.NoError(t, h.syncer.RunOnce(ctx))

	got, err = h.svc.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, got.Status)
	assert.Equal(t, 1, got.Attempts, "server recorded the sync exactly once")
	assert.Equal(t, 1, h.deliverer.attempts[card.ID], "card was not re-delivered")

	held, err = h.state.HeldOutcomes(ctx)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestNoEndpointIsRecoverable(t *testing.T) {
	h := newHarness(t)
	h.srv.Close()

	err := h.syncer.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestEndpointReResolvedAfterRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.syncer.RunOnce(ctx))

	// The resolved endpoint was recorded for future runs.
	last, err := h.state.LastEndpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.srv.URL, last)
}
