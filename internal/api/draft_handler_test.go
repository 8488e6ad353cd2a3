package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/mocks"
	"github.com/ankiqueue/ankiqueue/internal/service"
	"github.com/ankiqueue/ankiqueue/internal/translation"
)

type fixedTranslator struct {
	back string
	err  error
}

func (f *fixedTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	return f.back, f.err
}

func newDraftRouter(t *testing.T, tr translation.Translator) (*chi.Mux, service.CardService) {
	t.Helper()

	memStore := mocks.NewMemoryCardStore()
	svc, err := service.NewCardService(service.NewCardRepositoryAdapter(memStore, nil), nil)
	require.NoError(t, err)

	drafts, err := service.NewDraftService(svc, tr, nil)
	require.NoError(t, err)

	handler := NewDraftHandler(drafts, nil)

	r := chi.NewRouter()
	r.Post("/api/cards/draft", handler.CreateDraft)
	return r, svc
}

func TestCreateDraftEndpoint(t *testing.T) {
	router, svc := newDraftRouter(t, &fixedTranslator{back: "hello"})

	w := doJSON(t, router, http.MethodPost, "/api/cards/draft", DraftRequest{
		Front:    "hola",
		Sentence: "hola amigo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var card CardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, "hola", card.Front)
	assert.Equal(t, "hello", card.Back)
	assert.Equal(t, string(domain.StatusPending), card.Status)

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, card.ID, pending[0].ID)
}

func TestCreateDraftValidation(t *testing.T) {
	router, _ := newDraftRouter(t, &fixedTranslator{back: "hello"})

	w := doJSON(t, router, http.MethodPost, "/api/cards/draft", DraftRequest{Front: ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDraftTranslationFailure(t *testing.T) {
	router, svc := newDraftRouter(t, &fixedTranslator{err: translation.ErrTranslationFailed})

	w := doJSON(t, router, http.MethodPost, "/api/cards/draft", DraftRequest{Front: "hola"})
	require.Equal(t, http.StatusBadGateway, w.Code)

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "nothing is enqueued when translation fails")
}
