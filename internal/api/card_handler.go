// Package api provides the HTTP handlers of the sync server.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ankiqueue/ankiqueue/internal/api/shared"
	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/platform/logger"
	"github.com/ankiqueue/ankiqueue/internal/service"
)

// CardHandler handles card queue HTTP requests.
type CardHandler struct {
	cardService service.CardService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService service.CardService, log *slog.Logger) *CardHandler {
	if cardService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cardService cannot be nil for CardHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &CardHandler{
		cardService: cardService,
		validator:   validator.New(),
		logger:      log.With(slog.String("component", "card_handler")),
	}
}

// Enqueue handles POST /api/cards.
func (h *CardHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req EnqueueRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cardService.Enqueue(r.Context(), req.Front, req.Back, req.Sentence)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("card enqueued via API", slog.Int64("card_id", card.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, toCardResponse(card))
}

// EnqueueBatch handles POST /api/cards/batch.
func (h *CardHandler) EnqueueBatch(w http.ResponseWriter, r *http.Request) {
	var req EnqueueBatchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cards := make([]*domain.Card, 0, len(req.Cards))
	for _, item := range req.Cards {
		card, err := domain.NewCard(item.Front, item.Back, item.Sentence)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}
		cards = append(cards, card)
	}

	stored, err := h.cardService.EnqueueBatch(r.Context(), cards)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, toCardListResponse(stored))
}

// ListPending handles GET /api/cards/pending. This is the endpoint the
// sync client polls; it is read-only and safe to hit arbitrarily often.
func (h *CardHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cardService.Pending(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardListResponse(cards))
}

// GetCard handles GET /api/cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	card, err := h.cardService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// Report handles POST /api/cards/report. Outcomes are applied per id;
// an unknown id yields a not_found acknowledgment for that id only.
func (h *CardHandler) Report(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req ReportRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	outcomes := make([]domain.Outcome, 0, len(req.Results))
	for _, result := range req.Results {
		outcomes = append(outcomes, domain.Outcome{
			CardID: result.ID,
			Kind:   domain.OutcomeKind(result.Outcome),
			Reason: result.Reason,
		})
	}

	acks, err := h.cardService.ApplyReport(r.Context(), outcomes)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := ReportResponse{Results: make(map[int64]domain.AckStatus, len(acks))}
	for _, ack := range acks {
		resp.Results[ack.CardID] = ack.Status
	}

	log.Debug("sync report handled", slog.Int("outcomes", len(outcomes)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Requeue handles POST /api/cards/{id}/requeue.
func (h *CardHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.cardService.Requeue(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	card, err := h.cardService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toCardResponse(card))
}

// Health handles GET /health. It is unauthenticated so the sync client
// can use it to probe candidate endpoints during port discovery.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// decodeAndValidate decodes the JSON request body into dst and runs
// struct validation, writing an error response on failure.
func (h *CardHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

// pathID extracts the {id} path parameter as an int64.
func (h *CardHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Debug("invalid card id in path", slog.String("value", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID")
		return 0, false
	}
	return id, true
}
