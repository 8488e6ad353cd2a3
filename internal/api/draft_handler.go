package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ankiqueue/ankiqueue/internal/api/shared"
	"github.com/ankiqueue/ankiqueue/internal/service"
)

// DraftHandler handles draft card creation, where only the front of
// the card is supplied and the back is produced by the translator.
type DraftHandler struct {
	draftService service.DraftService
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(draftService service.DraftService, log *slog.Logger) *DraftHandler {
	if draftService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("draftService cannot be nil for DraftHandler")
	}
	if log == nil {
		log = slog.Default()
	}

	return &DraftHandler{
		draftService: draftService,
		validator:    validator.New(),
		logger:       log.With(slog.String("component", "draft_handler")),
	}
}

// CreateDraft handles POST /api/cards/draft.
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	card, err := h.draftService.CreateDraft(r.Context(), req.Front, req.Sentence)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("draft created via API", slog.Int64("card_id", card.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, toCardResponse(card))
}
