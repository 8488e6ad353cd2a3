package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/translation"
)

// DraftService turns a bare word or phrase into a complete card by
// asking a translator for the back side, then enqueues it. This is the
// path used when a capture arrives without a translation of its own.
type DraftService interface {
	CreateDraft(ctx context.Context, front, sentence string) (*domain.Card, error)
}

type draftServiceImpl struct {
	cards      CardService
	translator translation.Translator
	logger     *slog.Logger
}

// NewDraftService creates a DraftService. Both dependencies are
// required.
func NewDraftService(
	cards CardService,
	translator translation.Translator,
	logger *slog.Logger,
) (DraftService, error) {
	if cards == nil {
		return nil, NewCardServiceError("init", "card service cannot be nil", nil)
	}
	if translator == nil {
		return nil, NewCardServiceError("init", "translator cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &draftServiceImpl{
		cards:      cards,
		translator: translator,
		logger:     logger.With(slog.String("component", "draft_service")),
	}, nil
}

func (s *draftServiceImpl) CreateDraft(ctx context.Context, front, sentence string) (*domain.Card, error) {
	front = strings.TrimSpace(front)
	if front == "" {
		return nil, domain.ErrCardFrontEmpty
	}

	back, err := s.translator.Translate(ctx, front, sentence)
	if err != nil {
		return nil, NewCardServiceError("draft", "translation failed", err)
	}
	back = strings.TrimSpace(back)
	if back == "" {
		return nil, NewCardServiceError("draft", "translator returned empty text", translation.ErrTranslationFailed)
	}

	card, err := s.cards.Enqueue(ctx, front, back, sentence)
	if err != nil {
		return nil, err
	}

	s.logger.Info("draft card enqueued", slog.Int64("card_id", card.ID))
	return card, nil
}
