package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/ankiqueue/ankiqueue/internal/domain"
	"github.com/ankiqueue/ankiqueue/internal/store"
)

// CardRepository is the store surface the service layer needs. WithTx
// rebinds the repository to a transaction for multi-statement
// operations; DB exposes the underlying pool for RunInTransaction.
type CardRepository interface {
	Enqueue(ctx context.Context, card *domain.Card) (*domain.Card, error)
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	ListPending(ctx context.Context) ([]*domain.Card, error)
	MarkSynced(ctx context.Context, id int64) (domain.AckStatus, error)
	MarkFailed(ctx context.Context, id int64, reason string) (domain.AckStatus, error)
	Requeue(ctx context.Context, id int64) error

	WithTx(tx *sql.Tx) CardRepository
	DB() *sql.DB
}

// CardService provides the queue operations behind the HTTP API.
type CardService interface {
	// Enqueue validates and stores a single new card as Pending.
	Enqueue(ctx context.Context, front, back, sentence string) (*domain.Card, error)

	// EnqueueBatch stores several cards atomically. Either every card
	// in the batch is enqueued or none are.
	EnqueueBatch(ctx context.Context, cards []*domain.Card) ([]*domain.Card, error)

	// Pending returns all Pending cards in creation order.
	Pending(ctx context.Context) ([]*domain.Card, error)

	// Get retrieves a single card by ID.
	Get(ctx context.Context, id int64) (*domain.Card, error)

	// ApplyReport applies a batch of delivery outcomes. Each outcome is
	// handled independently: one unknown ID does not invalidate the
	// acknowledgments of the others.
	ApplyReport(ctx context.Context, outcomes []domain.Outcome) ([]domain.Ack, error)

	// Requeue moves a Failed card back to Pending.
	Requeue(ctx context.Context, id int64) error
}

type cardServiceImpl struct {
	repo   CardRepository
	logger *slog.Logger
}

// NewCardService creates a CardService backed by the given repository.
func NewCardService(repo CardRepository, logger *slog.Logger) (CardService, error) {
	if repo == nil {
		return nil, NewCardServiceError("init", "repository cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		repo:   repo,
		logger: logger.With(slog.String("component", "card_service")),
	}, nil
}

func (s *cardServiceImpl) Enqueue(ctx context.Context, front, back, sentence string) (*domain.Card, error) {
	card, err := domain.NewCard(front, back, sentence)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Enqueue(ctx, card)
	if err != nil {
		return nil, NewCardServiceError("enqueue", "failed to store card", err)
	}

	s.logger.Info("card enqueued",
		slog.Int64("card_id", stored.ID),
		slog.Int("front_len", len(stored.Front)))
	return stored, nil
}

func (s *cardServiceImpl) EnqueueBatch(ctx context.Context, cards []*domain.Card) ([]*domain.Card, error) {
	if len(cards) == 0 {
		return nil, nil
	}
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return nil, err
		}
	}

	stored := make([]*domain.Card, 0, len(cards))
	insert := func(ctx context.Context, repo CardRepository) error {
		for _, card := range cards {
			got, err := repo.Enqueue(ctx, card)
			if err != nil {
				return err
			}
			stored = append(stored, got)
		}
		return nil
	}

	var err error
	if db := s.repo.DB(); db != nil {
		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return insert(ctx, s.repo.WithTx(tx))
		})
	} else {
		// Repositories without a pool (the in-memory store) serialize
		// their own mutations; there is no transaction to open.
		err = insert(ctx, s.repo)
	}
	if err != nil {
		return nil, NewCardServiceError("enqueue_batch", "failed to store cards", err)
	}

	s.logger.Info("card batch enqueued", slog.Int("count", len(stored)))
	return stored, nil
}

func (s *cardServiceImpl) Pending(ctx context.Context) ([]*domain.Card, error) {
	cards, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, NewCardServiceError("pending", "failed to list pending cards", err)
	}
	return cards, nil
}

func (s *cardServiceImpl) Get(ctx context.Context, id int64) (*domain.Card, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, err
		}
		return nil, NewCardServiceError("get", "failed to load card", err)
	}
	return card, nil
}

func (s *cardServiceImpl) ApplyReport(ctx context.Context, outcomes []domain.Outcome) ([]domain.Ack, error) {
	acks := make([]domain.Ack, 0, len(outcomes))

	for _, outcome := range outcomes {
		var (
			ack domain.AckStatus
			err error
		)

		switch outcome.Kind {
		case domain.OutcomeSynced:
			ack, err = s.repo.MarkSynced(ctx, outcome.CardID)
		case domain.OutcomeFailed:
			ack, err = s.repo.MarkFailed(ctx, outcome.CardID, outcome.Reason)
		default:
			return nil, NewCardServiceError("report", "outcome kind "+string(outcome.Kind), ErrUnknownOutcomeKind)
		}

		switch {
		case err == nil:
			acks = append(acks, domain.Ack{CardID: outcome.CardID, Status: ack})
		case errors.Is(err, store.ErrCardNotFound):
			// Unknown IDs are acknowledged, not rejected, so one stale
			// entry in a held report cannot wedge the whole batch.
			acks = append(acks, domain.Ack{CardID: outcome.CardID, Status: domain.AckNotFound})
		default:
			return nil, NewCardServiceError("report", "failed to apply outcome", err)
		}
	}

	s.logger.Info("sync report applied",
		slog.Int("outcomes", len(outcomes)),
		slog.Int("acks", len(acks)))
	return acks, nil
}

func (s *cardServiceImpl) Requeue(ctx context.Context, id int64) error {
	if err := s.repo.Requeue(ctx, id); err != nil {
		if errors.Is(err, store.ErrCardNotFound) || errors.Is(err, store.ErrNotRequeueable) {
			return err
		}
		return NewCardServiceError("requeue", "failed to requeue card", err)
	}

	s.logger.Info("card requeued", slog.Int64("card_id", id))
	return nil
}
