package api

import (
	"time"

	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// EnqueueRequest is the request body for creating a single card.
type EnqueueRequest struct {
	Front    string `json:"front"    validate:"required"`
	Back     string `json:"back"     validate:"required"`
	Sentence string `json:"sentence"`
}

// EnqueueBatchRequest is the request body for creating several cards
// atomically.
type EnqueueBatchRequest struct {
	Cards []EnqueueRequest `json:"cards" validate:"required,min=1,dive"`
}

// DraftRequest is the request body for creating a card from a bare
// word or phrase; the back side is produced by the translator.
type DraftRequest struct {
	Front    string `json:"front"    validate:"required"`
	Sentence string `json:"sentence"`
}

// ReportedOutcome is one delivery outcome in a sync report.
type ReportedOutcome struct {
	ID      int64  `json:"id"      validate:"required,gt=0"`
	Outcome string `json:"outcome" validate:"required,oneof=synced failed"`
	Reason  string `json:"reason"`
}

// ReportRequest is the request body for POST /api/cards/report.
type ReportRequest struct {
	Results []ReportedOutcome `json:"results" validate:"required,dive"`
}

// ReportResponse maps each reported card ID to its acknowledgment
// status. JSON object keys are strings, so clients parse the keys back
// into IDs.
type ReportResponse struct {
	Results map[int64]domain.AckStatus `json:"results"`
}

// CardResponse is the wire representation of a card.
type CardResponse struct {
	ID         int64      `json:"id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Sentence   string     `json:"sentence"`
	Status     string     `json:"status"`
	FailReason string     `json:"fail_reason,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SyncedAt   *time.Time `json:"synced_at,omitempty"`
}

// CardListResponse wraps a list of cards.
type CardListResponse struct {
	Cards []CardResponse `json:"cards"`
}

// HealthResponse is the body of the unauthenticated health probe.
type HealthResponse struct {
	Status string `json:"status"`
}

// toCardResponse converts a domain card to its wire representation.
func toCardResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:         card.ID,
		Front:      card.Front,
		Back:       card.Back,
		Sentence:   card.Sentence,
		Status:     string(card.Status),
		FailReason: card.FailReason,
		Attempts:   card.Attempts,
		CreatedAt:  card.CreatedAt,
		SyncedAt:   card.SyncedAt,
	}
}

// toCardListResponse converts a slice of domain cards, always yielding
// a non-nil Cards field so an empty queue serializes as [] not null.
func toCardListResponse(cards []*domain.Card) CardListResponse {
	out := CardListResponse{Cards: make([]CardResponse, 0, len(cards))}
	for _, card := range cards {
		out.Cards = append(out.Cards, toCardResponse(card))
	}
	return out
}
