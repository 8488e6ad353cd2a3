package domain

import (
	"errors"
	"strings"
	"time"
)

// Card-specific validation errors
var (
	// ErrCardFrontEmpty is returned when a card's front text is empty.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card's back text is empty.
	ErrCardBackEmpty = errors.New("card back cannot be empty")

	// ErrInvalidStatus is returned when a status string does not name a
	// known card status.
	ErrInvalidStatus = errors.New("invalid card status")
)

// CardStatus is the delivery state of a card in the queue.
type CardStatus string

const (
	// StatusPending marks a card that has been enqueued but not yet
	// delivered to the local flashcard application.
	StatusPending CardStatus = "pending"

	// StatusSynced marks a card that was delivered (or rejected as a
	// duplicate, which counts as delivered). A synced card never leaves
	// this state.
	StatusSynced CardStatus = "synced"

	// StatusFailed marks a card whose delivery was attempted and
	// rejected by the adapter. Failed cards stay in the queue until an
	// operator requeues them.
	StatusFailed CardStatus = "failed"
)

// ParseStatus converts a stored status string back into a CardStatus.
func ParseStatus(s string) (CardStatus, error) {
	switch CardStatus(strings.ToLower(s)) {
	case StatusPending:
		return StatusPending, nil
	case StatusSynced:
		return StatusSynced, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Card is a single queued flashcard. The text payload (Front, Back,
// Sentence) is immutable after enqueue; only Status, FailReason and
// Attempts change, and only in response to client reports.
type Card struct {
	ID         int64      `json:"id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Sentence   string     `json:"sentence,omitempty"`
	Status     CardStatus `json:"status"`
	FailReason string     `json:"fail_reason,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SyncedAt   *time.Time `json:"synced_at,omitempty"`
}

// NewCard builds a Pending card from the given payload. The ID is
// assigned by the store at enqueue time, not here.
func NewCard(front, back, sentence string) (*Card, error) {
	card := &Card{
		Front:     front,
		Back:      back,
		Sentence:  sentence,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks that the card payload is acceptable for enqueueing.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Front) == "" {
		return ErrCardFrontEmpty
	}
	if strings.TrimSpace(c.Back) == "" {
		return ErrCardBackEmpty
	}
	return nil
}
