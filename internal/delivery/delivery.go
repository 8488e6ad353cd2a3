// Package delivery defines the contract between the sync client and
// the local destination that cards are handed to. The concrete
// implementation for Anki lives in platform/anki.
package delivery

import (
	"context"
	"errors"

	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// ErrDuplicate is returned by AddEntry when the destination already
// holds an identical entry. Callers treat it as success: the card's
// content is present, which is all the queue promises.
var ErrDuplicate = errors.New("duplicate entry")

// ErrUnreachable is returned by AddEntry when the request never made
// it to the destination (connection refused, timeout). The card was
// neither added nor rejected, so callers leave it pending and retry
// on a later cycle.
var ErrUnreachable = errors.New("destination unreachable")

// Deliverer hands a card to the local destination.
type Deliverer interface {
	// AddEntry adds the card to the destination. A nil error means the
	// entry was created; ErrDuplicate means it already existed;
	// ErrUnreachable means the destination could not be contacted and
	// the card's state is unknown. Any other error is a delivery
	// failure and its message becomes the card's fail reason.
	AddEntry(ctx context.Context, card *domain.Card) error

	// IsReachable reports whether the destination is currently
	// accepting requests. The sync loop skips a cycle when it is not,
	// so cards are never burned on a destination that is simply closed.
	IsReachable(ctx context.Context) bool
}
