package domain

// OutcomeKind is the result of a single delivery attempt as observed by
// the sync client.
type OutcomeKind string

const (
	// OutcomeSynced means the adapter accepted the card, or rejected it
	// as a duplicate of an entry it already holds. Both converge on the
	// same queue state.
	OutcomeSynced OutcomeKind = "synced"

	// OutcomeFailed means the adapter rejected the card for a structural
	// reason (missing deck, bad note type, empty field).
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome pairs a card ID with the result of its delivery attempt.
// Outcomes are what the client reports back to the server; the server
// applies them with success-wins semantics.
type Outcome struct {
	CardID int64       `json:"card_id"`
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// AckStatus is the server's per-card answer to a reported outcome.
type AckStatus string

const (
	// AckSynced: the card transitioned to Synced.
	AckSynced AckStatus = "synced"

	// AckFailed: the card transitioned to Failed.
	AckFailed AckStatus = "failed"

	// AckAlreadySynced: the card was already Synced; the report was a
	// retry or a stale failure and changed nothing.
	AckAlreadySynced AckStatus = "already_synced"

	// AckNotFound: the server does not know the card ID.
	AckNotFound AckStatus = "not_found"
)

// Ack is one entry of the per-id acknowledgment the server returns for a
// report batch. IDs are acknowledged independently so a partially
// applied batch is visible to the client.
type Ack struct {
	CardID int64     `json:"card_id"`
	Status AckStatus `json:"status"`
}
