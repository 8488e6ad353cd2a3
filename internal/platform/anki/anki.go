// Package anki implements the delivery contract against AnkiConnect,
// the JSON-RPC bridge exposed by the Anki desktop add-on.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/delivery"
	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// protocolVersion is the AnkiConnect API version this adapter speaks.
const protocolVersion = 6

// defaultTimeout bounds every AnkiConnect call. The add-on answers on
// localhost, so anything slower than this means Anki is wedged.
const defaultTimeout = 10 * time.Second

// Deliverer adds cards to a local Anki collection through AnkiConnect.
type Deliverer struct {
	cfg    config.AnkiConfig
	client *http.Client
	logger *slog.Logger
}

var _ delivery.Deliverer = (*Deliverer)(nil)

// NewDeliverer creates an AnkiConnect-backed deliverer.
func NewDeliverer(cfg config.AnkiConfig, log *slog.Logger) *Deliverer {
	if log == nil {
		log = slog.Default()
	}

	return &Deliverer{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
		logger: log.With(slog.String("component", "anki_deliverer")),
	}
}

// request is the AnkiConnect call envelope.
type request struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

// response is the AnkiConnect result envelope. Error is a string or
// null; AnkiConnect has no structured error codes.
type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

type noteParams struct {
	Note note `json:"note"`
}

type note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   noteOptions       `json:"options"`
}

type noteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// AddEntry implements delivery.Deliverer. A duplicate rejection from
// AnkiConnect maps to delivery.ErrDuplicate, a request that never got
// an answer maps to delivery.ErrUnreachable, and every other error is
// a delivery failure.
func (d *Deliverer) AddEntry(ctx context.Context, card *domain.Card) error {
	fields := map[string]string{
		d.cfg.FrontField: card.Front,
		d.cfg.BackField:  card.Back,
	}
	if d.cfg.SentenceField != "" && card.Sentence != "" {
		fields[d.cfg.SentenceField] = card.Sentence
	}

	_, err := d.call(ctx, "addNote", noteParams{
		Note: note{
			DeckName:  d.cfg.Deck,
			ModelName: d.cfg.NoteType,
			Fields:    fields,
			Options:   noteOptions{AllowDuplicate: false},
		},
	})
	if err != nil {
		if isDuplicateError(err) {
			d.logger.Debug("duplicate note rejected by anki",
				slog.Int64("card_id", card.ID))
			return delivery.ErrDuplicate
		}
		return err
	}

	d.logger.Debug("note added", slog.Int64("card_id", card.ID))
	return nil
}

// IsReachable implements delivery.Deliverer by asking AnkiConnect for
// its version. Any well-formed answer counts; the sync loop only needs
// to know whether Anki is up before it burns attempts on cards.
func (d *Deliverer) IsReachable(ctx context.Context) bool {
	_, err := d.call(ctx, "version", nil)
	return err == nil
}

// call performs one AnkiConnect action and returns the raw result.
func (d *Deliverer) call(ctx context.Context, action string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(request{
		Action:  action,
		Version: protocolVersion,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.ConnectURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		// The request never reached the add-on; the note's state is
		// unknown, so surface the distinct sentinel instead of a
		// delivery failure.
		return nil, fmt.Errorf("ankiconnect %s call failed: %w", action, errors.Join(delivery.ErrUnreachable, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ankiconnect %s returned status %d: %w", action, resp.StatusCode, delivery.ErrUnreachable)
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if decoded.Error != nil && *decoded.Error != "" {
		return nil, fmt.Errorf("ankiconnect %s error: %s", action, *decoded.Error)
	}

	return decoded.Result, nil
}

// isDuplicateError matches AnkiConnect's duplicate-note rejection.
// The wording varies across add-on versions ("cannot create note
// because it is a duplicate", "... already exists"), so match both
// forms case-insensitively.
func isDuplicateError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}
