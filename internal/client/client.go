// Package client is the HTTP client side of the sync protocol. The
// syncer drives it; the synchelper CLI uses it directly for operator
// commands like requeue.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ankiqueue/ankiqueue/internal/api"
	apimw "github.com/ankiqueue/ankiqueue/internal/api/middleware"
	"github.com/ankiqueue/ankiqueue/internal/api/shared"
	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// ErrUnauthorized is returned when the server rejects the shared
// secret. Retrying will not help until the configuration is fixed, so
// the syncer stops the cycle instead of hammering the endpoint.
var ErrUnauthorized = errors.New("server rejected API secret")

// Client talks to one sync server endpoint.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client for the given base URL. The timeout bounds
// every request including body read.
func New(baseURL, secret string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		logger:  log.With(slog.String("component", "sync_client"), slog.String("endpoint", baseURL)),
	}
}

// BaseURL returns the endpoint this client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping probes the unauthenticated health endpoint. It is the cheap
// check used during endpoint discovery.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe returned status %d", resp.StatusCode)
	}
	return nil
}

// Pending fetches all pending cards.
func (c *Client) Pending(ctx context.Context) ([]*domain.Card, error) {
	var list api.CardListResponse
	if err := c.do(ctx, http.MethodGet, "/api/cards/pending", nil, &list); err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(list.Cards))
	for _, item := range list.Cards {
		status, err := domain.ParseStatus(item.Status)
		if err != nil {
			return nil, fmt.Errorf("server sent card %d with bad status: %w", item.ID, err)
		}
		cards = append(cards, &domain.Card{
			ID:         item.ID,
			Front:      item.Front,
			Back:       item.Back,
			Sentence:   item.Sentence,
			Status:     status,
			FailReason: item.FailReason,
			Attempts:   item.Attempts,
			CreatedAt:  item.CreatedAt,
			SyncedAt:   item.SyncedAt,
		})
	}
	return cards, nil
}

// Report sends a batch of delivery outcomes and returns the per-id
// acknowledgments.
func (c *Client) Report(ctx context.Context, outcomes []domain.Outcome) (map[int64]domain.AckStatus, error) {
	req := api.ReportRequest{Results: make([]api.ReportedOutcome, 0, len(outcomes))}
	for _, outcome := range outcomes {
		req.Results = append(req.Results, api.ReportedOutcome{
			ID:      outcome.CardID,
			Outcome: string(outcome.Kind),
			Reason:  outcome.Reason,
		})
	}

	var resp api.ReportResponse
	if err := c.do(ctx, http.MethodPost, "/api/cards/report", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Enqueue creates a single card on the server.
func (c *Client) Enqueue(ctx context.Context, front, back, sentence string) (*api.CardResponse, error) {
	var card api.CardResponse
	err := c.do(ctx, http.MethodPost, "/api/cards", api.EnqueueRequest{
		Front:    front,
		Back:     back,
		Sentence: sentence,
	}, &card)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Requeue re-arms a failed card on the server.
func (c *Client) Requeue(ctx context.Context, id int64) (*api.CardResponse, error) {
	var card api.CardResponse
	path := fmt.Sprintf("/api/cards/%d/requeue", id)
	if err := c.do(ctx, http.MethodPost, path, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// do performs one authenticated JSON request against the endpoint.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimw.SecretHeader, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= http.StatusBadRequest:
		var apiErr shared.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))
	return nil
}
