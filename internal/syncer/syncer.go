// Package syncer runs the sync cycle of the helper process: resolve a
// reachable server endpoint, flush any held report, fetch pending
// cards, deliver them locally and report the outcomes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/ankiqueue/ankiqueue/internal/client"
	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/delivery"
	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// ErrNoEndpoint is returned by a cycle that could not find a reachable
// server endpoint. It is recoverable: the next cycle probes again.
var ErrNoEndpoint = errors.New("no reachable server endpoint")

// flushTimeout bounds the final held-report flush on shutdown.
const flushTimeout = 15 * time.Second

// Syncer drives sync cycles. A single Syncer never runs two cycles
// concurrently; Run and RunOnce are sequential by construction.
type Syncer struct {
	cfg       config.SyncConfig
	secret    string
	deliverer delivery.Deliverer
	state     *StateStore
	logger    *slog.Logger

	// newClient is swappable in tests.
	newClient func(baseURL string) *client.Client

	// current is the endpoint resolved by the last successful cycle,
	// tried first on the next one.
	current *client.Client
}

// New creates a Syncer.
func New(
	cfg config.SyncConfig,
	secret string,
	deliverer delivery.Deliverer,
	state *StateStore,
	log *slog.Logger,
) (*Syncer, error) {
	if deliverer == nil {
		return nil, errors.New("deliverer cannot be nil")
	}
	if state == nil {
		return nil, errors.New("state store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	s := &Syncer{
		cfg:       cfg,
		secret:    secret,
		deliverer: deliverer,
		state:     state,
		logger:    log.With(slog.String("component", "syncer")),
	}
	s.newClient = func(baseURL string) *client.Client {
		return client.New(baseURL, secret, timeout, log)
	}
	return s, nil
}

// Run polls in a loop until the context is cancelled. On cancellation
// any held report is flushed with a fresh bounded context first, so a
// delivered-but-unacknowledged outcome is not stranded until the next
// start.
func (s *Syncer) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("sync loop started", slog.Duration("interval", interval))

	for {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("sync cycle failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("sync loop stopping, flushing held report")
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if err := s.flushHeld(flushCtx); err != nil {
				s.logger.Warn("final flush failed, outcomes stay held",
					slog.String("error", err.Error()))
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs one full sync cycle.
func (s *Syncer) RunOnce(ctx context.Context) error {
	cycleID := uuid.New().String()
	log := s.logger.With(slog.String("cycle_id", cycleID))

	// ResolvingEndpoint
	c, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	log = log.With(slog.String("endpoint", c.BaseURL()))

	// Reporting (held): outcomes from a previous cycle whose report
	// failed go out before anything new is fetched.
	held, err := s.state.HeldOutcomes(ctx)
	if err != nil {
		return err
	}
	if len(held) > 0 {
		log.Info("retrying held report", slog.Int("outcomes", len(held)))
		if err := s.report(ctx, c, held); err != nil {
			return fmt.Errorf("held report retry failed: %w", err)
		}
	}

	// Fetching. Skip the whole cycle when the local destination is
	// down; fetched cards would only burn attempts.
	if !s.deliverer.IsReachable(ctx) {
		log.Info("destination unreachable, skipping cycle")
		return nil
	}

	cards, err := c.Pending(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if len(cards) == 0 {
		log.Debug("nothing pending")
		return nil
	}
	log.Info("fetched pending cards", slog.Int("count", len(cards)))

	// Delivering. Sequential; each card yields exactly one outcome. A
	// transport error means the destination went away mid-batch and the
	// card's state is unknown, so it and the rest of the batch stay
	// pending for the next cycle.
	outcomes := make([]domain.Outcome, 0, len(cards))
	for _, card := range cards {
		outcome, err := s.deliver(ctx, card, log)
		if err != nil {
			log.Warn("destination lost mid-cycle, remaining cards stay pending",
				slog.Int64("card_id", card.ID),
				slog.Int("undelivered", len(cards)-len(outcomes)),
				slog.String("error", err.Error()))
			break
		}
		outcomes = append(outcomes, outcome)
	}
	if len(outcomes) == 0 {
		return nil
	}

	// Reporting. Outcomes are held durably before the report call so a
	// crash between delivery and acknowledgment cannot lose them.
	if err := s.state.HoldOutcomes(ctx, outcomes); err != nil {
		return err
	}
	if err := s.report(ctx, c, outcomes); err != nil {
		log.Warn("report failed, outcomes held for next cycle",
			slog.Int("outcomes", len(outcomes)),
			slog.String("error", err.Error()))
		return nil
	}

	log.Info("cycle complete", slog.Int("delivered", len(outcomes)))
	return nil
}

// resolve finds a reachable endpoint: the current cycle's client, then
// the endpoint recorded from earlier runs, then the candidate ports in
// order.
func (s *Syncer) resolve(ctx context.Context) (*client.Client, error) {
	if s.current != nil && s.current.Ping(ctx) == nil {
		return s.current, nil
	}
	s.current = nil

	tried := map[string]bool{}

	if last, err := s.state.LastEndpoint(ctx); err == nil && last != "" {
		tried[last] = true
		c := s.newClient(last)
		if c.Ping(ctx) == nil {
			s.current = c
			return c, nil
		}
	}

	urls, err := CandidateURLs(s.cfg.ServerURL, s.cfg.PortAttempts)
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		if tried[u] {
			continue
		}
		c := s.newClient(u)
		if c.Ping(ctx) == nil {
			s.logger.Info("resolved server endpoint", slog.String("endpoint", u))
			if err := s.state.SetLastEndpoint(ctx, u); err != nil {
				s.logger.Warn("failed to record endpoint", slog.String("error", err.Error()))
			}
			s.current = c
			return c, nil
		}
	}

	return nil, ErrNoEndpoint
}

// deliver attempts one card and maps the result to an outcome. A
// duplicate rejection counts as success: the destination already has
// the content. A transport error is returned to the caller instead of
// an outcome; the card was neither added nor rejected, so no outcome
// may be reported for it.
func (s *Syncer) deliver(ctx context.Context, card *domain.Card, log *slog.Logger) (domain.Outcome, error) {
	err := s.deliverer.AddEntry(ctx, card)
	switch {
	case err == nil:
		log.Debug("card delivered", slog.Int64("card_id", card.ID))
		return domain.Outcome{CardID: card.ID, Kind: domain.OutcomeSynced}, nil
	case errors.Is(err, delivery.ErrDuplicate):
		log.Info("card already present at destination", slog.Int64("card_id", card.ID))
		return domain.Outcome{CardID: card.ID, Kind: domain.OutcomeSynced}, nil
	case isTransportError(err):
		return domain.Outcome{}, err
	default:
		log.Warn("delivery failed",
			slog.Int64("card_id", card.ID),
			slog.String("reason", err.Error()))
		return domain.Outcome{CardID: card.ID, Kind: domain.OutcomeFailed, Reason: err.Error()}, nil
	}
}

// isTransportError reports whether a delivery error means the request
// never completed, as opposed to the destination rejecting the card.
func isTransportError(err error) bool {
	if errors.Is(err, delivery.ErrUnreachable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// report sends outcomes and clears the acknowledged ones from the held
// set. Every ack status counts as acknowledged, including not_found:
// the server has answered for that id and retrying cannot change it.
func (s *Syncer) report(ctx context.Context, c *client.Client, outcomes []domain.Outcome) error {
	acks, err := c.Report(ctx, outcomes)
	if err != nil {
		return err
	}

	cleared := make([]int64, 0, len(acks))
	for id := range acks {
		cleared = append(cleared, id)
	}
	return s.state.ClearOutcomes(ctx, cleared)
}

// flushHeld retries the held report once against the current endpoint.
func (s *Syncer) flushHeld(ctx context.Context) error {
	held, err := s.state.HeldOutcomes(ctx)
	if err != nil || len(held) == 0 {
		return err
	}

	c, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	return s.report(ctx, c, held)
}
