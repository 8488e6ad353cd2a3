package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ankiqueue/ankiqueue/internal/domain"
)

// stateSchema holds the client's durable sync state: outcomes that
// were delivered but not yet acknowledged by the server, and the last
// endpoint that answered.
const stateSchema = `
CREATE TABLE IF NOT EXISTS held_outcomes (
	card_id INTEGER PRIMARY KEY,
	outcome TEXT NOT NULL,
	reason  TEXT NOT NULL DEFAULT '',
	held_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS last_endpoint (
	id  INTEGER PRIMARY KEY CHECK (id = 1),
	url TEXT NOT NULL
);
`

// StateStore is the client's durable scratchpad. Holding outcomes on
// disk is what makes the report phase survive a crash between delivery
// and acknowledgment.
type StateStore struct {
	db *sql.DB
}

// OpenState opens (and if needed initializes) the state database at
// the given path.
func OpenState(path string) (*StateStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if _, err := db.Exec(stateSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	return &StateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// HoldOutcomes stores outcomes pending acknowledgment. A synced
// outcome is never downgraded: if a card is already held as synced, a
// later failed outcome for the same card is ignored.
func (s *StateStore) HoldOutcomes(ctx context.Context, outcomes []domain.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, outcome := range outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO held_outcomes (card_id, outcome, reason, held_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(card_id) DO UPDATE SET
				outcome = excluded.outcome,
				reason  = excluded.reason,
				held_at = excluded.held_at
			WHERE held_outcomes.outcome <> 'synced'
		`, outcome.CardID, string(outcome.Kind), outcome.Reason, now)
		if err != nil {
			return fmt.Errorf("failed to hold outcome for card %d: %w", outcome.CardID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit held outcomes: %w", err)
	}
	return nil
}

// HeldOutcomes returns all outcomes awaiting acknowledgment, oldest
// first.
func (s *StateStore) HeldOutcomes(ctx context.Context) ([]domain.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id, outcome, reason
		FROM held_outcomes
		ORDER BY held_at, card_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load held outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []domain.Outcome
	for rows.Next() {
		var (
			outcome domain.Outcome
			kind    string
		)
		if err := rows.Scan(&outcome.CardID, &kind, &outcome.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan held outcome: %w", err)
		}
		outcome.Kind = domain.OutcomeKind(kind)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// ClearOutcomes removes acknowledged outcomes.
func (s *StateStore) ClearOutcomes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM held_outcomes WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear outcome for card %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cleared outcomes: %w", err)
	}
	return nil
}

// LastEndpoint returns the last endpoint that answered a probe, or an
// empty string when none has been recorded yet.
func (s *StateStore) LastEndpoint(ctx context.Context) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx, `SELECT url FROM last_endpoint WHERE id = 1`).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load last endpoint: %w", err)
	}
	return url, nil
}

// SetLastEndpoint records the endpoint that most recently answered.
func (s *StateStore) SetLastEndpoint(ctx context.Context, url string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO last_endpoint (id, url) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET url = excluded.url
	`, url)
	if err != nil {
		return fmt.Errorf("failed to record last endpoint: %w", err)
	}
	return nil
}
