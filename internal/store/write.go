package store

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one persisted suite execution.
type RunRecord struct {
	ID        string    `json:"id"`
	Suite     string    `json:"suite"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
}

// ResultRecord is one persisted test result within a run.
type ResultRecord struct {
	RunID    string `json:"run_id"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Pass     bool   `json:"pass"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
	Detail   string `json:"detail,omitempty"`
}

// WriteRun inserts a run and its per-test results in one transaction.
// Run IDs are unique; writing a duplicate ID is an error.
func (s *Store) WriteRun(ctx context.Context, run RunRecord, results []ResultRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, suite, started_at, total, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Suite,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Total,
		run.Passed,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	for _, r := range results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO test_results (run_id, position, name, pass, exit_code, timed_out, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			r.Position,
			r.Name,
			r.Pass,
			r.ExitCode,
			r.TimedOut,
			r.Detail,
		)
		if err != nil {
			return fmt.Errorf("write run: insert result %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
