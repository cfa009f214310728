package store

import (
	"context"
	"fmt"
	"time"
)

// ListRuns returns the most recent runs, newest first. A limit of 0 or less
// means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, suite, started_at, total, passed, failed
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var startedAt string
		if err := rows.Scan(&run.ID, &run.Suite, &startedAt, &run.Total, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse started_at %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunResults returns the per-test results of one run in execution order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, position, name, pass, exit_code, timed_out, detail
		FROM test_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	defer rows.Close()

	var results []ResultRecord
	for rows.Next() {
		var r ResultRecord
		if err := rows.Scan(&r.RunID, &r.Position, &r.Name, &r.Pass, &r.ExitCode, &r.TimedOut, &r.Detail); err != nil {
			return nil, fmt.Errorf("run results: scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	return results, nil
}
