// Package runner executes test suites and produces run reports.
//
// Execution is strictly sequential: one test's command fully completes (or
// times out) before the next begins. Every test resolves to exactly one
// execution outcome and one verdict; executor-level failures (timeout,
// missing binary) still produce an outcome that the test's rules are
// evaluated against, which degrades output-dependent rules to failure.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strosek/cyancrown/internal/executor"
	"github.com/strosek/cyancrown/internal/store"
	"github.com/strosek/cyancrown/internal/suite"
	"github.com/strosek/cyancrown/internal/verify"
)

// TestResult is the structured record produced for one test.
type TestResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Command     string   `json:"command"`
	ExitCode    int      `json:"exit_code"`
	Stdout      string   `json:"stdout,omitempty"`
	TimedOut    bool     `json:"timed_out,omitempty"`
	LaunchError string   `json:"launch_error,omitempty"`
	Failures    []string `json:"failures,omitempty"`
}

// Tally aggregates run-level counts.
type Tally struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report is the outcome of one full suite run.
type Report struct {
	RunID     string       `json:"run_id"`
	Suite     string       `json:"suite"`
	StartedAt time.Time    `json:"started_at"`
	Results   []TestResult `json:"results"`
	Tally     Tally        `json:"tally"`
}

// Clock abstracts time for deterministic report tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Runner executes suites. The logger is an injected capability, not a
// process-wide singleton; its lifecycle belongs to the caller.
type Runner struct {
	log     *slog.Logger
	eval    *verify.Evaluator
	history *store.Store
	clock   Clock
	newID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory persists each completed run to the given store.
func WithHistory(st *store.Store) Option {
	return func(r *Runner) { r.history = st }
}

// WithClock overrides the report timestamp source.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(f func() string) Option {
	return func(r *Runner) { r.newID = f }
}

// New creates a Runner. A nil logger discards log output.
func New(log *slog.Logger, opts ...Option) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{
		log:   log,
		eval:  verify.NewEvaluator(nil),
		clock: systemClock{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every test in document order and returns the report. The
// report is always complete when the returned error is non-nil: only
// history persistence can fail after the verdicts are computed.
func (r *Runner) Run(ctx context.Context, s *suite.Suite) (*Report, error) {
	report := &Report{
		RunID:     r.newID(),
		Suite:     s.Source,
		StartedAt: r.clock.Now(),
		Results:   make([]TestResult, 0, len(s.Tests)),
	}

	for _, spec := range s.Tests {
		r.log.Debug("running test", "name", spec.Name)
		result := r.runTest(ctx, spec)
		report.Results = append(report.Results, result)

		report.Tally.Total++
		if result.Pass {
			report.Tally.Passed++
		} else {
			report.Tally.Failed++
		}
	}

	r.log.Info("run finished",
		"run_id", report.RunID,
		"total", report.Tally.Total,
		"passed", report.Tally.Passed,
		"failed", report.Tally.Failed,
	)

	if r.history != nil {
		if err := r.persist(ctx, report); err != nil {
			return report, fmt.Errorf("persist run history: %w", err)
		}
	}
	return report, nil
}

// runTest sequences execution and verification for one specification.
func (r *Runner) runTest(ctx context.Context, spec suite.TestSpec) TestResult {
	outcome := executor.Run(ctx, spec.Command, spec.Timeout)
	if outcome.TimedOut {
		r.log.Error("timeout exceeded", "name", spec.Name, "timeout", spec.Timeout)
	}
	if outcome.LaunchFailed {
		r.log.Error("command failed to launch", "name", spec.Name, "error", outcome.Diagnostic)
	}

	set := r.eval.EvaluateAll(ctx, spec.Rules, outcome)

	result := TestResult{
		Name:        spec.Name,
		Pass:        set.Passed,
		Command:     spec.Command,
		ExitCode:    outcome.ExitCode,
		Stdout:      outcome.Stdout,
		TimedOut:    outcome.TimedOut,
		LaunchError: outcome.Diagnostic,
	}
	for _, rr := range set.Results {
		if !rr.Passed {
			result.Failures = append(result.Failures, rr.Message)
		}
	}

	status := "FAIL"
	if result.Pass {
		status = "PASS"
	}
	r.log.Info("test finished", "name", spec.Name, "result", status)
	r.log.Debug("test detail",
		"name", spec.Name,
		"command", spec.Command,
		"stdout", outcome.Stdout,
		"exit_code", outcome.ExitCode,
	)
	return result
}

// persist maps the report onto history records and writes them.
func (r *Runner) persist(ctx context.Context, report *Report) error {
	run := store.RunRecord{
		ID:        report.RunID,
		Suite:     report.Suite,
		StartedAt: report.StartedAt,
		Total:     report.Tally.Total,
		Passed:    report.Tally.Passed,
		Failed:    report.Tally.Failed,
	}

	results := make([]store.ResultRecord, 0, len(report.Results))
	for i, res := range report.Results {
		detail := res.LaunchError
		if detail == "" && len(res.Failures) > 0 {
			detail = res.Failures[0]
		}
		results = append(results, store.ResultRecord{
			RunID:    report.RunID,
			Position: i,
			Name:     res.Name,
			Pass:     res.Pass,
			ExitCode: res.ExitCode,
			TimedOut: res.TimedOut,
			Detail:   detail,
		})
	}

	return r.history.WriteRun(ctx, run, results)
}
