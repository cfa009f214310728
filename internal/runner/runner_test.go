package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strosek/cyancrown/internal/store"
	"github.com/strosek/cyancrown/internal/suite"
)

// loadSuite parses an inline suite document for tests.
func loadSuite(t *testing.T, content string) *suite.Suite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	s, err := suite.Load(path)
	require.NoError(t, err)
	return s
}

func TestRun_PassingSuite(t *testing.T) {
	s := loadSuite(t, `
hello:
  command: "echo hello"
  timeout: 5
  verify:
    - name: MATCH_OUTPUT
      value: "^hello$"
`)

	report, err := New(nil).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, Tally{Total: 1, Passed: 1, Failed: 0}, report.Tally)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, "hello", res.Name)
	assert.True(t, res.Pass)
	assert.Equal(t, "hello", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.NotEmpty(t, report.RunID)
}

func TestRun_FailedRuleContributesToTally(t *testing.T) {
	s := loadSuite(t, `
passes:
  command: "echo ok"
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
fails:
  command: "echo ok"
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
    - name: MATCH_OUTPUT
      value: "^nope$"
`)

	report, err := New(nil).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, Tally{Total: 2, Passed: 1, Failed: 1}, report.Tally)
	assert.True(t, report.Results[0].Pass)
	assert.False(t, report.Results[1].Pass)
	assert.NotEmpty(t, report.Results[1].Failures)
}

func TestRun_TimeoutDegradesToFail(t *testing.T) {
	s := loadSuite(t, `
sleeper:
  command: "sleep 5"
  timeout: "1"
  verify:
    - name: MATCH_EC
      value: 0
`)
	// Sub-second timeout to keep the test fast.
	s.Tests[0].Timeout = 200 * time.Millisecond

	report, err := New(nil).Run(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.TimedOut)
	assert.False(t, res.Pass, "exit-code rule fails against the sentinel outcome")
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, Tally{Total: 1, Passed: 0, Failed: 1}, report.Tally)
}

func TestRun_LaunchFailureDegradesToFail(t *testing.T) {
	s := loadSuite(t, `
ghost:
  command: "definitely-not-a-real-binary-4242"
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
`)

	report, err := New(nil).Run(context.Background(), s)
	require.NoError(t, err)

	res := report.Results[0]
	assert.False(t, res.Pass)
	assert.NotEmpty(t, res.LaunchError)
	assert.Equal(t, 1, res.ExitCode)
}

func TestRun_EmptyRuleListPasses(t *testing.T) {
	s := loadSuite(t, `
vacuous:
  command: "sh -c \"exit 3\""
  timeout: 5
`)

	report, err := New(nil).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, report.Results[0].Pass)
}

func TestRun_Idempotent(t *testing.T) {
	s := loadSuite(t, `
greet:
  command: "echo hello"
  timeout: 5
  verify:
    - name: MATCH_OUTPUT
      value: "^hello$"
exit_check:
  command: "sh -c \"exit 2\""
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
`)

	r := New(nil)
	first, err := r.Run(context.Background(), s)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, first.Tally, second.Tally)
	assert.Equal(t, Tally{Total: 2, Passed: 1, Failed: 1}, first.Tally)
}

func TestRun_LogsSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := loadSuite(t, `
hello:
  command: "echo hello"
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
`)

	_, err := New(logger).Run(context.Background(), s)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "test finished")
	assert.Contains(t, out, "result=PASS")
	assert.Contains(t, out, "name=hello")
	assert.Contains(t, out, "run finished")
	assert.Contains(t, out, "exit_code=0")
}

func TestRun_PersistsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	s := loadSuite(t, `
first:
  command: "echo one"
  timeout: 5
  verify:
    - name: MATCH_OUTPUT
      value: "one"
second:
  command: "sh -c \"exit 9\""
  timeout: 5
  verify:
    - name: MATCH_EC
      value: 0
`)

	report, err := New(nil, WithHistory(st)).Run(context.Background(), s)
	require.NoError(t, err)

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Total)
	assert.Equal(t, 1, runs[0].Failed)

	results, err := st.RunResults(context.Background(), report.RunID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Name)
	assert.True(t, results[0].Pass)
	assert.Equal(t, "second", results[1].Name)
	assert.False(t, results[1].Pass)
	assert.Equal(t, 9, results[1].ExitCode)
	assert.NotEmpty(t, results[1].Detail)
}
