package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesTrimmedStdout(t *testing.T) {
	outcome := Run(context.Background(), "echo hello", 5*time.Second)

	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "hello", outcome.Stdout)
	assert.False(t, outcome.TimedOut)
	assert.False(t, outcome.LaunchFailed)
}

func TestRun_RespectsQuoting(t *testing.T) {
	outcome := Run(context.Background(), `echo "a b" c`, 5*time.Second)

	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "a b c", outcome.Stdout)
}

func TestRun_ReportsActualExitCode(t *testing.T) {
	outcome := Run(context.Background(), `sh -c "exit 3"`, 5*time.Second)

	assert.Equal(t, 3, outcome.ExitCode)
	assert.False(t, outcome.TimedOut)
	assert.False(t, outcome.LaunchFailed)
}

func TestRun_CapturesStderr(t *testing.T) {
	outcome := Run(context.Background(), `sh -c "echo oops >&2"`, 5*time.Second)

	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "oops", outcome.Stderr)
	assert.Empty(t, outcome.Stdout)
}

func TestRun_TimeoutKillsAndDropsOutput(t *testing.T) {
	start := time.Now()
	outcome := Run(context.Background(), `sh -c "echo partial; sleep 5"`, 200*time.Millisecond)

	assert.True(t, outcome.TimedOut)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.Empty(t, outcome.Stdout, "partial output must be dropped on timeout")
	assert.Empty(t, outcome.Stderr)
	assert.Less(t, time.Since(start), 3*time.Second, "child must be killed at the deadline")
}

func TestRun_MissingExecutable(t *testing.T) {
	outcome := Run(context.Background(), "definitely-not-a-real-binary-4242", 5*time.Second)

	assert.True(t, outcome.LaunchFailed)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.False(t, outcome.TimedOut)
	assert.NotEmpty(t, outcome.Diagnostic)
}

func TestRun_EmptyCommand(t *testing.T) {
	outcome := Run(context.Background(), "   ", 5*time.Second)

	assert.True(t, outcome.LaunchFailed)
	assert.Equal(t, 1, outcome.ExitCode)
}

func TestRun_UnbalancedQuote(t *testing.T) {
	outcome := Run(context.Background(), `echo "unclosed`, 5*time.Second)

	assert.True(t, outcome.LaunchFailed)
	assert.Contains(t, outcome.Diagnostic, "tokenize")
}

func TestCapture_ReturnsRawStdout(t *testing.T) {
	out, err := Capture(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out, "secondary capture keeps raw output")
}

func TestCapture_NonzeroExitStillReturnsOutput(t *testing.T) {
	out, err := Capture(context.Background(), `sh -c "echo before; exit 7"`)
	require.NoError(t, err)
	assert.Equal(t, "before\n", out)
}

func TestCapture_MissingExecutable(t *testing.T) {
	_, err := Capture(context.Background(), "definitely-not-a-real-binary-4242")
	require.Error(t, err)
}
