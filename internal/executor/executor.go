// Package executor runs test commands as subprocesses with bounded waits.
//
// Commands are tokenized with shell-word-splitting semantics (quoting is
// respected, metacharacters are not expanded) and never routed through a
// shell. Execution-level failures are classified into the Outcome rather
// than returned as errors: a timeout or a missing executable still yields a
// concrete outcome that verification rules are evaluated against.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// failureExitCode is the sentinel exit code reported for timeouts and
// launch failures.
const failureExitCode = 1

// Outcome captures the result of running one test command.
type Outcome struct {
	// ExitCode is the process exit code, or 1 for timeouts and launch
	// failures.
	ExitCode int

	// Stdout and Stderr hold the captured streams, whitespace-trimmed.
	// Both are empty when the command timed out.
	Stdout string
	Stderr string

	// TimedOut reports that the command exceeded its configured timeout
	// and was killed.
	TimedOut bool

	// LaunchFailed reports that the command never started (missing
	// executable, permission denied, unparseable command line).
	LaunchFailed bool

	// Diagnostic holds the OS-level error message when LaunchFailed is set.
	Diagnostic string
}

// Run executes command and waits up to timeout for it to complete. The child
// process is killed when the timeout elapses; any output captured up to that
// point is dropped, since a timed-out test fails hard regardless of what it
// printed.
func Run(ctx context.Context, command string, timeout time.Duration) Outcome {
	argv, err := shlex.Split(command)
	if err != nil {
		return launchFailure(fmt.Sprintf("tokenize command: %v", err))
	}
	if len(argv) == 0 {
		return launchFailure("empty command")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bounds the wait for output pipes held open by grandchildren after the
	// command itself is gone, so a killed test cannot stall the run.
	cmd.WaitDelay = time.Second

	err = cmd.Run()
	switch {
	case err == nil:
		return Outcome{
			Stdout: strings.TrimSpace(stdout.String()),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return Outcome{ExitCode: failureExitCode, TimedOut: true}
	case errors.Is(err, exec.ErrWaitDelay):
		// The command completed; only its abandoned pipes were cut off.
		return Outcome{
			ExitCode: cmd.ProcessState.ExitCode(),
			Stdout:   strings.TrimSpace(stdout.String()),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Outcome{
				ExitCode: exitErr.ExitCode(),
				Stdout:   strings.TrimSpace(stdout.String()),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return launchFailure(err.Error())
	}
}

// Capture runs a secondary verification command and returns its raw stdout.
// No timeout is enforced: these side-checks are expected to be lightweight.
// A nonzero exit is not an error; the command's output is still returned.
func Capture(ctx context.Context, command string) (string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return "", fmt.Errorf("tokenize command: %w", err)
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), nil
		}
		return "", err
	}
	return stdout.String(), nil
}

func launchFailure(diagnostic string) Outcome {
	return Outcome{
		ExitCode:     failureExitCode,
		LaunchFailed: true,
		Diagnostic:   diagnostic,
	}
}
