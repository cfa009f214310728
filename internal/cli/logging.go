package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// DefaultLogFileName returns the timestamped run-log file name used when
// --log-file is set to "auto".
func DefaultLogFileName(now time.Time) string {
	return now.Format("run_log_060102_15.04.05.log")
}

// newRunLogger builds the logger injected into the runner: a text handler
// over errW, optionally teed into a log file held open for the lifetime of
// the run. The returned closer flushes and closes the file; callers must
// invoke it at process end.
func newRunLogger(errW io.Writer, logFile string, verbose bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	w := errW
	closer := func() error { return nil }
	if logFile != "" {
		if logFile == "auto" {
			logFile = DefaultLogFileName(time.Now())
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(errW, f)
		closer = f.Close
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}
