package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strosek/cyancrown/internal/runner"
	"github.com/strosek/cyancrown/internal/store"
	"github.com/strosek/cyancrown/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	InputFile string
	LogFile   string
	HistoryDB string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a test suite",
		Long: `Execute every test in a suite file sequentially.

Each test runs its command, waits up to the configured timeout, and checks
its verification rules against the captured output and exit code.

Exit codes:
  0 - All tests passed
  N - N tests failed
  2 - Command error (missing or invalid suite file, unreadable database)

Examples:
  cyancrown run -i tests.yaml
  cyancrown run -i tests.yaml --log-file auto
  cyancrown run -i tests.yaml --history-db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input-file", "i", "", "suite file to execute (required)")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", `tee run logs into a file ("auto" for a timestamped name)`)
	cmd.Flags().StringVar(&opts.HistoryDB, "history-db", "", "persist run results into this SQLite database")
	_ = cmd.MarkFlagRequired("input-file")

	return cmd
}

func runSuite(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logger, closeLog, err := newRunLogger(cmd.ErrOrStderr(), opts.LogFile, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "setting up logging", err)
	}
	defer closeLog()

	// Configuration errors are fatal before any test runs.
	s, err := suite.Load(opts.InputFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading suite", err)
	}
	formatter.VerboseLog("Loaded %d test(s) from %s", len(s.Tests), s.Source)

	runnerOpts := []runner.Option{}
	if opts.HistoryDB != "" {
		st, err := store.Open(opts.HistoryDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening history database", err)
		}
		defer st.Close()
		runnerOpts = append(runnerOpts, runner.WithHistory(st))
	}

	r := runner.New(logger, runnerOpts...)
	report, runErr := r.Run(cmd.Context(), s)
	if runErr != nil {
		// Verdicts are already computed; a history write failure must not
		// change the pass/fail exit contract.
		logger.Error("run completed with error", "error", runErr)
	}

	if opts.Format == "json" {
		if err := outputRunJSON(formatter, report); err != nil {
			return err
		}
	} else {
		outputRunText(formatter, report)
	}

	if failed := report.Tally.Failed; failed > 0 {
		return NewExitError(failed, fmt.Sprintf("%d test(s) failed", failed))
	}
	return nil
}

// outputRunText prints one line per test plus a summary.
func outputRunText(f *OutputFormatter, report *runner.Report) {
	w := f.Writer
	for _, res := range report.Results {
		if res.Pass {
			fmt.Fprintf(w, "✓ %s\n", res.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", res.Name)
		if res.TimedOut {
			fmt.Fprintln(w, "  timed out")
		}
		if res.LaunchError != "" {
			fmt.Fprintf(w, "  %s\n", res.LaunchError)
		}
		for _, msg := range res.Failures {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n",
		report.Tally.Passed, report.Tally.Failed, report.Tally.Total)
}

// outputRunJSON emits the full report in the standard response envelope.
func outputRunJSON(f *OutputFormatter, report *runner.Report) error {
	response := CLIResponse{Status: "ok", Data: report}
	if report.Tally.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TESTS_FAILED",
			Message: fmt.Sprintf("%d test(s) failed", report.Tally.Failed),
		}
	}
	return f.JSON(response)
}
