package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strosek/cyancrown/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted runs",
		Long: `List runs persisted by "run --history-db", newest first.

With --run, prints the per-test results of one run instead.

Examples:
  cyancrown history --db runs.db
  cyancrown history --db runs.db --limit 10
  cyancrown history --db runs.db --run 7c2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show per-test results for one run ID")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening history database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRunResults(opts, formatter, st, cmd)
	}

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  %d passed, %d failed, %d total\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Suite,
			run.Passed, run.Failed, run.Total)
	}
	return nil
}

func showRunResults(opts *HistoryOptions, formatter *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	results, err := st.RunResults(cmd.Context(), opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading run results", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: results})
	}

	if len(results) == 0 {
		fmt.Fprintf(formatter.Writer, "No results for run %s.\n", opts.RunID)
		return nil
	}
	for _, res := range results {
		mark := "✓"
		if !res.Pass {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s (exit %d)\n", mark, res.Name, res.ExitCode)
		if res.Detail != "" {
			fmt.Fprintf(formatter.Writer, "  %s\n", res.Detail)
		}
	}
	return nil
}
