package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strosek/cyancrown/internal/suite"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	InputFile string
}

// ValidationSummary is the data payload for validate output.
type ValidationSummary struct {
	Valid bool   `json:"valid"`
	Suite string `json:"suite"`
	Tests int    `json:"tests,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a suite file without executing it",
		Long: `Validate a suite file against the schema without running any commands.

Checks document shape, rule names and value shapes, timeout expressions,
and that every verification pattern compiles.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input-file", "i", "", "suite file to validate (required)")
	_ = cmd.MarkFlagRequired("input-file")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := suite.Load(opts.InputFile)
	if err != nil {
		if opts.Format == "json" {
			if jsonErr := formatter.JSON(CLIResponse{
				Status: "error",
				Data:   ValidationSummary{Valid: false, Suite: opts.InputFile, Error: err.Error()},
				Error:  &CLIError{Code: "E_SUITE_INVALID", Message: err.Error()},
			}); jsonErr != nil {
				return jsonErr
			}
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n  %v\n", opts.InputFile, err)
		}
		return WrapExitError(ExitFailure, "suite is invalid", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{
			Status: "ok",
			Data:   ValidationSummary{Valid: true, Suite: s.Source, Tests: len(s.Tests)},
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s (%d tests)\n", s.Source, len(s.Tests))
	return nil
}
