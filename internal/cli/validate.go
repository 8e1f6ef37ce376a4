package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gcmp/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Config   *config.Config `json:"config,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a config file",
		Long: `Validate a YAML config file against the config schema.

Unknown keys and values outside the allowed enumerations are errors.
Precision and base outside their ranges are accepted but reported as
warnings, showing the clamped value that would be used. Environment
variables and flags are not applied.

Example:
  gcmp validate ./gcmp.yaml
  gcmp validate ./gcmp.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}

	formatter.VerboseLog("Validating %s (%d bytes)", path, len(data))

	cfg, err := config.Parse(data)
	if err != nil {
		if opts.Format == "json" {
			_ = formatter.Response(CLIResponse{
				Status: "error",
				Data:   ValidationResult{Valid: false},
				Error:  &CLIError{Code: ErrCodeConfig, Message: err.Error()},
			})
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n  %v\n", path, err)
		}
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	result := ValidationResult{Valid: true}
	normalized, clampErr := cfg.Normalize()
	result.Config = &normalized
	if clampErr != nil {
		result.Warnings = clampWarnings(clampErr)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s\n", path)
	fmt.Fprintf(w, "  precision: %d\n", normalized.Precision)
	fmt.Fprintf(w, "  base: %d\n", normalized.Base)
	fmt.Fprintf(w, "  angle_mode: %s\n", normalized.AngleMode)
	fmt.Fprintf(w, "  output_format: %s\n", normalized.OutputFormat)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	return nil
}

// clampWarnings flattens a joined clamp error into one message per field.
func clampWarnings(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
