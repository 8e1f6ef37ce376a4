package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/eval"
	"github.com/roach88/gcmp/internal/metrics"
	"github.com/roach88/gcmp/internal/numeric"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Configuration layers. Zero values leave the lower layers alone.
	ConfigPath string
	Precision  int
	Base       int
	Angle      string
	Output     string

	// Logger is built in PersistentPreRunE. Commands constructed directly
	// (as in tests) fall back to a no-op logger.
	Logger *zap.Logger

	// Metrics collects operation counters for the life of the process.
	Metrics *metrics.Collector
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gcmp CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gcmp",
		Short: "gcmp - arbitrary-precision calculator",
		Long: `An arbitrary-precision calculator that evaluates strictly left to right.

Operators have no precedence: "2 + 3 * 4" is 20. Typed input passes through an
input guard that silently drops malformed keystrokes, and every successful
evaluation is appended to a history log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := newLogger(opts.Verbose || config.DebugEnabled())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to build logger", err)
			}
			opts.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	flags.IntVar(&opts.Precision, "precision", 0, "display digits (1-1000)")
	flags.IntVar(&opts.Base, "base", 0, "number base (2-36)")
	flags.StringVar(&opts.Angle, "angle", "", "angle mode (degrees|radians)")
	flags.StringVar(&opts.Output, "output", "", "output format for results (general|scientific|fixed)")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// newLogger builds the production JSON logger, at debug level when asked.
func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *RootOptions) collector() *metrics.Collector {
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	return o.Metrics
}

// Config resolves the effective configuration: defaults, then the config
// file, then the environment, then flags. The result is normalized; a clamp
// is logged as a warning.
func (o *RootOptions) Config() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := o.applyFlags(&cfg); err != nil {
		return config.Config{}, err
	}
	cfg, err = cfg.Normalize()
	if err != nil {
		o.logger().Warn("configuration clamped", zap.Error(err))
	}
	return cfg, nil
}

// applyFlags layers the flag values onto cfg.
func (o *RootOptions) applyFlags(cfg *config.Config) error {
	if o.Precision != 0 {
		cfg.Precision = o.Precision
	}
	if o.Base != 0 {
		cfg.Base = o.Base
	}
	if o.Angle != "" {
		m, err := config.ParseAngleMode(o.Angle)
		if err != nil {
			return fmt.Errorf("--angle: %w", err)
		}
		cfg.AngleMode = m
	}
	if o.Output != "" {
		f, err := config.ParseOutputFormat(o.Output)
		if err != nil {
			return fmt.Errorf("--output: %w", err)
		}
		cfg.OutputFormat = f
	}
	return nil
}

// newEvaluator wires an engine and evaluator to the shared logger and
// metrics collector.
func (o *RootOptions) newEvaluator() *eval.Evaluator {
	logger := o.logger()
	c := o.collector()
	engine := numeric.New(numeric.WithLogger(logger), numeric.WithRecorder(c))
	return eval.New(engine, eval.WithLogger(logger), eval.WithRecorder(c))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
