package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/session"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Watch bool // reload --config on change
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive calculator session",
		Long: `Read expressions line by line and evaluate them in one session.

Each line is typed key by key through the input guard and then evaluated.
A line starting with an operator (other than a leading "-") continues from
the previous result; any other line starts a new expression.

Commands:
  :clear                  clear the buffer
  :history                list this session's history
  :recall <n> input|result append history entry n
  :deg, :rad              set the angle mode
  :precision <n>          set the display precision
  :output <format>        set the result format (general|scientific|fixed)
  :key <name>             press a keypad key (sign, e+, pow, pi, equals, ...)
  :stats                  print operation counters
  :quit                   leave

Examples:
  gcmp repl
  gcmp repl --precision 50
  gcmp repl --config ./gcmp.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the --config file when it changes")

	return cmd
}

// repl is the state of one interactive run.
type repl struct {
	opts    *ReplOptions
	session *session.Session
	out     io.Writer
	errOut  io.Writer
	logger  *zap.Logger
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Watch && opts.ConfigPath == "" {
		return NewExitError(ExitCommandError, "--watch requires --config")
	}

	s, closeFn, err := opts.newSession(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			opts.logger().Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	var updates <-chan config.Config
	if opts.Watch {
		w, err := config.NewWatcher(opts.ConfigPath, opts.logger())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		if err := w.Start(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		defer w.Stop()
		updates = w.Updates()
	}

	r := &repl{
		opts:    opts,
		session: s,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		logger:  opts.logger().With(zap.String("session_id", s.ID())),
	}
	r.logger.Debug("repl started", zap.Int("precision", cfg.Precision), zap.Int("base", cfg.Base))

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case cfg := <-updates:
			if err := opts.applyFlags(&cfg); err != nil {
				r.logger.Warn("ignoring reloaded config", zap.Error(err))
				continue
			}
			r.session.SetConfig(cfg)
			fmt.Fprintf(r.errOut, "config reloaded: precision %d, base %d, %s, %s\n",
				cfg.Precision, cfg.Base, cfg.AngleMode, cfg.OutputFormat)

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to read input", err)
					}
				default:
				}
				return nil
			}
			if quit := r.handleLine(ctx, line); quit {
				return nil
			}
		}
	}
}

// handleLine processes one input line and reports whether to quit.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return r.command(ctx, line)
	}

	if continuesResult(line) && r.session.Buffer() != "" && !session.IsTerminal(r.session.Buffer()) {
		line = " " + line
	} else {
		_ = r.session.Press(session.KeyClear)
	}
	if err := r.session.Type(line); err != nil {
		r.printError(err)
		return false
	}
	r.equals(ctx)
	return false
}

// continuesResult reports whether a line starts with a binary operator and
// so applies to the previous result.
func continuesResult(line string) bool {
	r := []rune(line)
	op, ok := numeric.OperatorSymbol(r[0])
	if !ok || !op.Binary() {
		return false
	}
	if r[0] == '-' {
		return len(r) > 1 && r[1] == ' '
	}
	return true
}

func (r *repl) equals(ctx context.Context) {
	input := strings.TrimSpace(r.session.Buffer())
	value, err := r.session.Equals(ctx)
	r.printResult(newEvalResult(input, value, err))
}

func (r *repl) printResult(res EvalResult) {
	if r.opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: res}
		if res.Error != nil {
			resp.Status = "error"
			resp.Error = res.Error
		}
		_ = (&OutputFormatter{Format: "json", Writer: r.out}).Response(resp)
		return
	}
	fmt.Fprintf(r.out, "= %s\n", res.Result)
	if res.Error != nil {
		fmt.Fprintf(r.errOut, "Error [%s]: %s\n", res.Error.Code, res.Error.Message)
	}
}

func (r *repl) printError(err error) {
	fmt.Fprintf(r.errOut, "Error [%s]: %s\n", errorCode(err), err)
}

func (r *repl) printBuffer() {
	fmt.Fprintf(r.out, "  %s\n", r.session.Buffer())
}

// command runs a colon command and reports whether to quit.
func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]
	r.logger.Debug("command", zap.String("name", name), zap.Strings("args", args))

	switch name {
	case "quit", "q", "exit":
		return true

	case "clear", "c":
		_ = r.session.Press(session.KeyClear)
		r.printBuffer()

	case "history", "h":
		entries, err := r.session.History(ctx)
		if err != nil {
			r.printError(err)
			return false
		}
		if len(entries) == 0 {
			fmt.Fprintln(r.out, "  (no history)")
		}
		for i, e := range entries {
			fmt.Fprintf(r.out, "  [%d] %s = %s\n", i, e.Label(), e.Result)
		}

	case "recall", "r":
		if len(args) != 2 {
			fmt.Fprintln(r.errOut, "usage: :recall <n> input|result")
			return false
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.errOut, "invalid index %q\n", args[0])
			return false
		}
		field, err := history.ParseField(args[1])
		if err != nil {
			r.printError(err)
			return false
		}
		if err := r.session.Recall(ctx, i, field); err != nil {
			r.printError(err)
			return false
		}
		r.printBuffer()

	case "deg", "rad":
		cfg := r.session.Config()
		cfg.AngleMode = config.Degrees
		if name == "rad" {
			cfg.AngleMode = config.Radians
		}
		r.session.SetConfig(cfg)
		fmt.Fprintf(r.out, "  angle mode: %s\n", cfg.AngleMode)

	case "precision", "p":
		if len(args) != 1 {
			fmt.Fprintln(r.errOut, "usage: :precision <n>")
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.errOut, "invalid precision %q\n", args[0])
			return false
		}
		cfg := r.session.Config()
		cfg.Precision = n
		r.session.SetConfig(cfg)
		fmt.Fprintf(r.out, "  precision: %d\n", r.session.Config().Precision)

	case "output", "o":
		if len(args) != 1 {
			fmt.Fprintln(r.errOut, "usage: :output general|scientific|fixed")
			return false
		}
		f, err := config.ParseOutputFormat(args[0])
		if err != nil {
			r.printError(err)
			return false
		}
		cfg := r.session.Config()
		cfg.OutputFormat = f
		r.session.SetConfig(cfg)
		fmt.Fprintf(r.out, "  output format: %s\n", f)

	case "key", "k":
		if len(args) != 1 {
			fmt.Fprintln(r.errOut, "usage: :key <name>")
			return false
		}
		if args[0] == "equals" || args[0] == "=" {
			r.equals(ctx)
			return false
		}
		k, err := session.ParseKey(args[0])
		if err != nil {
			r.printError(err)
			return false
		}
		if err := r.session.Press(k); err != nil {
			r.printError(err)
			return false
		}
		r.printBuffer()

	case "stats":
		if err := r.opts.collector().WriteText(r.out); err != nil {
			r.printError(err)
		}

	case "help", "?":
		fmt.Fprintln(r.out, "  :clear :history :recall <n> input|result :deg :rad :precision <n>")
		fmt.Fprintln(r.out, "  :output <format> :key <name> :stats :quit")

	default:
		fmt.Fprintf(r.errOut, "unknown command :%s (try :help)\n", name)
	}
	return false
}
