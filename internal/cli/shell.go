package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/admin"
	"github.com/roach88/ipgate/internal/app"
	"github.com/roach88/ipgate/internal/config"
	"github.com/roach88/ipgate/internal/metrics"
)

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	MetricsAddr string
	Watch       bool
}

const shellHelp = `Commands:
  <admin command>            run as the console (add, remove, confirm, reload, list)
  as <name> <admin command>  run as a named admin
  guest <name> <command>     run as a user without permission
  check <ip>                 run the connection check
  help                       show this help
  quit                       leave the shell`

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run the gate interactively",
		Long: `Run the gate with an interactive admin console.

The shell keeps the gate running, so owner removals can be confirmed and
pending confirmations expire in the background. Commands are read from stdin
one per line.

Example:
  ipgate shell --metrics-addr :9090 --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the configuration when the file changes")

	return cmd
}

func runShell(opts *ShellOptions, cmd *cobra.Command) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp(a)

	// Use command's context if available (for testing), otherwise create one
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Confirm.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("confirmation worker stopped", "error", err)
		}
	}()

	if opts.Watch {
		w, err := config.NewWatcher(a.Config, logger, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		defer w.Close()
	}

	if opts.MetricsAddr != "" {
		srv := serveMetrics(opts.MetricsAddr, a, logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sh := &shell{app: a, opts: opts.RootOptions, out: cmd.OutOrStdout()}
	lines := readLines(cmd.InOrStdin())

	logger.Info("gate ready", "config", a.Config.Path())
	fmt.Fprintln(sh.out, "Gate ready. Type help for commands.")

	for {
		select {
		case <-ctx.Done():
			logger.Info("shell stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := sh.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

func serveMetrics(addr string, a *app.App, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.Registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

// readLines streams r line by line. The channel closes at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

type shell struct {
	app  *app.App
	opts *RootOptions
	out  io.Writer
}

// exec runs one input line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true

	case "help":
		fmt.Fprintln(s.out, shellHelp)

	case "check":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "usage: check <ip>")
			return false
		}
		fmt.Fprintln(s.out, formatVerdict(s.app.Decider.Decide(ctx, fields[1]), &RootOptions{Color: s.opts.Color}))

	case "as", "guest":
		if len(fields) < 3 {
			fmt.Fprintf(s.out, "usage: %s <name> <command>\n", fields[0])
			return false
		}
		named := actor.NewNamed(fields[1], s.out, s.opts.Format, s.opts.Color)
		s.dispatch(ctx, named, strings.EqualFold(fields[0], "as"), fields[2:])

	default:
		s.dispatch(ctx, consoleActor(s.opts, s.out), true, fields)
	}
	return false
}

func (s *shell) dispatch(ctx context.Context, a actor.Actor, permitted bool, args []string) {
	s.app.Dispatcher.Dispatch(ctx, admin.Invocation{Actor: a, Permitted: permitted, Args: args})
}
