package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/app"
	"github.com/roach88/ipgate/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Color   bool

	DataDir    string
	ConfigPath string // defaults to <data-dir>/config.yml
	Database   string // overrides the configured database

	// Logger is installed by PersistentPreRunE.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ipgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ipgate",
		Short: "ipgate - IP allowlist gate",
		Long: `An IP allowlist access gate.

Connections are allowed only from addresses in the allowlist. Admins manage
the list with add, remove and list; removing every address of an owner must
be confirmed within 30 seconds.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", false, "colour console messages")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", defaultDataDir(), "directory holding config.yml and the database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config.yml (default <data-dir>/config.yml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides the config)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger logs to w at Info, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ipgate")
	}
	return "."
}

// openApp starts the gate for a single command. Storage failures map to
// ExitCommandError.
func openApp(opts *RootOptions) (*app.App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a, err := app.New(app.Options{
		DataDir:    opts.DataDir,
		ConfigPath: opts.ConfigPath,
		Database:   opts.Database,
		Logger:     logger,
	})
	if err != nil {
		if errors.Is(err, store.ErrStorageUnavailable) {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to start", err)
	}
	return a, nil
}

// closeApp closes a, logging rather than returning the error.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// consoleActor writes messages for the console to w.
func consoleActor(opts *RootOptions, w io.Writer) *actor.Writer {
	return actor.NewConsole(w, opts.Format, opts.Color)
}
