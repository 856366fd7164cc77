package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/app"
	"github.com/roach88/ipgate/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Path  string `json:"path"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file against the schema without starting the gate.

Checks YAML syntax, unknown keys and value types. Defaults to the file the
gate would load.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(rootOpts)
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Validating %s", path)

	if _, err := config.Load(path); err != nil {
		if outErr := formatter.Error(ErrCodeInvalidConfig, "configuration is invalid", err.Error()); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "configuration is invalid", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Path: path})
	}
	return formatter.Success("✓ " + path + " is valid")
}

// configPath resolves the configuration file the gate would load.
func configPath(opts *RootOptions) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	return filepath.Join(opts.DataDir, app.ConfigFile)
}
