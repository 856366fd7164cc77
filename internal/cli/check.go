package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/gate"
	"github.com/roach88/ipgate/internal/messages"
)

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Address  string `json:"address"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <ip>",
		Short: "Decide whether a connection from an address is allowed",
		Long: `Run the connection check for an address.

Exit codes:
  0 - ALLOW
  1 - DENY
  2 - Command error (database unavailable, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, address string, cmd *cobra.Command) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	v := a.Decider.Decide(commandContext(cmd), address)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if err := formatter.Success(formatVerdict(v, opts)); err != nil {
		return err
	}
	if v.Decision == gate.Deny {
		return NewExitError(ExitFailure, fmt.Sprintf("%s denied", address))
	}
	return nil
}

// formatVerdict returns the JSON payload, or a text line, for v.
func formatVerdict(v gate.Verdict, opts *RootOptions) any {
	if opts.Format == "json" {
		return CheckResult{
			Address:  v.Address,
			Decision: v.Decision.String(),
			Reason:   messages.Format(v.Reason, false),
		}
	}
	line := strings.ToUpper(v.Decision.String()) + " " + v.Address
	if v.Reason != "" {
		line += ": " + messages.Format(v.Reason, opts.Color)
	}
	return line
}
