package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/admin"
	"github.com/roach88/ipgate/internal/app"
	"github.com/roach88/ipgate/internal/messages"
)

// failureKeys are the messages that make a one-shot command exit non-zero.
var failureKeys = map[string]bool{
	"usage":         true,
	"invalid-ip":    true,
	"invalid-owner": true,
	"add-fail":      true,
	"remove-fail":   true,
	"remove-none":   true,
	"confirm-fail":  true,
	"reload-fail":   true,
}

// trackingActor remembers the keys of the messages sent to the wrapped actor.
type trackingActor struct {
	actor.Actor
	keys []string
}

func (t *trackingActor) Send(msg messages.Message) {
	t.keys = append(t.keys, msg.Key)
	t.Actor.Send(msg)
}

func (t *trackingActor) failed() (string, bool) {
	for _, k := range t.keys {
		if failureKeys[k] {
			return k, true
		}
	}
	return "", false
}

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Yes bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ip> [owner]",
		Short: "Allow an IPv4 address",
		Long: `Add an IPv4 address to the allowlist, optionally labelled with an owner.

Example:
  ipgate add 192.168.1.5 Alice
  ipgate add 10.0.0.1`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsoleCommand(cmd, rootOpts, append([]string{"add"}, args...), nil)
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <ip|owner>",
		Short: "Remove an address, or every address of an owner",
		Long: `Remove an IPv4 address from the allowlist.

Any argument that is not an IPv4 address is taken as an owner name. Removing
an owner's addresses asks for confirmation: type "confirm" on the next line,
or pass --yes.

Example:
  ipgate remove 192.168.1.5
  ipgate remove Alice --yes`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsoleCommand(cmd, rootOpts, []string{"remove", args[0]}, func(ctx context.Context, a *app.App, console *trackingActor) {
				if !a.Confirm.Pending(console.ID()) {
					return
				}
				if !opts.Yes && !readConfirmation(cmd) {
					return
				}
				a.Dispatcher.Dispatch(ctx, admin.Invocation{Actor: console, Permitted: true, Args: []string{"confirm"}})
			})
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeRemove(cmd, rootOpts, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm owner removal without prompting")

	return cmd
}

// runConsoleCommand dispatches args as the console and maps failure
// messages to ExitFailure. then, if set, runs before the gate closes.
func runConsoleCommand(cmd *cobra.Command, opts *RootOptions, args []string, then func(context.Context, *app.App, *trackingActor)) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := commandContext(cmd)
	console := &trackingActor{Actor: consoleActor(opts, cmd.OutOrStdout())}

	a.Dispatcher.Dispatch(ctx, admin.Invocation{Actor: console, Permitted: true, Args: args})
	if then != nil {
		then(ctx, a, console)
	}

	if key, failed := console.failed(); failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed (%s)", args[0], key))
	}
	return nil
}

// readConfirmation reads one line from stdin and reports whether it is
// "confirm".
func readConfirmation(cmd *cobra.Command) bool {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "confirm")
}

func completeRemove(cmd *cobra.Command, opts *RootOptions, toComplete string) []string {
	a, err := openApp(opts)
	if err != nil {
		return nil
	}
	defer closeApp(a)

	return a.Dispatcher.Complete(commandContext(cmd), admin.Invocation{
		Actor:     consoleActor(opts, cmd.OutOrStdout()),
		Permitted: true,
		Args:      []string{"remove", toComplete},
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
