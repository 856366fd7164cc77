package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ipgate/internal/admin"
)

// ListEntry is one allowlist record in JSON output.
type ListEntry struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Owner     string    `json:"owner,omitempty"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List allowed addresses",
		Long: `List every allowed address in insertion order.

With --format json the full records are printed, including who added each
address and when.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := commandContext(cmd)

	if opts.Format != "json" {
		a.Dispatcher.Dispatch(ctx, admin.Invocation{
			Actor:     consoleActor(opts, cmd.OutOrStdout()),
			Permitted: true,
			Args:      []string{"list"},
		})
		return nil
	}

	records := a.Coordinator.Records(ctx)
	entries := make([]ListEntry, len(records))
	for i, r := range records {
		entries[i] = ListEntry{
			ID:        r.ID,
			Address:   r.Address,
			Owner:     r.Owner,
			AddedBy:   r.AddedBy,
			CreatedAt: r.CreatedAt.UTC(),
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(entries)
}
