package admin

import (
	"context"
	"sort"
	"strings"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/messages"
)

// Subcommands lists the commands understood by Dispatch.
var Subcommands = []string{"add", "remove", "list", "reload", "confirm"}

// Invocation is one admin command line.
type Invocation struct {
	Actor actor.Actor
	// Permitted is the caller's permission state; the command is refused
	// when false.
	Permitted bool
	// Args are the positional arguments, subcommand first.
	Args []string
}

// Reloader reloads configuration.
type Reloader interface {
	Reload() error
}

// Dispatcher routes command lines to the Coordinator and reports every
// outcome to the invoking actor.
type Dispatcher struct {
	coord    *Coordinator
	reloader Reloader
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(coord *Coordinator, reloader Reloader) *Dispatcher {
	return &Dispatcher{coord: coord, reloader: reloader}
}

// Dispatch executes inv and reports whether it was handled. Every command
// line is handled, including malformed ones, which receive the usage message.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) bool {
	a := inv.Actor
	catalog := d.coord.catalog()
	send := func(key string, placeholders ...string) {
		a.Send(catalog.Render(key, placeholders...))
	}

	if !inv.Permitted {
		send("no-permission")
		return true
	}
	if len(inv.Args) == 0 {
		send("usage")
		return true
	}

	switch strings.ToLower(inv.Args[0]) {
	case "add":
		if len(inv.Args) < 2 {
			send("usage")
			return true
		}
		owner := ""
		if len(inv.Args) > 2 {
			owner = inv.Args[2]
		}
		d.report(a, catalog, d.coord.Add(ctx, a, inv.Args[1], owner))

	case "remove":
		if len(inv.Args) < 2 {
			send("usage")
			return true
		}
		d.report(a, catalog, d.coord.Remove(ctx, a, inv.Args[1]))

	case "confirm":
		d.report(a, catalog, d.coord.Confirm(a))

	case "reload":
		if err := d.reloader.Reload(); err != nil {
			send("reload-fail")
			return true
		}
		// Acknowledge with the freshly loaded templates.
		a.Send(d.coord.catalog().Render("reload"))

	case "list":
		lines := d.coord.List(ctx)
		if len(lines) == 0 {
			send("list-empty")
			return true
		}
		send("list-header")
		for _, line := range lines {
			a.Send(catalog.Line("list-entry", "entry", line))
		}

	default:
		send("usage")
	}
	return true
}

// report renders res for a.
func (d *Dispatcher) report(a actor.Actor, catalog *messages.Catalog, res Result) {
	switch res.Outcome {
	case Added:
		owner := res.Owner
		if owner == "" {
			owner = "None"
		}
		a.Send(catalog.Render("add-success", "ip", res.Address, "player", owner))
	case AlreadyExists:
		a.Send(catalog.Render("add-fail", "ip", res.Address))
	case InvalidAddress:
		a.Send(catalog.Render("invalid-ip"))
	case InvalidOwner:
		a.Send(catalog.Render("invalid-owner"))
	case Removed:
		a.Send(catalog.Render("remove-success", "ip", res.Address))
	case NotFound:
		a.Send(catalog.Render("remove-fail", "ip", res.Address))
	case NoMatch:
		a.Send(catalog.Render("remove-none", "player", res.Owner))
	case ConfirmationRequested:
		// The confirmation engine already delivered the prompt.
	case Confirmed:
		a.Send(catalog.Render("confirm-success"))
	case NothingPending:
		a.Send(catalog.Render("confirm-fail"))
	}
}

// Complete suggests the next argument for a partially typed command line.
// The last element of inv.Args is the prefix being completed.
func (d *Dispatcher) Complete(ctx context.Context, inv Invocation) []string {
	if !inv.Permitted || len(inv.Args) == 0 {
		return nil
	}

	switch len(inv.Args) {
	case 1:
		return withPrefix(Subcommands, strings.ToLower(inv.Args[0]))
	case 2:
		if !strings.EqualFold(inv.Args[0], "remove") {
			return nil
		}
		seen := map[string]bool{}
		var candidates []string
		for _, r := range d.coord.Records(ctx) {
			for _, c := range []string{r.Address, r.Owner} {
				if c != "" && !seen[strings.ToLower(c)] {
					seen[strings.ToLower(c)] = true
					candidates = append(candidates, c)
				}
			}
		}
		sort.Strings(candidates)
		return withPrefix(candidates, inv.Args[1])
	}
	return nil
}

func withPrefix(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(prefix)) {
			out = append(out, c)
		}
	}
	return out
}
