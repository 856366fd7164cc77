package admin

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/config"
	"github.com/roach88/ipgate/internal/confirm"
	"github.com/roach88/ipgate/internal/messages"
	"github.com/roach88/ipgate/internal/metrics"
	"github.com/roach88/ipgate/internal/store"
)

// Store is the address store as seen by admin operations.
type Store interface {
	Add(ctx context.Context, address, addedBy, owner string) bool
	Remove(ctx context.Context, address string) bool
	RemoveByOwner(ctx context.Context, owner string) int
	ListByOwner(ctx context.Context, owner string) []string
	ListAll(ctx context.Context) []store.Record
}

// Confirmer defers actions until the requesting actor confirms them.
type Confirmer interface {
	Request(a actor.Actor, action confirm.Action, prompt messages.Message)
	Confirm(a actor.Actor) bool
}

// ConfigSource supplies the live configuration.
type ConfigSource interface {
	Current() *config.Config
}

// Coordinator runs admin operations.
type Coordinator struct {
	store   Store
	confirm Confirmer
	config  ConfigSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCoordinator creates a Coordinator. logger and m may be nil.
func NewCoordinator(s Store, c Confirmer, cfg ConfigSource, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: s, confirm: c, config: cfg, logger: logger, metrics: m}
}

// Add authorizes address on behalf of a, optionally labelled with owner.
func (c *Coordinator) Add(ctx context.Context, a actor.Actor, address, owner string) Result {
	owner = NormalizeOwner(owner)
	res := Result{Address: address, Owner: owner}

	if outcome := validateAdd(address, owner); outcome != "" {
		res.Outcome = outcome
		return c.record("add", res)
	}

	if c.store.Add(ctx, address, a.Name(), owner) {
		res.Outcome = Added
		c.logger.Info("address added", "address", address, "owner", owner, "by", a.Name())
	} else {
		res.Outcome = AlreadyExists
	}
	return c.record("add", res)
}

// Remove deletes target. An IPv4 target is removed immediately; anything
// else is treated as an owner name, and removing that owner's addresses
// requires confirmation from a.
func (c *Coordinator) Remove(ctx context.Context, a actor.Actor, target string) Result {
	if IsIPv4(target) {
		res := Result{Address: target, Outcome: NotFound}
		if c.store.Remove(ctx, target) {
			res.Outcome = Removed
			c.logger.Info("address removed", "address", target, "by", a.Name())
		}
		return c.record("remove", res)
	}

	owner := NormalizeOwner(target)
	res := Result{Owner: owner}

	matches := c.store.ListByOwner(ctx, owner)
	if len(matches) == 0 {
		res.Outcome = NoMatch
		return c.record("remove_owner", res)
	}

	res.Outcome = ConfirmationRequested
	res.Count = len(matches)

	// The callback may run after ctx is done; keep its values, drop its
	// cancellation.
	actionCtx := context.WithoutCancel(ctx)
	c.confirm.Request(a, func() {
		n := c.store.RemoveByOwner(actionCtx, owner)
		c.logger.Info("owner addresses removed", "owner", owner, "count", n, "by", a.Name())
		c.metrics.AdminOperation("remove_owner", "executed")
		a.Send(c.catalog().Render("remove-owner-success", "count", strconv.Itoa(n), "player", owner))
	}, c.catalog().Render("remove-confirm", "count", strconv.Itoa(res.Count), "player", owner))

	return c.record("remove_owner", res)
}

// Confirm runs a's pending action, if any.
func (c *Coordinator) Confirm(a actor.Actor) Result {
	res := Result{Outcome: NothingPending}
	if c.confirm.Confirm(a) {
		res.Outcome = Confirmed
	}
	return c.record("confirm", res)
}

// Records returns every record in insertion order.
func (c *Coordinator) Records(ctx context.Context) []store.Record {
	records := c.store.ListAll(ctx)
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// List returns every record formatted as "address" or "address (owner)".
func (c *Coordinator) List(ctx context.Context) []string {
	records := c.Records(ctx)
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return lines
}

func (c *Coordinator) catalog() *messages.Catalog {
	return c.config.Current().Catalog()
}

func (c *Coordinator) record(op string, res Result) Result {
	c.metrics.AdminOperation(op, string(res.Outcome))
	return res
}
