// Package gate decides whether a connecting address may proceed.
package gate

import (
	"context"
	"log/slog"

	"github.com/roach88/ipgate/internal/config"
	"github.com/roach88/ipgate/internal/metrics"
)

// Decision is the outcome of a connection check.
type Decision int

const (
	// Deny rejects the connection. It is the zero value.
	Deny Decision = iota
	// Allow admits the connection.
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Verdict is a Decision plus the rejection reason shown on Deny.
type Verdict struct {
	Decision Decision
	Address  string
	Reason   string
}

// Lookup is the read side of the address store.
type Lookup interface {
	IsAuthorized(ctx context.Context, address string) bool
}

// ConfigSource supplies the live configuration.
type ConfigSource interface {
	Current() *config.Config
}

// Decider answers connection checks. It holds no state of its own and is safe
// for concurrent use.
type Decider struct {
	lookup  Lookup
	config  ConfigSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDecider creates a Decider. logger and m may be nil.
func NewDecider(lookup Lookup, cfg ConfigSource, logger *slog.Logger, m *metrics.Metrics) *Decider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{lookup: lookup, config: cfg, logger: logger, metrics: m}
}

// Decide allows address iff the store authorizes it. Store faults surface as
// "not authorized", so an unreachable store denies.
func (d *Decider) Decide(ctx context.Context, address string) Verdict {
	cfg := d.config.Current()
	if cfg.DebugMode {
		d.logger.Info("checking address", "address", address)
	}

	v := Verdict{Decision: Deny, Address: address}
	if d.lookup.IsAuthorized(ctx, address) {
		v.Decision = Allow
	} else {
		v.Reason = cfg.KickMessage
	}

	d.metrics.Decision(v.Decision.String())
	return v
}
