package admin

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ipgate/internal/config"
	"github.com/roach88/ipgate/internal/confirm"
	"github.com/roach88/ipgate/internal/store"
	"github.com/roach88/ipgate/internal/testutil"
)

type fixture struct {
	store  *store.Store
	engine *confirm.Engine
	clock  *testutil.ManualClock
	coord  *Coordinator
	disp   *Dispatcher
	holder *config.Holder
}

// plainConfig strips colour tags and the prefix so assertions read cleanly.
func plainConfig() *config.Config {
	cfg := config.Default()
	cfg.Messages = map[string]string{
		"prefix":               "",
		"no-permission":        "no permission",
		"usage":                "usage",
		"invalid-ip":           "invalid ip",
		"invalid-owner":        "invalid owner",
		"add-success":          "added <ip> owner <player>",
		"add-fail":             "<ip> exists",
		"remove-success":       "removed <ip>",
		"remove-fail":          "<ip> not found",
		"remove-none":          "no ips for <player>",
		"remove-confirm":       "remove <count> for <player>?",
		"remove-owner-success": "removed <count> for <player>",
		"confirm-success":      "confirmed",
		"confirm-fail":         "nothing to confirm",
		"reload":               "reloaded",
		"reload-fail":          "reload failed",
		"list-header":          "list:",
		"list-empty":           "empty",
		"list-entry":           "- <entry>",
	}
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testutil.NewManualClock(time.Time{})
	s, err := store.Open(filepath.Join(t.TempDir(), "admin.db"), store.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := confirm.New(confirm.WithClock(clock))
	holder := config.Static(plainConfig())
	coord := NewCoordinator(s, engine, holder, nil, nil)

	return &fixture{
		store:  s,
		engine: engine,
		clock:  clock,
		coord:  coord,
		disp:   NewDispatcher(coord, holder),
		holder: holder,
	}
}
