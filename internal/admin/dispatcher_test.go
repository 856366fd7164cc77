package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/config"
)

func dispatch(f *fixture, a actor.Actor, args ...string) bool {
	return f.disp.Dispatch(context.Background(), Invocation{Actor: a, Permitted: true, Args: args})
}

func texts(r *actor.Recorder) []string {
	var out []string
	for _, m := range r.Drain() {
		out = append(out, m.Text)
	}
	return out
}

func TestDispatch_NoPermission(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("Mallory")

	handled := f.disp.Dispatch(context.Background(), Invocation{Actor: a, Args: []string{"add", "10.0.0.1"}})

	assert.True(t, handled)
	assert.Equal(t, []string{"no permission"}, texts(a))
	assert.Zero(t, f.store.Count(context.Background()))
}

func TestDispatch_Usage(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("")

	for _, args := range [][]string{nil, {"add"}, {"remove"}, {"frobnicate"}} {
		assert.True(t, dispatch(f, a, args...))
		assert.Equal(t, []string{"usage"}, texts(a), "args %v", args)
	}
}

func TestDispatch_SubcommandCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("")

	dispatch(f, a, "ADD", "10.0.0.1")
	assert.Equal(t, []string{"added 10.0.0.1 owner None"}, texts(a))
}

func TestDispatch_AddMessages(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("")

	dispatch(f, a, "add", "10.0.0.1", "Alice")
	dispatch(f, a, "add", "10.0.0.1")
	dispatch(f, a, "add", "10.0.0.01")
	dispatch(f, a, "add", "10.0.0.2", "<b>")

	assert.Equal(t, []string{
		"added 10.0.0.1 owner Alice",
		"10.0.0.1 exists",
		"invalid ip",
		"invalid owner",
	}, texts(a))
}

// End-to-end flow: add, list, remove by owner, confirm.
func TestDispatch_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actor.NewRecorder("")

	dispatch(f, a, "add", "192.168.1.5", "Alice")
	dispatch(f, a, "list")
	assert.Equal(t, []string{
		"added 192.168.1.5 owner Alice",
		"list:",
		"- 192.168.1.5 (Alice)",
	}, texts(a))

	dispatch(f, a, "add", "999.1.1.1")
	assert.Equal(t, []string{"invalid ip"}, texts(a))
	assert.Equal(t, 1, f.store.Count(ctx))

	dispatch(f, a, "remove", "alice")
	assert.Equal(t, []string{"remove 1 for alice?"}, texts(a))
	assert.True(t, f.store.IsAuthorized(ctx, "192.168.1.5"))

	dispatch(f, a, "confirm")
	assert.Equal(t, []string{"removed 1 for alice", "confirmed"}, texts(a))
	assert.False(t, f.store.IsAuthorized(ctx, "192.168.1.5"))

	dispatch(f, a, "confirm")
	assert.Equal(t, []string{"nothing to confirm"}, texts(a))

	dispatch(f, a, "list")
	assert.Equal(t, []string{"empty"}, texts(a))
}

func TestDispatch_RemoveMessages(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("")
	dispatch(f, a, "add", "10.0.0.1")
	a.Drain()

	dispatch(f, a, "remove", "10.0.0.1")
	dispatch(f, a, "remove", "10.0.0.1")
	dispatch(f, a, "remove", "nobody")

	assert.Equal(t, []string{
		"removed 10.0.0.1",
		"10.0.0.1 not found",
		"no ips for nobody",
	}, texts(a))
}

func TestDispatch_ConfirmIsPerActor(t *testing.T) {
	f := newFixture(t)
	admin := actor.NewRecorder("Admin")
	other := actor.NewRecorder("Other")
	dispatch(f, admin, "add", "10.0.0.1", "Steve")
	dispatch(f, admin, "remove", "Steve")

	dispatch(f, other, "confirm")
	assert.Equal(t, []string{"nothing to confirm"}, texts(other))
	assert.True(t, f.store.IsAuthorized(context.Background(), "10.0.0.1"))
}

func TestDispatch_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	holder, err := config.NewHolder(path, nil)
	require.NoError(t, err)

	f := newFixture(t)
	coord := NewCoordinator(f.store, f.engine, holder, nil, nil)
	disp := NewDispatcher(coord, holder)
	a := actor.NewRecorder("")
	call := func() {
		disp.Dispatch(context.Background(), Invocation{Actor: a, Permitted: true, Args: []string{"reload"}})
	}

	require.NoError(t, os.WriteFile(path, []byte("messages:\n  prefix: \"\"\n  reload: fresh\n"), 0o644))
	call()
	assert.Equal(t, []string{"fresh"}, texts(a))

	require.NoError(t, os.WriteFile(path, []byte("messages: [\n"), 0o644))
	call()
	assert.Equal(t, []string{holder.Current().Messages["reload-fail"]}, texts(a))
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	a := actor.NewRecorder("")
	dispatch(f, a, "add", "10.0.0.1", "Steve")
	dispatch(f, a, "add", "10.0.0.2", "steve")
	dispatch(f, a, "add", "192.168.1.5", "Alice")

	complete := func(permitted bool, args ...string) []string {
		return f.disp.Complete(context.Background(), Invocation{Actor: a, Permitted: permitted, Args: args})
	}

	assert.Equal(t, []string{"remove", "reload"}, complete(true, "re"))
	assert.Equal(t, Subcommands, complete(true, ""))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, complete(true, "remove", "10."))
	assert.Equal(t, []string{"Steve"}, complete(true, "remove", "st"))
	assert.Equal(t, []string{"Alice"}, complete(true, "REMOVE", "a"))
	assert.Nil(t, complete(true, "add", "1"))
	assert.Nil(t, complete(false, "re"))
}
