package confirm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/messages"
	"github.com/roach88/ipgate/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(time.Time{})
	return New(WithClock(clock)), clock
}

func prompt(text string) messages.Message {
	return messages.Message{Key: "remove-confirm", Text: text}
}

func TestRequest_DeliversPrompt(t *testing.T) {
	e, _ := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	e.Request(a, func() {}, prompt("confirm please"))

	require.Len(t, a.Messages(), 1)
	assert.Equal(t, "confirm please", a.Messages()[0].Text)
	assert.True(t, e.Pending(a.ID()))
}

func TestConfirm_RunsActionExactlyOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	var runs int
	e.Request(a, func() { runs++ }, prompt("p"))

	assert.True(t, e.Confirm(a))
	assert.Equal(t, 1, runs)

	assert.False(t, e.Confirm(a), "second confirm must report nothing pending")
	assert.Equal(t, 1, runs)
	assert.False(t, e.Pending(a.ID()))
}

func TestConfirm_NeverRequested(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.False(t, e.Confirm(actor.NewRecorder("Nobody")))
}

func TestConfirm_AfterWindowReturnsFalse(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	var runs int
	e.Request(a, func() { runs++ }, prompt("p"))
	clock.Advance(DefaultWindow)

	// Sweep has not run yet; Confirm must still refuse the aged entry.
	assert.False(t, e.Confirm(a))
	assert.Zero(t, runs)
}

func TestConfirm_JustInsideWindow(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	var runs int
	e.Request(a, func() { runs++ }, prompt("p"))
	clock.Advance(DefaultWindow - time.Millisecond)
	e.Sweep()

	assert.True(t, e.Confirm(a))
	assert.Equal(t, 1, runs)
}

func TestRequest_ReplacesPreviousAction(t *testing.T) {
	e, _ := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	var first, second int
	e.Request(a, func() { first++ }, prompt("one"))
	e.Request(a, func() { second++ }, prompt("two"))

	assert.True(t, e.Confirm(a))
	assert.Zero(t, first, "replaced action must never run")
	assert.Equal(t, 1, second)
	assert.False(t, e.Confirm(a))
}

func TestRequest_ActorsAreIndependent(t *testing.T) {
	e, _ := newTestEngine(t)
	alice := actor.NewRecorder("Alice")
	bob := actor.NewRecorder("Bob")

	var aliceRuns, bobRuns int
	e.Request(alice, func() { aliceRuns++ }, prompt("a"))
	e.Request(bob, func() { bobRuns++ }, prompt("b"))

	assert.True(t, e.Confirm(bob))
	assert.Equal(t, 0, aliceRuns)
	assert.Equal(t, 1, bobRuns)
	assert.True(t, e.Pending(alice.ID()))
}

// Console actors share one identity, so a second console request replaces
// the first console's pending action.
func TestRequest_ConsoleActorsShareSlot(t *testing.T) {
	e, _ := newTestEngine(t)
	c1 := actor.NewRecorder("")
	c2 := actor.NewRecorder("")

	var first, second int
	e.Request(c1, func() { first++ }, prompt("one"))
	e.Request(c2, func() { second++ }, prompt("two"))

	assert.True(t, e.Confirm(c1))
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestSweep_RemovesExpired(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	var runs int
	e.Request(a, func() { runs++ }, prompt("p"))

	clock.Advance(DefaultWindow - time.Second)
	assert.Equal(t, 0, e.Sweep())
	assert.True(t, e.Pending(a.ID()))

	clock.Advance(time.Second)
	assert.Equal(t, 1, e.Sweep())
	assert.False(t, e.Pending(a.ID()))
	assert.False(t, e.Confirm(a))
	assert.Zero(t, runs)
}

// A check scheduled by a replaced request must not expire the fresh entry.
func TestSweep_StaleCheckAfterReplaceIsNoop(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	e.Request(a, func() {}, prompt("one"))
	clock.Advance(20 * time.Second)

	var runs int
	e.Request(a, func() { runs++ }, prompt("two"))
	clock.Advance(10 * time.Second)

	// First check is due; the live entry is only 10s old.
	assert.Equal(t, 0, e.Sweep())
	assert.True(t, e.Pending(a.ID()))

	assert.True(t, e.Confirm(a))
	assert.Equal(t, 1, runs)
}

func TestSweep_StaleCheckAfterConfirmIsNoop(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	e.Request(a, func() {}, prompt("p"))
	require.True(t, e.Confirm(a))

	clock.Advance(DefaultWindow)
	assert.Equal(t, 0, e.Sweep())
}

func TestWithWindow(t *testing.T) {
	clock := testutil.NewManualClock(time.Time{})
	e := New(WithClock(clock), WithWindow(5*time.Second))
	a := actor.NewRecorder("Alice")

	assert.Equal(t, 5*time.Second, e.Window())

	e.Request(a, func() {}, prompt("p"))
	clock.Advance(5 * time.Second)
	assert.False(t, e.Confirm(a))
}

func TestRun_ExpiresInBackground(t *testing.T) {
	e, clock := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	var runs atomic.Int32
	e.Request(a, func() { runs.Add(1) }, prompt("p"))

	clock.Advance(DefaultWindow)
	require.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		_, ok := e.pending[a.ID()]
		return !ok
	}, time.Second, 5*time.Millisecond)

	assert.False(t, e.Confirm(a))
	assert.Zero(t, runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestConcurrentRequestConfirm(t *testing.T) {
	e, _ := newTestEngine(t)
	a := actor.NewRecorder("Alice")

	const n = 50
	var executed atomic.Int32
	var confirmed atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.Request(a, func() { executed.Add(1) }, prompt("p"))
		}()
		go func() {
			defer wg.Done()
			if e.Confirm(a) {
				confirmed.Add(1)
			}
		}()
	}
	wg.Wait()

	if e.Confirm(a) {
		confirmed.Add(1)
	}
	assert.Equal(t, confirmed.Load(), executed.Load(), "every successful confirm runs exactly one action")
}
