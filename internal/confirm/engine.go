package confirm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/messages"
	"github.com/roach88/ipgate/internal/metrics"
)

// DefaultWindow is how long a pending action stays confirmable.
const DefaultWindow = 30 * time.Second

// Action is a deferred operation run on confirmation.
type Action func()

type entry struct {
	action    Action
	createdAt time.Time
}

type check struct {
	actorID uuid.UUID
	due     time.Time
}

// Engine holds at most one pending action per actor.
type Engine struct {
	clock   Clock
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending map[uuid.UUID]entry
	checks  []check // FIFO; due times are non-decreasing

	wake chan struct{} // buffered, size 1
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records engine transitions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine. Call Run on exactly one goroutine to expire
// entries in the background.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:   SystemClock{},
		window:  DefaultWindow,
		logger:  slog.Default(),
		pending: make(map[uuid.UUID]entry),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the confirmation window.
func (e *Engine) Window() time.Duration {
	return e.window
}

// Request stores action as a's pending action, replacing any previous one,
// and delivers prompt to a.
func (e *Engine) Request(a actor.Actor, action Action, prompt messages.Message) {
	id := a.ID()
	now := e.clock.Now()

	e.mu.Lock()
	_, replaced := e.pending[id]
	e.pending[id] = entry{action: action, createdAt: now}
	e.checks = append(e.checks, check{actorID: id, due: now.Add(e.window)})
	n := len(e.pending)
	e.mu.Unlock()

	e.signal()

	result := "requested"
	if replaced {
		result = "replaced"
		e.logger.Debug("pending confirmation replaced", "actor", a.Name())
	}
	e.metrics.Confirmation(result, n)

	a.Send(prompt)
}

// Confirm runs a's pending action and reports whether there was one.
//
// The entry is removed before the action runs, so the action runs at most
// once. An entry older than the window is dropped and false is returned even
// if the expiry worker has not reached it yet.
func (e *Engine) Confirm(a actor.Actor) bool {
	id := a.ID()
	now := e.clock.Now()

	e.mu.Lock()
	ent, ok := e.pending[id]
	if ok {
		delete(e.pending, id)
	}
	n := len(e.pending)
	e.mu.Unlock()

	if !ok {
		e.metrics.Confirmation("absent", n)
		return false
	}
	if now.Sub(ent.createdAt) >= e.window {
		e.metrics.Confirmation("expired", n)
		return false
	}

	e.metrics.Confirmation("confirmed", n)
	ent.action()
	return true
}

// Pending reports whether id has a live pending action.
func (e *Engine) Pending(id uuid.UUID) bool {
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.pending[id]
	return ok && now.Sub(ent.createdAt) < e.window
}

// Sweep processes every expiry check that is due and returns the number of
// entries it removed.
func (e *Engine) Sweep() int {
	now := e.clock.Now()

	e.mu.Lock()
	expired := 0
	for len(e.checks) > 0 && !e.checks[0].due.After(now) {
		c := e.checks[0]
		e.checks[0] = check{}
		e.checks = e.checks[1:]

		ent, ok := e.pending[c.actorID]
		if ok && now.Sub(ent.createdAt) >= e.window {
			delete(e.pending, c.actorID)
			expired++
		}
	}
	if len(e.checks) == 0 {
		e.checks = nil
	}
	n := len(e.pending)
	e.mu.Unlock()

	for i := 0; i < expired; i++ {
		e.metrics.Confirmation("expired", n)
	}
	if expired > 0 {
		e.logger.Debug("pending confirmations expired", "count", expired)
	}
	return expired
}

// Run is the expiry worker. It blocks until ctx is cancelled, sweeping
// whenever the oldest scheduled check comes due.
//
// Must be called from exactly one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("confirmation expiry worker starting")

	for {
		var timer <-chan time.Time

		e.mu.Lock()
		if len(e.checks) > 0 {
			wait := e.checks[0].due.Sub(e.clock.Now())
			if wait <= 0 {
				e.mu.Unlock()
				e.Sweep()
				continue
			}
			timer = e.clock.After(wait)
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			e.logger.Debug("confirmation expiry worker stopped")
			return ctx.Err()
		case <-e.wake:
		case <-timer:
			e.Sweep()
		}
	}
}

// signal wakes the worker (non-blocking - buffer of 1 coalesces multiple signals).
func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
