package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/admin"
	"github.com/roach88/ipgate/internal/app"
	"github.com/roach88/ipgate/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	app    *app.App
	clock  *testutil.ManualClock
	actors map[string]*actor.Recorder
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh data directory that is removed afterwards.
//
// Execution flow:
// 1. Create a data directory with the default configuration
// 2. Execute steps, checking expected messages and decisions
// 3. Evaluate assertions against the final state
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "ipgate-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	defer os.RemoveAll(dir)

	clock := testutil.NewManualClock(testutil.Epoch)
	a, err := app.New(app.Options{
		DataDir: dir,
		Clock:   clock,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start gate: %w", err)
	}
	defer a.Close()

	h := &Harness{
		app:    a,
		clock:  clock,
		actors: make(map[string]*actor.Recorder),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	for _, errMsg := range EvaluateAssertions(scenario.Assertions, &AssertionContext{
		Ctx:     ctx,
		Store:   a.Store,
		Confirm: a.Confirm,
		Actor:   h.actor,
	}) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Kind() {
	case StepCommand:
		h.executeCommand(ctx, index, step, result)

	case StepCheck:
		v := h.app.Decider.Decide(ctx, step.Check)
		result.addEvent(TraceEvent{Type: StepCheck, Input: step.Check, Decision: v.Decision.String()})
		if got := v.Decision.String(); got != step.Decision {
			result.AddError(fmt.Sprintf("step %d: check %s: expected %s, got %s", index, step.Check, step.Decision, got))
		}

	case StepAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("step %d: %w", index, err)
		}
		h.clock.Advance(d)
		h.app.Confirm.Sweep()
		result.addEvent(TraceEvent{Type: StepAdvance, Input: d.String()})

	default:
		return fmt.Errorf("step %d: no command, check or advance", index)
	}
	return nil
}

func (h *Harness) executeCommand(ctx context.Context, index int, step Step, result *Result) {
	a := h.actor(step.Actor)
	permitted := step.Permitted == nil || *step.Permitted

	a.Drain()
	h.app.Dispatcher.Dispatch(ctx, admin.Invocation{
		Actor:     a,
		Permitted: permitted,
		Args:      strings.Fields(step.Command),
	})

	var keys []string
	for _, m := range a.Drain() {
		keys = append(keys, m.Key)
	}

	result.addEvent(TraceEvent{
		Type:     StepCommand,
		Actor:    a.Name(),
		Input:    step.Command,
		Messages: keys,
	})

	if step.Expect != nil && !slices.Equal(keys, step.Expect) {
		result.AddError(fmt.Sprintf("step %d: %q as %s: expected messages %v, got %v",
			index, step.Command, a.Name(), step.Expect, keys))
	}
}

// actor returns the recorder for name, creating it on first use. All
// console names share one recorder.
func (h *Harness) actor(name string) *actor.Recorder {
	r := actor.NewRecorder(name)
	key := r.ID().String()
	if existing, ok := h.actors[key]; ok {
		return existing
	}
	h.actors[key] = r
	return r
}
