package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ipgate/internal/actor"
	"github.com/roach88/ipgate/internal/confirm"
	"github.com/roach88/ipgate/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext gives assertions access to the gate's final state.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Confirm *confirm.Engine
	// Actor resolves an actor name the same way steps do.
	Actor func(name string) *actor.Recorder
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertAuthorized:
		if !actx.Store.IsAuthorized(actx.Ctx, a.Address) {
			return &AssertionError{Type: a.Type, Expected: a.Address + " authorized", Actual: "not in store"}
		}
	case AssertDenied:
		if actx.Store.IsAuthorized(actx.Ctx, a.Address) {
			return &AssertionError{Type: a.Type, Expected: a.Address + " denied", Actual: "in store"}
		}
	case AssertRecordCount:
		if got := actx.Store.Count(actx.Ctx); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d records", a.Count),
				Actual:   fmt.Sprintf("%d records", got),
			}
		}
	case AssertPending:
		r := actx.Actor(a.Actor)
		if got := actx.Confirm.Pending(r.ID()); got != a.Pending {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("pending=%t for %s", a.Pending, r.Name()),
				Actual:   fmt.Sprintf("pending=%t", got),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
