package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Steps: []Step{
			{Command: "add 10.0.0.1", Expect: []string{"add-success"}},
		},
		Assertions: []Assertion{
			{Type: AssertAuthorized, Address: "10.0.0.1"},
			{Type: AssertRecordCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{
		Seq:      1,
		Type:     StepCommand,
		Actor:    "CONSOLE",
		Input:    "add 10.0.0.1",
		Messages: []string{"add-success"},
	}, result.Trace[0])
}

func TestRun_ScenariosAreIsolated(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolated",
		Description: "Each run starts from an empty store",
		Steps: []Step{
			{Command: "add 10.0.0.1", Expect: []string{"add-success"}},
		},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d: %v", i, result.Errors)
	}
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectation",
		Steps: []Step{
			{Command: "confirm", Expect: []string{"confirm-success"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected messages [confirm-success], got [confirm-fail]")
}

func TestRun_DecisionMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "decision",
		Description: "Wrong decision",
		Steps: []Step{
			{Check: "10.0.0.1", Decision: "allow"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected allow, got deny")
	assert.Equal(t, "deny", result.Trace[0].Decision)
}

func TestRun_PermissionDenied(t *testing.T) {
	scenario := &Scenario{
		Name:        "permission",
		Description: "No permission",
		Steps: []Step{
			{Command: "add 10.0.0.1", Actor: "Guest", Permitted: boolPtr(false), Expect: []string{"no-permission"}},
		},
		Assertions: []Assertion{
			{Type: AssertRecordCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "Guest", result.Trace[0].Actor)
}

func TestRun_AdvanceExpiresConfirmation(t *testing.T) {
	scenario := &Scenario{
		Name:        "advance",
		Description: "Advance past the window",
		Steps: []Step{
			{Command: "add 10.0.0.1 Steve"},
			{Command: "remove Steve", Actor: "Admin"},
			{Advance: "45s"},
		},
		Assertions: []Assertion{
			{Type: AssertPending, Actor: "Admin", Pending: false},
			{Type: AssertAuthorized, Address: "10.0.0.1"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, "45s", result.Trace[2].Input)
}
