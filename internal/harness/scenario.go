package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted admin session plus assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single scripted action. Exactly one of Command, Check and
// Advance is set.
type Step struct {
	// Command is an admin command line, e.g. "add 10.0.0.1 Steve".
	Command string `yaml:"command,omitempty"`

	// Actor issues Command. Empty means the console.
	Actor string `yaml:"actor,omitempty"`

	// Permitted defaults to true.
	Permitted *bool `yaml:"permitted,omitempty"`

	// Expect lists the message keys the actor must receive, in order.
	// If nil, messages are recorded but not checked.
	Expect []string `yaml:"expect,omitempty"`

	// Check is an address to run a connection decision for.
	Check string `yaml:"check,omitempty"`

	// Decision is the expected result of Check: "allow" or "deny".
	Decision string `yaml:"decision,omitempty"`

	// Advance is a duration to move the clock by, e.g. "31s".
	Advance string `yaml:"advance,omitempty"`
}

// Kind returns the step type.
func (s Step) Kind() string {
	switch {
	case s.Command != "":
		return StepCommand
	case s.Check != "":
		return StepCheck
	case s.Advance != "":
		return StepAdvance
	}
	return ""
}

// Assertion validates the state after all steps ran.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Address is used by authorized and denied.
	Address string `yaml:"address,omitempty"`

	// Count is used by record_count.
	Count int `yaml:"count,omitempty"`

	// Actor and Pending are used by pending.
	Actor   string `yaml:"actor,omitempty"`
	Pending bool   `yaml:"pending,omitempty"`
}

// Assertion type constants.
const (
	AssertAuthorized  = "authorized"
	AssertDenied      = "denied"
	AssertRecordCount = "record_count"
	AssertPending     = "pending"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	set := 0
	for _, v := range []string{s.Command, s.Check, s.Advance} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of command, check, advance is required", index)
	}

	switch s.Kind() {
	case StepCommand:
		if s.Decision != "" {
			return fmt.Errorf("steps[%d]: decision is only valid with check", index)
		}
	case StepCheck:
		if s.Decision != "allow" && s.Decision != "deny" {
			return fmt.Errorf("steps[%d]: decision must be allow or deny, got %q", index, s.Decision)
		}
		if s.Actor != "" || s.Expect != nil || s.Permitted != nil {
			return fmt.Errorf("steps[%d]: actor, expect and permitted are only valid with command", index)
		}
	case StepAdvance:
		d, err := time.ParseDuration(s.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: invalid advance duration: %w", index, err)
		}
		if d <= 0 {
			return fmt.Errorf("steps[%d]: advance must be positive", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertAuthorized, AssertDenied:
		if strings.TrimSpace(a.Address) == "" {
			return fmt.Errorf("assertions[%d]: address is required for %s", index, a.Type)
		}
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertPending:
		// Actor may be empty (the console).
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
