package harness

// Step types recorded in the transcript.
const (
	StepCommand = "command"
	StepCheck   = "check"
	StepAdvance = "advance"
)

// TraceEvent is one executed step.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Type  string `json:"type"`
	Actor string `json:"actor,omitempty"`
	Input string `json:"input"`
	// Messages are the keys of the messages the actor received.
	Messages []string `json:"messages,omitempty"`
	Decision string   `json:"decision,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends ev with the next sequence number.
func (r *Result) addEvent(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
