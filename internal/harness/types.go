package harness

import "github.com/roach88/lifesync/internal/model"

// TraceEvent is one call made to the task service.
type TraceEvent struct {
	Cycle          int    `json:"cycle"`
	Op             string `json:"op"` // "list" or "create"
	Text           string `json:"text,omitempty"`
	IncompleteOnly bool   `json:"incomplete_only,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every task service call in order.
	Trace []TraceEvent `json:"trace"`

	// Reports holds one report per cycle.
	Reports []model.CycleReport `json:"reports"`

	// Tasks is the task list after the last cycle.
	Tasks []model.Task `json:"tasks"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Reports: []model.CycleReport{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
