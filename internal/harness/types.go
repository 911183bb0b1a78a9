package harness

import (
	"github.com/roach88/idmgr/internal/ir"
)

// StepEvent records what one step produced.
type StepEvent struct {
	Index  int            `json:"index"`
	Op     string         `json:"op"`
	Value  any            `json:"value,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the name of the scenario that produced this result.
	Scenario string `json:"scenario"`

	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step.
	Trace []StepEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Manifest is the frozen plan. Nil for expect_init_error scenarios.
	Manifest *ir.PlanManifest `json:"manifest,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []StepEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
