package model

// StepStatus tracks the lifecycle of a plan step. A step never regresses.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// StepToolResult records one tool invocation made while executing a step.
type StepToolResult struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result string         `json:"result"`
}

// PlanStep is one decomposed sub-goal. Result holds either the model's
// direct text or a []StepToolResult collected from requested tool calls.
type PlanStep struct {
	Action string     `json:"action"`
	Status StepStatus `json:"status"`
	Result any        `json:"result,omitempty"`
}

// Plan is an ordered sequence of steps; the first pending step is the next
// to execute.
type Plan []PlanStep

// NextPending returns the index of the first pending step, or -1.
func (p Plan) NextPending() int {
	for i := range p {
		if p[i].Status == StepPending {
			return i
		}
	}
	return -1
}

// Completed reports whether every step has finished.
func (p Plan) Completed() bool {
	for i := range p {
		if p[i].Status != StepCompleted && p[i].Status != StepFailed {
			return false
		}
	}
	return len(p) > 0
}

// WithStep returns a copy of the plan with the step at index replaced.
// The original plan is never mutated; nodes return the updated copy in
// their state delta.
func (p Plan) WithStep(index int, step PlanStep) Plan {
	next := make(Plan, len(p))
	copy(next, p)
	if index >= 0 && index < len(next) {
		next[index] = step
	}
	return next
}
