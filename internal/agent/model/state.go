package model

// TextResponse is the user-facing answer produced by the Responder.
// Methodology summarizes the steps taken, in non-technical terms.
type TextResponse struct {
	Message     string `json:"message"`
	Methodology string `json:"methodology,omitempty"`
}

// AgentState is the shared record threaded through one turn of the
// workflow. It is created fresh per turn (seeded with the caller-owned
// message history) and mutated only by merging node deltas.
type AgentState struct {
	Messages []Message
	Intent   string
	Plan     Plan
	Error    *AgentError
	Text     *TextResponse
	Chart    *ChartSpec
}

// Delta is a partial AgentState update returned by a node. Nil fields leave
// the corresponding state key untouched; set fields overwrite it
// (last-writer-wins shallow merge). The zero Delta is a no-op.
type Delta struct {
	Messages []Message
	Intent   *string
	Plan     Plan
	Error    *AgentError
	Text     *TextResponse
	Chart    *ChartSpec
}

// Apply merges the delta into the state.
func (s *AgentState) Apply(d Delta) {
	if d.Messages != nil {
		s.Messages = d.Messages
	}
	if d.Intent != nil {
		s.Intent = *d.Intent
	}
	if d.Plan != nil {
		s.Plan = d.Plan
	}
	if d.Error != nil {
		s.Error = d.Error
	}
	if d.Text != nil {
		s.Text = d.Text
	}
	if d.Chart != nil {
		s.Chart = d.Chart
	}
}

// Keys lists the state keys the delta writes, for progress reporting and
// fan-out conflict detection.
func (d Delta) Keys() []string {
	var keys []string
	if d.Messages != nil {
		keys = append(keys, "messages")
	}
	if d.Intent != nil {
		keys = append(keys, "intent")
	}
	if d.Plan != nil {
		keys = append(keys, "plan")
	}
	if d.Error != nil {
		keys = append(keys, "error")
	}
	if d.Text != nil {
		keys = append(keys, "text")
	}
	if d.Chart != nil {
		keys = append(keys, "chart")
	}
	return keys
}

// IntentDelta is a small helper for deltas carrying an intent string.
func IntentDelta(intent string) *string { return &intent }
