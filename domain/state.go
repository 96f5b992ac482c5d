package domain

// WorkflowState is where a response sits in its workflow.
type WorkflowState struct {
	ID   int
	Name string
}

// SentinelState is the placeholder used when no workflow service is
// configured or no state is found. Downstream consumers filter on
// ID >= 0, so the exact values matter.
func SentinelState() WorkflowState {
	return WorkflowState{ID: -1, Name: ""}
}

// IsSentinel reports whether the state is the no-workflow placeholder.
func (s WorkflowState) IsSentinel() bool {
	return s.ID == -1 && s.Name == ""
}
