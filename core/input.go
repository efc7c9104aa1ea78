package core

// BaseInput provides common fields for all capability inputs.
// Capabilities embed this struct so the oracle can state why it is calling them.
type BaseInput struct {
	// Thought contains the agent's reasoning about why it's using this capability.
	// Optional; it is logged but never changes the result.
	Thought string `json:"thought,omitempty"`
}

// SearchMemoryInput is the input of the search_memory capability.
type SearchMemoryInput struct {
	BaseInput
	Query string `json:"query"`
}
