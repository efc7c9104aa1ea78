package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// CCS is the Compressed Cognitive State: the only state carried from one turn
// to the next in place of the raw transcript.
//
// GoalOrientation and Constraints are sticky. Every other field is replaced
// wholesale on each commit, so a CCS is a snapshot and never an accumulator.
type CCS struct {
	// EpisodicTrace records what happened most recently.
	EpisodicTrace string `json:"episodic_trace"`

	// SemanticGist is the running summary of the conversation.
	SemanticGist string `json:"semantic_gist"`

	// FocalEntities lists the entities currently in focus.
	FocalEntities []string `json:"focal_entities"`

	// RelationalMap lists causal and temporal links between events.
	RelationalMap []string `json:"relational_map"`

	// GoalOrientation is the overall goal of the task (sticky).
	GoalOrientation string `json:"goal_orientation"`

	// Constraints are rules that must never be violated (sticky, union-only).
	Constraints []string `json:"constraints"`

	// PredictiveCue is the expected next step, if any.
	PredictiveCue *string `json:"predictive_cue,omitempty"`

	// UncertaintySignal names what is still unconfirmed.
	UncertaintySignal string `json:"uncertainty_signal"`

	// RetrievedArtifacts holds references to the external information used.
	RetrievedArtifacts []string `json:"retrieved_artifacts"`
}

// ErrNilState is returned when a nil CCS is committed.
var ErrNilState = errors.New("nil cognitive state")

// Validate reports whether the state can be committed.
func (c *CCS) Validate() error {
	if c == nil {
		return ErrNilState
	}
	return nil
}

// Clone returns a deep copy of the state. Clone of nil is nil.
func (c *CCS) Clone() *CCS {
	if c == nil {
		return nil
	}
	out := *c
	out.FocalEntities = cloneStrings(c.FocalEntities)
	out.RelationalMap = cloneStrings(c.RelationalMap)
	out.Constraints = cloneStrings(c.Constraints)
	out.RetrievedArtifacts = cloneStrings(c.RetrievedArtifacts)
	if c.PredictiveCue != nil {
		cue := *c.PredictiveCue
		out.PredictiveCue = &cue
	}
	return &out
}

// Gist returns the semantic gist, or "" for a nil state.
func (c *CCS) Gist() string {
	if c == nil {
		return ""
	}
	return c.SemanticGist
}

// Render formats the state as indented JSON for prompt injection.
// A nil state renders as the given placeholder.
func (c *CCS) Render(placeholder string) string {
	if c == nil {
		return placeholder
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return placeholder
	}
	return string(b)
}

// EnforceSticky carries the sticky fields of prev into next when the input
// that produced next carried no explicit revision signal.
//
// Constraints become the union of next and prev (next order first, then the
// missing previous entries in their previous order). A non-empty previous
// goal always wins; the oracle only sets the goal when none existed. next is
// modified in place and returned.
func EnforceSticky(prev, next *CCS, revised bool) *CCS {
	if prev == nil || next == nil || revised {
		return next
	}
	if strings.TrimSpace(prev.GoalOrientation) != "" {
		next.GoalOrientation = prev.GoalOrientation
	}
	next.Constraints = unionStrings(next.Constraints, prev.Constraints)
	return next
}

func unionStrings(first, second []string) []string {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, list := range [][]string{first, second} {
		for _, s := range list {
			key := strings.TrimSpace(s)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
