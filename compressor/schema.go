package compressor

import (
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/tools"
)

// Schema names double as the oracle step names in logs and metrics.
const (
	StepQualify = "qualify"
	StepCommit  = "commit"
)

// SelectedArtifacts is the structured answer of the qualify step.
type SelectedArtifacts struct {
	Selected []string `json:"selected"`
}

func qualifySchema() oracle.Schema {
	return oracle.Schema{
		Name:        StepQualify,
		Description: "Select the retrieved artifacts that are indispensable for the current turn.",
		JSON: tools.ObjectSchema(map[string]interface{}{
			"selected": tools.StringArrayProperty("Selected artifacts, copied verbatim from the retrieved list."),
		}, "selected"),
	}
}

func stateSchema() oracle.Schema {
	return oracle.Schema{
		Name:        StepCommit,
		Description: "The new Compressed Cognitive State that replaces the previous one.",
		JSON: tools.ObjectSchema(map[string]interface{}{
			"episodic_trace":      tools.StringProperty("Brief record of the latest observations, user input and tool results."),
			"semantic_gist":       tools.StringProperty("Abstract summary of the current situation or topic."),
			"focal_entities":      tools.StringArrayProperty("Entities currently in focus (ids, names, proper nouns)."),
			"relational_map":      tools.StringArrayProperty("Causal or temporal dependencies between events."),
			"goal_orientation":    tools.StringProperty("Overall goal of the task. Keep it unless the user explicitly changes it."),
			"constraints":         tools.StringArrayProperty("Rules that must never be violated. Keep every existing one unless the user explicitly revokes it."),
			"predictive_cue":      tools.NullableStringProperty("Expected next step, or null."),
			"uncertainty_signal":  tools.StringProperty("What is still unconfirmed, and the risk level."),
			"retrieved_artifacts": tools.StringArrayProperty("Key points of the external information used this turn."),
		},
			"episodic_trace", "semantic_gist", "focal_entities", "relational_map",
			"goal_orientation", "constraints", "predictive_cue", "uncertainty_signal",
			"retrieved_artifacts",
		),
	}
}
