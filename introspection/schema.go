package introspection

import (
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/tools"
)

// Oracle step names, also used as schema names.
const (
	StepJournal = "journal"
	StepFacts   = "facts"
	StepConfig  = "config_update"
)

// NoJournalEntry is the sentinel answer meaning "leave today's journal as is".
const NoJournalEntry = "NONE"

// JournalEntry is the structured answer of the journal step: the whole
// rewritten day, or NoJournalEntry.
type JournalEntry struct {
	Content string `json:"content"`
}

// FactExtraction is the structured answer of the fact step.
type FactExtraction struct {
	Facts []string `json:"facts"`
}

// ConfigUpdate is the structured answer of the configuration step.
// A nil or empty field means no change.
type ConfigUpdate struct {
	NewUserMD     *string `json:"new_user_md"`
	NewAgentsMD   *string `json:"new_agents_md"`
	NewIdentityMD *string `json:"new_identity_md"`
	Reason        string  `json:"reason"`
}

func journalSchema() oracle.Schema {
	return oracle.Schema{
		Name:        StepJournal,
		Description: "Today's journal, rewritten in full.",
		JSON: tools.ObjectSchema(map[string]interface{}{
			"content": tools.StringProperty("The complete journal for today in Markdown, or NONE when nothing is worth recording."),
		}, "content"),
	}
}

func factsSchema() oracle.Schema {
	return oracle.Schema{
		Name:        StepFacts,
		Description: "Facts worth keeping in long-term memory.",
		JSON: tools.ObjectSchema(map[string]interface{}{
			"facts": tools.StringArrayProperty("Short, self-contained facts. Empty when there is nothing to keep."),
		}, "facts"),
	}
}

func configSchema() oracle.Schema {
	return oracle.Schema{
		Name:        StepConfig,
		Description: "Rewrites of the configuration documents, if the conversation requires any.",
		JSON: tools.ObjectSchema(map[string]interface{}{
			"new_user_md":     tools.NullableStringProperty("Complete new USER.md, or null for no change."),
			"new_agents_md":   tools.NullableStringProperty("Complete new AGENTS.md, or null for no change."),
			"new_identity_md": tools.NullableStringProperty("Complete new IDENTITY.md, or null for no change."),
			"reason":          tools.StringProperty("Why the documents were or were not changed."),
		}, "new_user_md", "new_agents_md", "new_identity_md", "reason"),
	}
}
