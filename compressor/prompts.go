package compressor

import (
	"fmt"
	"strings"
)

const qualifyPrompt = `You are the reviewer of recalled information.
From the retrieved artifacts below, select only those that are indispensable
for deciding or answering correctly in the current context. Exclude anything
weakly related or already inferable from the current state or the input.

# Previous State
%s

# Current Input
%s

# Retrieved Artifacts
%s

Return the selected artifacts exactly as written above. Return an empty list
when none qualify.`

const commitPrompt = `You are the cognitive manager of the agent.
Do not keep the conversation history. Update only the state needed for
decisions.

# Behavioral Rules
%s

# Existing Long-term Memory
%s

Do not duplicate into the state what long-term memory already holds.

# Previous State
%s

# Qualified Artifacts
%s

# Current Input
%s

# Instructions
Merge the input, the previous state and the qualified artifacts into a new
Compressed Cognitive State.
1. Constraints and the goal persist until the user explicitly changes or
   completes them.
2. Drop unimportant details and rewrite every other field with the latest facts.
3. episodic_trace briefly describes what just happened.
4. semantic_gist summarizes the overall flow.
5. retrieved_artifacts records the key points of the external information used.`

const noneMarker = "(none)"

func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s", item)
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noneMarker
	}
	return s
}
