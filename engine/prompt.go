package engine

import (
	"strings"

	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/core"
)

// DefaultSystemPrompt frames the state-only context of the response agent.
const DefaultSystemPrompt = `You are an AI assistant.
Your only context is the Compressed Cognitive State below, the recent journal
and the last few messages. There is no raw history beyond them; the state is
everything you know about the conversation.

If the state lacks information you need, call search_memory before answering.
Always honor the constraints listed in the state.`

// systemPrompt assembles identity, disposition, rules, user profile,
// journal and state, in that order. Documents are read at call time so
// rewrites applied by the previous Finalize are visible.
func (e *Engine) systemPrompt(state *core.CCS) string {
	docs := e.cell.Load()

	var sections []string
	add := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sections = append(sections, "# "+title+"\n"+strings.TrimSpace(body))
	}

	add("Identity", docs.Identity)
	add("Disposition", docs.Soul)
	add("Behavioral Rules", docs.Agents)
	add("User Profile", docs.User)
	sections = append(sections, DefaultSystemPrompt)

	if e.journal != nil {
		journal, err := e.journal.RecentJournal()
		if err != nil {
			e.logger.Warn("read journal failed", zap.Error(err))
		}
		add("Recent Journal", journal)
	}

	sections = append(sections, "# Current Cognitive State\n"+state.Render("(none)"))
	return strings.Join(sections, "\n\n")
}
