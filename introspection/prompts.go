package introspection

const journalPrompt = `You are the agent itself, keeping a daily journal of your work with the user.

# Current Time
%s

# Today's Journal So Far
%s

# Latest Exchange
User: %s
Agent: %s

Record the exchange only if it contains an important decision or progress,
something the user explicitly asked you to remember, or a change to the
project or its facts.

If it does, return the complete journal for today: the existing entries,
edited or merged where needed, plus the new entry in this Markdown form:

## HH:MM - [Title]
[Short description]

If nothing is worth recording, return exactly NONE.`

const factsPrompt = `You select what the agent should remember.
Extract long-term facts from the exchange below. They are appended to
MEMORY.md and consulted in future sessions.

# Keep
1. User attributes and self-introductions (name, job, role, hobbies).
2. User preferences (languages, tools, dislikes).
3. Project decisions (technology choices, ports, design direction).
4. Important prohibitions ("never use X").

# Skip
1. Greetings and pleasantries.
2. One-off topics such as the weather.
3. Feedback on the agent's own behavior, which is handled separately.

# Input
- User: %s
- Agent: %s
- Current context: %s

Write each fact as one short sentence.`

const configPrompt = `You manage the agent's configuration documents.
Decide from the latest exchange whether any of them must change.

1. USER.md: the user's profile (name, role, preferences, situation).
2. AGENTS.md: the agent's behavioral rules (tone, constraints, guidelines).
3. IDENTITY.md: who the agent is (name, persona).

# When to change
- The user explicitly asked for a change ("stop being formal", "I became CTO").
- An important fact about the user has certainly changed.
- A new permanent rule was added.

# Current Documents

## USER.md
%s

## AGENTS.md
%s

## IDENTITY.md
%s

# Exchange
User: %s
Agent: %s

Return the complete new content only for documents that must change; use
null for the others.`
