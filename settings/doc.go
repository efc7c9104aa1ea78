// Package settings loads and rewrites the agent's configuration documents.
//
// Four Markdown documents shape every prompt:
//   - IDENTITY.md: who the agent is (per user)
//   - SOUL.md: disposition and tone (per user)
//   - USER.md: what the agent knows about the user (per user)
//   - AGENTS.md: behavioral rules (shared by all users)
//
// Per-user documents live in <root>/<user>/, shared ones in <root>/common/.
// A Cell holds the current snapshot; readers always go through it, so a
// rewrite by the introspection cycle or an edit on disk becomes visible to
// the next turn after Reload.
package settings
