package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Artifact types recorded in metadata["type"].
const (
	TypeEpisodic = "episodic_memory"
	TypeSemantic = "semantic_memory"
)

// Metadata keys.
const (
	MetaType      = "type"
	MetaSource    = "source"
	MetaSessionID = "session_id"
	MetaCreatedAt = "created_at"
)

// SourceMemoryFlush marks facts extracted by the introspection cycle.
const SourceMemoryFlush = "memory_flush"

// Artifact is one append-only entry of the artifact store.
type Artifact struct {
	ID        string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// NewArtifact creates an artifact with a fresh UUID unless id is given.
// The metadata map is copied.
func NewArtifact(id, content string, metadata map[string]string) *Artifact {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if _, ok := meta[MetaCreatedAt]; !ok {
		meta[MetaCreatedAt] = now.Format(time.RFC3339)
	}
	return &Artifact{ID: id, Content: content, Metadata: meta, CreatedAt: now}
}

// FactMetadata is the metadata attached to an extracted long-term fact.
func FactMetadata() map[string]string {
	return map[string]string{MetaType: TypeSemantic, MetaSource: SourceMemoryFlush}
}

// EpisodeMetadata is the metadata attached to a verbatim episodic trace.
func EpisodeMetadata(sessionID string) map[string]string {
	meta := map[string]string{MetaType: TypeEpisodic}
	if sessionID != "" {
		meta[MetaSessionID] = sessionID
	}
	return meta
}

// FormatEpisode renders one exchange as an episodic trace record.
func FormatEpisode(input, reply, gist string) string {
	return fmt.Sprintf("User: %s\nAssistant: %s\nGist: %s", input, reply, gist)
}
