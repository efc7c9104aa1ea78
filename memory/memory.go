package memory

import (
	"context"
)

// ArtifactStore is the semantic artifact store.
// Implementations: chromem.Store (persistent or in-memory).
type ArtifactStore interface {
	// Add stores content and returns its id. The write is durable when Add
	// returns; an error means nothing was written.
	Add(ctx context.Context, content string, metadata map[string]string) (string, error)

	// Recall returns up to k contents ordered by similarity to query.
	// An empty store or a backend failure yields an empty result.
	Recall(ctx context.Context, query string, k int) []string

	// Count returns the number of stored artifacts.
	Count() int
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), openai (hosted API), gemini (genai adapter),
// cache (ristretto memo in front of another Embedder).
type Embedder interface {
	// Embed converts a single text to embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}

// EmbedderFunc adapts a plain embedding function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Dimensions is unknown for a bare function.
func (f EmbedderFunc) Dimensions() int {
	return 0
}
