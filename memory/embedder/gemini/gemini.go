// Package gemini embeds text with the Gemini embeddings endpoint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-004"

// text-embedding-004 vector size.
const dimensions = 768

// Embedder wraps Models.EmbedContent as a single-text embedding call.
type Embedder struct {
	client *genai.Client
	model  string
}

// New creates an embedder. An empty apiKey falls back to GOOGLE_API_KEY.
func New(ctx context.Context, apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set for Gemini embeddings")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Embedder{client: client, model: model}, nil
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("GenAI embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// Dimensions returns the vector size of the default model.
func (e *Embedder) Dimensions() int {
	return dimensions
}
