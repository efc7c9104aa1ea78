// Package openai embeds text with the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	sdk "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = sdk.SmallEmbedding3

// text-embedding-3-small vector size.
const dimensions = 1536

// Embedder calls the hosted embeddings endpoint.
type Embedder struct {
	client *sdk.Client
	model  sdk.EmbeddingModel
}

// Option configures an Embedder.
type Option func(*sdk.ClientConfig, *Embedder)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(_ *sdk.ClientConfig, e *Embedder) {
		if model != "" {
			e.model = sdk.EmbeddingModel(model)
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *sdk.ClientConfig, _ *Embedder) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// New creates an embedder. An empty apiKey falls back to OPENAI_API_KEY.
func New(apiKey string, opts ...Option) (*Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	cfg := sdk.DefaultConfig(apiKey)
	e := &Embedder{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg, e)
	}
	e.client = sdk.NewClientWithConfig(cfg)
	return e, nil
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, sdk.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embed: no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the vector size of the default model.
func (e *Embedder) Dimensions() int {
	return dimensions
}
