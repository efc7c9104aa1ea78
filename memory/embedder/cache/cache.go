// Package cache memoizes embeddings in front of another embedder.
// Recall queries are re-embedded on every turn, and the same texts recur.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/becomeliminal/acc-agent/memory"
)

// DefaultMaxEntries bounds the number of cached vectors.
const DefaultMaxEntries = 10_000

// Embedder caches vectors by text. Each entry costs one unit.
type Embedder struct {
	next  memory.Embedder
	cache *ristretto.Cache
}

var _ memory.Embedder = (*Embedder)(nil)

// New wraps next with a cache of at most maxEntries vectors.
// maxEntries <= 0 uses DefaultMaxEntries.
func New(next memory.Embedder, maxEntries int64) (*Embedder, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{next: next, cache: c}, nil
}

// Embed returns the cached vector for text, computing it on a miss.
// Errors are not cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v.([]float32), nil
	}
	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, 1)
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// Wait blocks until pending cache writes are visible.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close stops the cache's background goroutines.
func (e *Embedder) Close() {
	e.cache.Close()
}
