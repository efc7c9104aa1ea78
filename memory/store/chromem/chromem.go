package chromem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/memory"
)

// DefaultCollection is the collection artifacts are stored in.
const DefaultCollection = "acc_artifacts"

// Store wraps a chromem-go collection as a memory.ArtifactStore.
// chromem-go is a pure Go, embedded vector database; the persistent variant
// writes every document to disk as it is added.
type Store struct {
	db     *chromem.DB
	col    *chromem.Collection
	name   string
	logger *zap.Logger
}

var _ memory.ArtifactStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an in-memory store.
func New(embedder memory.Embedder, opts ...Option) (*Store, error) {
	return open(chromem.NewDB(), embedder, opts)
}

// OpenPersistent opens (or creates) a store persisted under path.
func OpenPersistent(path string, embedder memory.Embedder, opts ...Option) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return open(db, embedder, opts)
}

func open(db *chromem.DB, embedder memory.Embedder, opts []Option) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("chromem: embedder is required")
	}
	s := &Store{db: db, name: DefaultCollection, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("chromem")

	col, err := db.GetOrCreateCollection(s.name, nil, embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", s.name, err)
	}
	s.col = col
	return s, nil
}

// Add embeds and stores content. The id is a fresh UUID.
func (s *Store) Add(ctx context.Context, content string, metadata map[string]string) (string, error) {
	a := memory.NewArtifact("", content, metadata)

	doc := chromem.Document{
		ID:       a.ID,
		Content:  a.Content,
		Metadata: a.Metadata,
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	s.logger.Debug("stored artifact",
		zap.String("id", a.ID),
		zap.String("type", a.Metadata[memory.MetaType]),
	)
	return a.ID, nil
}

// Recall returns up to k contents ordered by similarity to query.
// chromem-go rejects nResults above the collection size, so k is clamped.
// Backend errors are logged and yield an empty result.
func (s *Store) Recall(ctx context.Context, query string, k int) []string {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	count := s.col.Count()
	if count == 0 {
		return nil
	}
	if k > count {
		k = count
	}

	results, err := s.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		s.logger.Warn("recall failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out
}

// Count returns the number of stored artifacts.
func (s *Store) Count() int {
	return s.col.Count()
}
