package memory

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Manager bundles the two memory tiers a session writes to: the semantic
// artifact store and the per-user durable store.
//
// Reads go straight to the tier that owns the data. Writes are attempted on
// every target even when one fails; the first error is returned.
type Manager struct {
	artifacts ArtifactStore
	durable   *DurableStore
	config    *Config
	logger    *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConfig overrides DefaultConfig.
func WithConfig(cfg *Config) ManagerOption {
	return func(m *Manager) {
		if cfg != nil {
			m.config = cfg
		}
	}
}

// NewManager creates a Manager over the given stores.
func NewManager(artifacts ArtifactStore, durable *DurableStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		artifacts: artifacts,
		durable:   durable,
		config:    DefaultConfig,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("memory")
	return m
}

// Artifacts returns the semantic artifact store.
func (m *Manager) Artifacts() ArtifactStore {
	return m.artifacts
}

// Durable returns the durable store.
func (m *Manager) Durable() *DurableStore {
	return m.durable
}

// Config returns the active configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// Recall returns up to k artifacts similar to query. k <= 0 uses
// Config.RecallLimit.
func (m *Manager) Recall(ctx context.Context, query string, k int) []string {
	if k <= 0 {
		k = m.config.RecallLimit
	}
	results := m.artifacts.Recall(ctx, query, k)
	m.logger.Debug("recall",
		zap.String("query", truncateLog(query, 50)),
		zap.Int("k", k),
		zap.Int("results", len(results)),
	)
	return results
}

// ReadLongTerm returns the fact ledger.
func (m *Manager) ReadLongTerm() (string, error) {
	return m.durable.ReadLongTerm()
}

// RecentJournal returns the last Config.JournalDays days of journal text.
func (m *Manager) RecentJournal() (string, error) {
	return m.durable.ReadRecentDailyLogs(m.config.JournalDays)
}

// RecordFacts appends facts to the ledger and stores each one as a
// semantic artifact.
func (m *Manager) RecordFacts(ctx context.Context, facts []string) error {
	if len(facts) == 0 {
		return nil
	}

	var errs []error
	if err := m.durable.AppendFacts(facts); err != nil {
		errs = append(errs, fmt.Errorf("append facts: %w", err))
	}
	for i, fact := range facts {
		if _, err := m.artifacts.Add(ctx, fact, FactMetadata()); err != nil {
			m.logger.Warn("store fact failed", zap.Int("index", i), zap.Error(err))
			errs = append(errs, fmt.Errorf("store fact: %w", err))
		}
	}

	m.logger.Info("recorded facts", zap.Int("count", len(facts)))
	return firstError(errs)
}

// RecordEpisode stores one exchange as an episodic artifact.
func (m *Manager) RecordEpisode(ctx context.Context, sessionID, input, reply, gist string) error {
	content := FormatEpisode(input, reply, gist)
	id, err := m.artifacts.Add(ctx, content, EpisodeMetadata(sessionID))
	if err != nil {
		return fmt.Errorf("store episode: %w", err)
	}
	m.logger.Debug("recorded episode", zap.String("id", id), zap.String("session_id", sessionID))
	return nil
}

func firstError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// truncateLog truncates text to maxLen runes for logging.
func truncateLog(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

// Config holds Manager configuration.
type Config struct {
	// RecallLimit is the default number of artifacts returned by Recall.
	// Default: 3
	RecallLimit int

	// JournalDays is how many days of journal the response prompt sees.
	// Default: 2 (yesterday and today)
	JournalDays int
}

// DefaultConfig returns the defaults used by the turn cycle.
var DefaultConfig = &Config{
	RecallLimit: 3,
	JournalDays: 2,
}
