// Package introspection implements the post-reply cycle that journals the
// exchange, extracts durable facts and revises the configuration documents.
package introspection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/metrics"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"
)

// minRewriteLen guards against a document being wiped by a near-empty answer.
const minRewriteLen = 10

// Exchange is one finished turn.
type Exchange struct {
	SessionID string
	Input     string
	Reply     string
	CCS       *core.CCS
}

// Result reports what the cycle changed.
type Result struct {
	// Journal is the text written to today's journal, if any.
	Journal        string
	JournalUpdated bool

	// Facts are the extracted facts appended to the ledger.
	Facts []string

	// UpdatedDocuments names the configuration documents rewritten.
	UpdatedDocuments []string
}

// Cycle runs the introspection steps for a session's exchanges.
type Cycle struct {
	oracle  oracle.Oracle
	memory  *memory.Manager
	dir     *settings.Dir
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Cycle.
type Option func(*Cycle)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cycle) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records degraded steps and rewrites.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cycle) {
		c.metrics = m
	}
}

// New creates a Cycle writing to mem and the documents of dir.
func New(o oracle.Oracle, mem *memory.Manager, dir *settings.Dir, opts ...Option) *Cycle {
	c := &Cycle{oracle: o, memory: mem, dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("introspection")
	return c
}

// rewrite is a pending configuration document write.
type rewrite struct {
	name    string
	content string
}

// Run asks the oracle for the three introspection answers concurrently,
// then commits the side effects in order: journal, facts, episodic trace,
// configuration documents. Every side effect is attempted; the first
// write error is returned together with the partial result.
func (c *Cycle) Run(ctx context.Context, ex Exchange) (*Result, error) {
	durable := c.memory.Durable()
	today := durable.Today()

	current, err := c.dir.Load()
	if err != nil {
		c.logger.Warn("load documents failed", zap.Error(err))
	}
	todayLog, err := durable.ReadDailyLog(today)
	if err != nil {
		c.logger.Warn("read journal failed", zap.Error(err))
	}

	var (
		journal    string
		journalErr error
		facts      []string
		rewrites   []rewrite
	)

	// Steps degrade their own oracle failures; only the cycle's context
	// ending is reported through the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		journal, journalErr = c.journal(gctx, ex, today.Format("15:04"), todayLog)
		return ctx.Err()
	})
	g.Go(func() error {
		facts = c.extractFacts(gctx, ex)
		return ctx.Err()
	})
	g.Go(func() error {
		rewrites = c.reviseConfig(gctx, ex, current)
		return ctx.Err()
	})
	waitErr := g.Wait()

	res := &Result{}
	var errs []error
	record := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	record(waitErr)

	switch {
	case journalErr != nil:
		c.metrics.Degraded(StepJournal)
		c.logger.Warn("journal generation failed, appending raw exchange", zap.Error(journalErr))
		record(durable.AppendDailyLog(fmt.Sprintf("\n[journal generation failed: %v]", journalErr)))
		record(durable.AppendExchange(ex.Input, ex.Reply))
	case journal != "":
		if err := durable.WriteDailyLog(today, journal); err != nil {
			record(err)
		} else {
			res.Journal = journal
			res.JournalUpdated = true
		}
	}

	if len(facts) > 0 {
		record(c.memory.RecordFacts(ctx, facts))
		res.Facts = facts
	}
	record(c.memory.RecordEpisode(ctx, ex.SessionID, ex.Input, ex.Reply, ex.CCS.Gist()))

	for _, rw := range rewrites {
		if err := c.dir.Write(rw.name, rw.content); err != nil {
			record(err)
			continue
		}
		c.metrics.Rewrite(rw.name)
		res.UpdatedDocuments = append(res.UpdatedDocuments, rw.name)
	}

	c.logger.Info("introspection complete",
		zap.Bool("journal_updated", res.JournalUpdated),
		zap.Int("facts", len(res.Facts)),
		zap.Strings("updated_documents", res.UpdatedDocuments),
		zap.Int("errors", len(errs)),
	)
	if len(errs) > 0 {
		return res, fmt.Errorf("introspection: %w", errs[0])
	}
	return res, nil
}

// journal returns the rewritten day, "" for no change, or the oracle error.
func (c *Cycle) journal(ctx context.Context, ex Exchange, clock, todayLog string) (string, error) {
	req := &oracle.Request{
		Step:        StepJournal,
		System:      fmt.Sprintf(journalPrompt, clock, orNone(todayLog), ex.Input, ex.Reply),
		Temperature: oracle.Temperature(0),
	}
	var out JournalEntry
	if err := c.oracle.Structured(ctx, req, journalSchema(), &out); err != nil {
		return "", err
	}
	content := strings.TrimSpace(out.Content)
	if content == "" || content == NoJournalEntry {
		return "", nil
	}
	return out.Content, nil
}

func (c *Cycle) extractFacts(ctx context.Context, ex Exchange) []string {
	req := &oracle.Request{
		Step:        StepFacts,
		System:      fmt.Sprintf(factsPrompt, ex.Input, ex.Reply, orNone(ex.CCS.Gist())),
		Temperature: oracle.Temperature(0),
	}
	var out FactExtraction
	if err := c.oracle.Structured(ctx, req, factsSchema(), &out); err != nil {
		c.metrics.Degraded(StepFacts)
		c.logger.Warn("fact extraction failed", zap.Error(err))
		return nil
	}
	var facts []string
	for _, f := range out.Facts {
		if f = strings.TrimSpace(f); f != "" {
			facts = append(facts, f)
		}
	}
	return facts
}

func (c *Cycle) reviseConfig(ctx context.Context, ex Exchange, current settings.Documents) []rewrite {
	req := &oracle.Request{
		Step: StepConfig,
		System: fmt.Sprintf(configPrompt,
			orNone(current.User), orNone(current.Agents), orNone(current.Identity),
			ex.Input, ex.Reply),
		Temperature: oracle.Temperature(0),
	}
	var out ConfigUpdate
	if err := c.oracle.Structured(ctx, req, configSchema(), &out); err != nil {
		c.metrics.Degraded(StepConfig)
		c.logger.Warn("config revision failed", zap.Error(err))
		return nil
	}

	var rewrites []rewrite
	for _, cand := range []struct {
		name    string
		content *string
		current string
	}{
		{settings.UserFile, out.NewUserMD, current.User},
		{settings.AgentsFile, out.NewAgentsMD, current.Agents},
		{settings.IdentityFile, out.NewIdentityMD, current.Identity},
	} {
		if acceptRewrite(cand.content, cand.current) {
			rewrites = append(rewrites, rewrite{name: cand.name, content: *cand.content})
		}
	}
	if len(rewrites) > 0 {
		c.logger.Info("configuration revised", zap.String("reason", out.Reason))
	}
	return rewrites
}

// acceptRewrite reports whether proposed should replace current: it must be
// supplied, differ after trimming and be longer than minRewriteLen.
func acceptRewrite(proposed *string, current string) bool {
	if proposed == nil || *proposed == "" {
		return false
	}
	if strings.TrimSpace(*proposed) == strings.TrimSpace(current) {
		return false
	}
	return len(*proposed) > minRewriteLen
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
