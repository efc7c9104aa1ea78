// Package compressor implements the Cognitive Compressor: the two oracle
// steps that turn recalled artifacts and the new input into the next
// Compressed Cognitive State.
package compressor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/metrics"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"
)

// ErrCommit wraps every failure of the compress and commit step.
var ErrCommit = errors.New("compress and commit")

// Compressor qualifies recalled artifacts and commits the next state.
// Behavioral rules are read from the settings cell on every call.
type Compressor struct {
	oracle  oracle.Oracle
	cell    *settings.Cell
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compressor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records degraded oracle calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compressor) {
		c.metrics = m
	}
}

// New creates a Compressor.
func New(o oracle.Oracle, cell *settings.Cell, opts ...Option) *Compressor {
	c := &Compressor{oracle: o, cell: cell, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("compressor")
	return c
}

// Qualify keeps the artifacts the oracle judges indispensable for this turn.
// Only verbatim members of artifacts survive, in the oracle's order without
// duplicates. An empty input set returns nil without asking the oracle;
// an oracle failure returns nil.
func (c *Compressor) Qualify(ctx context.Context, input string, prev *core.CCS, artifacts []string) []string {
	if len(artifacts) == 0 {
		return nil
	}

	req := &oracle.Request{
		Step:        StepQualify,
		System:      fmt.Sprintf(qualifyPrompt, prev.Render(noneMarker), input, bulletList(artifacts)),
		Temperature: oracle.Temperature(0),
	}
	var out SelectedArtifacts
	if err := c.oracle.Structured(ctx, req, qualifySchema(), &out); err != nil {
		c.logger.Warn("qualify failed, using empty set", zap.Error(err))
		c.metrics.Degraded(StepQualify)
		return nil
	}

	members := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		members[a] = true
	}
	var selected []string
	for _, s := range out.Selected {
		if !members[s] {
			c.logger.Debug("dropping non-verbatim selection", zap.String("selection", s))
			continue
		}
		members[s] = false
		selected = append(selected, s)
	}
	return selected
}

// Commit produces the replacement state. The sticky fields of prev are
// carried over unless input explicitly revises them.
func (c *Compressor) Commit(ctx context.Context, input string, prev *core.CCS, qualified []string, longTerm string) (*core.CCS, error) {
	docs := c.cell.Load()

	artifacts := noneMarker
	if len(qualified) > 0 {
		artifacts = strings.Join(qualified, "\n")
	}
	req := &oracle.Request{
		Step: StepCommit,
		System: fmt.Sprintf(commitPrompt,
			orNone(docs.Agents),
			orNone(longTerm),
			prev.Render("(none: first turn)"),
			artifacts,
			input,
		),
		Temperature: oracle.Temperature(0),
	}

	next := &core.CCS{}
	if err := c.oracle.Structured(ctx, req, stateSchema(), next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	revised := core.HasRevisionSignal(input)
	next = core.EnforceSticky(prev, next, revised)
	c.logger.Debug("committed state",
		zap.Bool("revised", revised),
		zap.String("goal", next.GoalOrientation),
		zap.Int("constraints", len(next.Constraints)),
	)
	return next, nil
}
