package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/compressor"
	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/engine"
	"github.com/becomeliminal/acc-agent/introspection"
	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/metrics"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"
	"github.com/becomeliminal/acc-agent/tools"
)

// DefaultFinalizeTimeout bounds one Finalize task.
const DefaultFinalizeTimeout = 2 * time.Minute

// ErrEmptyInput is returned for a blank user message.
var ErrEmptyInput = errors.New("empty input")

// ErrClosed is returned by turns on a closed session. A turn whose session
// closes after the reply was produced returns the result along with it.
var ErrClosed = errors.New("session closed")

// TurnResult is the reply of one turn and the state it was produced from.
type TurnResult struct {
	Reply  string
	CCS    *core.CCS
	Output *engine.Output
}

// Session runs the turn cycle for one conversation. It owns the committed
// state, the short-term history, a settings cell and the finalize worker.
// Turns in one session are strictly sequential.
type Session struct {
	id string

	memory     *memory.Manager
	cell       *settings.Cell
	compressor *compressor.Compressor
	engine     *engine.Engine
	cycle      *introspection.Cycle
	history    *core.History
	worker     *worker

	finalizeTimeout time.Duration
	logger          *zap.Logger
	metrics         *metrics.Metrics

	turnMu sync.Mutex

	stateMu sync.RWMutex
	state   *core.CCS
}

// Option configures a Session.
type Option func(*options)

type options struct {
	logger          *zap.Logger
	metrics         *metrics.Metrics
	finalizeTimeout time.Duration
	historySize     int
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records turn and finalize outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFinalizeTimeout overrides DefaultFinalizeTimeout.
func WithFinalizeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.finalizeTimeout = d
		}
	}
}

// WithHistorySize overrides core.DefaultHistorySize.
func WithHistorySize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historySize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:          zap.NewNop(),
		finalizeTimeout: DefaultFinalizeTimeout,
		historySize:     core.DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSession loads the settings documents of dir and wires the turn cycle
// for session id.
func NewSession(id string, o oracle.Oracle, mem *memory.Manager, dir *settings.Dir, opts ...Option) (*Session, error) {
	cell, err := settings.NewCell(dir)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return newSession(id, o, mem, cell, dir, buildOptions(opts)), nil
}

func newSession(id string, o oracle.Oracle, mem *memory.Manager, cell *settings.Cell, dir *settings.Dir, opt options) *Session {
	logger := opt.logger.With(zap.String("session_id", id))
	s := &Session{
		id:              id,
		memory:          mem,
		cell:            cell,
		history:         core.NewHistory(opt.historySize),
		finalizeTimeout: opt.finalizeTimeout,
		logger:          logger.Named("controller"),
		metrics:         opt.metrics,
	}
	s.compressor = compressor.New(o, cell,
		compressor.WithLogger(logger), compressor.WithMetrics(opt.metrics))
	s.engine = engine.NewEngine(o, tools.NewSearchMemory(mem), cell,
		engine.WithJournal(mem), engine.WithLogger(logger), engine.WithMetrics(opt.metrics))
	s.cycle = introspection.New(o, mem, dir,
		introspection.WithLogger(logger), introspection.WithMetrics(opt.metrics))
	s.worker = newWorker(func(v interface{}) {
		s.logger.Error("finalize panicked", zap.Any("panic", v))
		s.metrics.Finalize(fmt.Errorf("panic: %v", v))
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Cell returns the session's settings cell.
func (s *Session) Cell() *settings.Cell { return s.cell }

// History returns the short-term history window.
func (s *Session) History() *core.History { return s.history }

// State returns a copy of the latest committed state, or nil before the
// first turn.
func (s *Session) State() *core.CCS {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Clone()
}

func (s *Session) setState(c *core.CCS) {
	s.stateMu.Lock()
	s.state = c
	s.stateMu.Unlock()
}

// Prepare runs Recall, Qualify and Compress & Commit for input and stores
// the new state. It first waits for the previous turn's Finalize so the
// documents and the ledger it reads are complete.
func (s *Session) Prepare(ctx context.Context, input string) (*core.CCS, error) {
	if err := s.worker.wait(ctx); err != nil {
		return nil, err
	}

	prev := s.State()
	query := input + "\nContext: " + prev.Gist()
	raw := s.memory.Recall(ctx, query, s.memory.Config().RecallLimit)
	qualified := s.compressor.Qualify(ctx, input, prev, raw)

	longTerm, err := s.memory.ReadLongTerm()
	if err != nil {
		s.logger.Warn("read long-term memory failed", zap.Error(err))
	}

	next, err := s.compressor.Commit(ctx, input, prev, qualified, longTerm)
	if err != nil {
		return nil, err
	}
	s.setState(next)

	s.logger.Debug("prepared",
		zap.Int("recalled", len(raw)),
		zap.Int("qualified", len(qualified)),
	)
	return next.Clone(), nil
}

// Turn processes one input and returns the reply. Finalize is scheduled
// and not awaited.
func (s *Session) Turn(ctx context.Context, input string) (*TurnResult, error) {
	return s.turn(ctx, input, nil)
}

// TurnStream is Turn with the reply streamed to onChunk. On failure the
// stream receives "[error] <message>" and Finalize is not scheduled.
func (s *Session) TurnStream(ctx context.Context, input string, onChunk oracle.StreamFunc) (*TurnResult, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	res, err := s.turn(ctx, input, onChunk)
	if err != nil {
		onChunk("[error] " + err.Error())
	}
	return res, err
}

func (s *Session) turn(ctx context.Context, input string, onChunk oracle.StreamFunc) (res *TurnResult, err error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if s.worker.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	defer func() { s.metrics.Turn(err, time.Since(start)) }()

	state, err := s.Prepare(ctx, input)
	if err != nil {
		s.logger.Error("prepare failed", zap.Error(err))
		return nil, err
	}

	in := &engine.Input{UserMessage: input, State: state, History: s.history.Messages()}
	var out *engine.Output
	if onChunk != nil {
		out, err = s.engine.RunStream(ctx, in, onChunk)
	} else {
		out, err = s.engine.Run(ctx, in)
	}
	if err != nil {
		s.logger.Error("respond failed", zap.Error(err))
		return nil, err
	}

	res = &TurnResult{Reply: out.Text, CCS: state, Output: out}
	if !s.scheduleFinalize(ctx, input, out.Text, state) {
		// Closed mid-turn: the reply stands but will not be remembered.
		return res, ErrClosed
	}
	return res, nil
}

// scheduleFinalize hands the turn's Finalize to the worker. The task runs
// detached from ctx's cancellation so a dropped client does not abandon it.
func (s *Session) scheduleFinalize(ctx context.Context, input, reply string, state *core.CCS) bool {
	detached := context.WithoutCancel(ctx)
	return s.worker.submit(func() {
		fctx, cancel := context.WithTimeout(detached, s.finalizeTimeout)
		defer cancel()
		s.finalize(fctx, input, reply, state)
	})
}

// finalize runs the introspection cycle, applies rewritten documents to the
// cell and appends the exchange to the history window.
func (s *Session) finalize(ctx context.Context, input, reply string, state *core.CCS) {
	res, err := s.cycle.Run(ctx, introspection.Exchange{
		SessionID: s.id,
		Input:     input,
		Reply:     reply,
		CCS:       state,
	})
	if err != nil {
		s.logger.Error("finalize failed", zap.Error(err))
	}
	s.metrics.Finalize(err)

	if res != nil && len(res.UpdatedDocuments) > 0 {
		if rerr := s.cell.Reload(); rerr != nil {
			s.logger.Warn("reload settings failed", zap.Error(rerr))
		}
	}
	s.history.AppendExchange(input, reply)
}

// Wait blocks until every scheduled Finalize has completed.
func (s *Session) Wait(ctx context.Context) error {
	return s.worker.wait(ctx)
}

// Close drains pending Finalize tasks and stops the worker.
func (s *Session) Close() {
	s.worker.close()
}
