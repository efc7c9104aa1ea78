package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/metrics"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"
	"github.com/becomeliminal/acc-agent/tools"
)

// MaxToolIterations bounds how many times the oracle is re-invoked with
// capability results within one reply.
const MaxToolIterations = 3

// ProgressMarker is streamed between tool-loop iterations.
const ProgressMarker = "\n\n_(Searching memory...)_\n\n"

// StepRespond is the oracle step name of the response agent.
const StepRespond = "respond"

// JournalReader supplies recent journal text for the system prompt.
type JournalReader interface {
	RecentJournal() (string, error)
}

// Engine is the response agent: it answers from the committed state, the
// configuration documents and the short-term history, and may consult
// memory through the search_memory capability.
type Engine struct {
	oracle  oracle.Oracle
	search  *tools.SearchMemory
	cell    *settings.Cell
	journal JournalReader
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures the engine.
type Option func(*Engine)

// WithJournal sets the journal source for the system prompt.
func WithJournal(j JournalReader) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records tool iterations per reply.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a new engine.
func NewEngine(o oracle.Oracle, search *tools.SearchMemory, cell *settings.Cell, opts ...Option) *Engine {
	e := &Engine{
		oracle: o,
		search: search,
		cell:   cell,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Input represents the input to one reply.
type Input struct {
	// UserMessage is the user's message to answer.
	UserMessage string

	// State is the state committed for this turn.
	State *core.CCS

	// History is the short-term window, oldest first.
	History []core.Message
}

// Output represents the result of one reply.
type Output struct {
	// Text is the agent's reply.
	Text string

	// Iterations counts oracle re-invocations with capability results.
	Iterations int

	// ToolCalls records every capability executed, in order.
	ToolCalls []ToolExecution
}

// ToolExecution records one capability call.
type ToolExecution struct {
	Tool       string
	Query      string
	Thought    string
	Result     string
	Error      string
	DurationMs int64
}

type loopState int

const (
	awaitingOracle loopState = iota
	executingCapability
	done
)

// Run produces a reply with blocking oracle calls.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	return e.run(ctx, input, nil)
}

// RunStream produces a reply, forwarding every fragment to fn as it arrives.
// Capability requests are inspected once an iteration's stream completes, and
// ProgressMarker is emitted before each re-invocation.
func (e *Engine) RunStream(ctx context.Context, input *Input, fn oracle.StreamFunc) (*Output, error) {
	if fn == nil {
		fn = func(string) {}
	}
	return e.run(ctx, input, fn)
}

func (e *Engine) run(ctx context.Context, input *Input, fn oracle.StreamFunc) (*Output, error) {
	req := &oracle.Request{
		Step:        StepRespond,
		System:      e.systemPrompt(input.State),
		Messages:    buildMessages(input),
		Tools:       []oracle.Tool{tools.SearchMemoryDefinition()},
		Temperature: oracle.Temperature(0.7),
	}

	out := &Output{}
	state := awaitingOracle
	var resp *oracle.Response

	for state != done {
		switch state {
		case awaitingOracle:
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("respond: %w", err)
			}
			var err error
			if fn != nil {
				resp, err = e.oracle.Stream(ctx, req, fn)
			} else {
				resp, err = e.oracle.Invoke(ctx, req)
			}
			if err != nil {
				return nil, fmt.Errorf("oracle call failed: %w", err)
			}
			switch {
			case !resp.WantsTools():
				state = done
			case out.Iterations >= MaxToolIterations:
				e.logger.Warn("tool iteration cap reached",
					zap.Int("iterations", out.Iterations),
					zap.Int("pending_calls", len(resp.ToolCalls)),
				)
				state = done
			default:
				state = executingCapability
			}

		case executingCapability:
			req.Messages = append(req.Messages, oracle.AssistantMessage(resp.Content, resp.ToolCalls...))
			for _, call := range resp.ToolCalls {
				exec := e.execute(ctx, call)
				out.ToolCalls = append(out.ToolCalls, exec)
				result := exec.Result
				if exec.Error != "" {
					result = "error: " + exec.Error
				}
				req.Messages = append(req.Messages, oracle.ToolResult(call, result))
			}
			out.Iterations++
			if fn != nil {
				fn(ProgressMarker)
			}
			state = awaitingOracle
		}
	}

	out.Text = resp.Content
	e.metrics.ToolIterations(out.Iterations)
	return out, nil
}

// execute runs one capability request. Failures become error results for
// the oracle, never errors of the reply.
func (e *Engine) execute(ctx context.Context, call oracle.ToolCall) ToolExecution {
	start := time.Now()
	exec := ToolExecution{Tool: call.Name}

	if call.Name != tools.SearchMemoryName {
		exec.Error = fmt.Sprintf("unknown tool: %s", call.Name)
		e.logger.Warn("unknown tool requested", zap.String("tool", call.Name))
		return exec
	}

	result, in, err := e.search.Execute(ctx, call.Arguments)
	exec.DurationMs = time.Since(start).Milliseconds()
	exec.Query = in.Query
	exec.Thought = in.Thought
	if err != nil {
		exec.Error = err.Error()
		e.logger.Warn("capability failed", zap.String("tool", call.Name), zap.Error(err))
		return exec
	}
	exec.Result = result

	e.logger.Debug("capability executed",
		zap.String("tool", call.Name),
		zap.String("query", in.Query),
		zap.String("thought", in.Thought),
		zap.Int64("duration_ms", exec.DurationMs),
	)
	return exec
}

func buildMessages(input *Input) []oracle.Message {
	msgs := make([]oracle.Message, 0, len(input.History)+1)
	for _, m := range input.History {
		switch m.Role {
		case core.RoleUser:
			msgs = append(msgs, oracle.UserMessage(m.Content))
		case core.RoleAgent:
			msgs = append(msgs, oracle.AssistantMessage(m.Content))
		}
	}
	return append(msgs, oracle.UserMessage(input.UserMessage))
}
