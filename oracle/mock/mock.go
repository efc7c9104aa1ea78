// Package mock provides a scripted oracle for tests.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/becomeliminal/acc-agent/oracle"
)

// Reply is one scripted Invoke/Stream result.
type Reply struct {
	// Content is the full text. When Chunks is set, Content is ignored and
	// the chunks are streamed in order.
	Content   string
	Chunks    []string
	ToolCalls []oracle.ToolCall
	Err       error
}

// StructuredFunc produces the value for a structured request.
type StructuredFunc func(req *oracle.Request) (interface{}, error)

// Oracle replays scripted replies. Invoke and Stream consume the queue in
// order; when the queue is empty, the fallback reply (if any) repeats.
// Oracle is safe for concurrent use.
type Oracle struct {
	mu         sync.Mutex
	queue      []Reply
	fallback   *Reply
	structured map[string]StructuredFunc
	requests   []*oracle.Request
	calls      map[string]int
}

// New creates an empty scripted oracle.
func New() *Oracle {
	return &Oracle{
		structured: make(map[string]StructuredFunc),
		calls:      make(map[string]int),
	}
}

// Enqueue appends replies for Invoke/Stream.
func (o *Oracle) Enqueue(replies ...Reply) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, replies...)
	return o
}

// Always sets the reply used once the queue is drained.
func (o *Oracle) Always(r Reply) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallback = &r
	return o
}

// OnStructured registers the handler for a schema name.
func (o *Oracle) OnStructured(schema string, fn StructuredFunc) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.structured[schema] = fn
	return o
}

// Requests returns every request seen by Invoke and Stream.
func (o *Oracle) Requests() []*oracle.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*oracle.Request, len(o.requests))
	copy(out, o.requests)
	return out
}

// Calls returns how many times a schema (or "invoke"/"stream") was requested.
func (o *Oracle) Calls(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[name]
}

func (o *Oracle) next(kind string, req *oracle.Request) (Reply, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[kind]++
	o.requests = append(o.requests, snapshot(req))
	if len(o.queue) > 0 {
		r := o.queue[0]
		o.queue = o.queue[1:]
		return r, nil
	}
	if o.fallback != nil {
		return *o.fallback, nil
	}
	return Reply{}, errors.New("mock oracle: no scripted reply")
}

// Invoke returns the next scripted reply.
func (o *Oracle) Invoke(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	r, err := o.next("invoke", req)
	if err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	content := r.Content
	for _, c := range r.Chunks {
		content += c
	}
	return &oracle.Response{Content: content, ToolCalls: r.ToolCalls}, nil
}

// Stream emits the next scripted reply chunk by chunk.
func (o *Oracle) Stream(ctx context.Context, req *oracle.Request, fn oracle.StreamFunc) (*oracle.Response, error) {
	r, err := o.next("stream", req)
	if err != nil {
		return nil, err
	}
	chunks := r.Chunks
	if len(chunks) == 0 && r.Content != "" {
		chunks = []string{r.Content}
	}
	var content string
	for _, c := range chunks {
		if fn != nil {
			fn(c)
		}
		content += c
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &oracle.Response{Content: content, ToolCalls: r.ToolCalls}, nil
}

// Structured runs the handler registered for schema.Name and round-trips its
// value through JSON into out.
func (o *Oracle) Structured(ctx context.Context, req *oracle.Request, schema oracle.Schema, out interface{}) error {
	o.mu.Lock()
	fn, ok := o.structured[schema.Name]
	o.calls[schema.Name]++
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("mock oracle: no handler for schema %q", schema.Name)
	}
	v, err := fn(req)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// CallSearch builds a search_memory capability request.
func CallSearch(id, query string) oracle.ToolCall {
	args, _ := json.Marshal(map[string]string{"query": query})
	return oracle.ToolCall{ID: id, Name: "search_memory", Arguments: args}
}

func snapshot(req *oracle.Request) *oracle.Request {
	cp := *req
	cp.Messages = append([]oracle.Message(nil), req.Messages...)
	return &cp
}
