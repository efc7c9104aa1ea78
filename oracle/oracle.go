package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of an oracle message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a capability request emitted by the oracle.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry of an oracle conversation.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested capabilities.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool-result messages.
	ToolCallID string
	ToolName   string
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResult builds the message answering a capability request.
func ToolResult(call ToolCall, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: call.ID, ToolName: call.Name}
}

// Tool declares a capability the oracle may request.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Schema declares the shape of a structured response.
type Schema struct {
	Name        string
	Description string
	JSON        map[string]interface{}
}

// Request is a single oracle invocation.
type Request struct {
	// Step names the pipeline stage for logging (e.g. "qualify").
	Step string

	System      string
	Messages    []Message
	Tools       []Tool
	Temperature *float64
	MaxTokens   int64
}

// Response is the oracle's answer to Invoke or Stream.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// WantsTools reports whether the response requested any capability.
func (r *Response) WantsTools() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// StreamFunc receives content fragments in order as the oracle produces them.
type StreamFunc func(chunk string)

// Oracle is the generative-reasoning capability.
type Oracle interface {
	// Invoke returns the full response, including capability requests.
	Invoke(ctx context.Context, req *Request) (*Response, error)

	// Stream forwards each content fragment to fn as it arrives and returns
	// the reassembled response once the oracle finishes.
	Stream(ctx context.Context, req *Request, fn StreamFunc) (*Response, error)

	// Structured asks for a value conforming to schema and decodes it into out.
	Structured(ctx context.Context, req *Request, schema Schema, out interface{}) error
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// ErrEmptyStructured is returned when a backend produced no structured value.
var ErrEmptyStructured = errors.New("oracle returned no structured output")

// DecodeStructured decodes raw JSON produced for a schema, tolerating a
// surrounding markdown code fence.
func DecodeStructured(raw string, out interface{}) error {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return ErrEmptyStructured
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}
