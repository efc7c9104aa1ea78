// Package openai implements oracle.Oracle on the OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/becomeliminal/acc-agent/oracle"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "gpt-4o-mini"

func init() {
	oracle.Register("openai", func(cfg oracle.Config) (oracle.Oracle, error) {
		return New(cfg)
	})
}

// Oracle talks to OpenAI.
type Oracle struct {
	client    *sdk.Client
	model     string
	maxTokens int
}

// New creates an OpenAI oracle. Without cfg.APIKey, OPENAI_API_KEY is used.
func New(cfg oracle.Config) (*Oracle, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Oracle{
		client:    sdk.NewClient(key),
		model:     model,
		maxTokens: int(cfg.MaxTokens),
	}, nil
}

// Invoke sends one chat completion request.
func (o *Oracle) Invoke(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(req))
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}
	msg := resp.Choices[0].Message
	out := &oracle.Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, oracle.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// Stream forwards content deltas and reassembles tool calls by index; the
// calls are only complete once the stream reports EOF.
func (o *Oracle) Stream(ctx context.Context, req *oracle.Request, fn oracle.StreamFunc) (*oracle.Response, error) {
	r := o.request(req)
	r.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("OpenAI stream failed: %w", err)
	}
	defer stream.Close()

	out := &oracle.Response{}
	partial := make(map[int]*oracle.ToolCall)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("OpenAI stream failed: %w", err)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				out.Content += choice.Delta.Content
				if fn != nil {
					fn(choice.Delta.Content)
				}
			}
			for i, tc := range choice.Delta.ToolCalls {
				idx := i
				if tc.Index != nil {
					idx = *tc.Index
				}
				call, ok := partial[idx]
				if !ok {
					call = &oracle.ToolCall{}
					partial[idx] = call
				}
				if tc.ID != "" {
					call.ID = tc.ID
				}
				if tc.Function.Name != "" {
					call.Name = tc.Function.Name
				}
				call.Arguments = append(call.Arguments, tc.Function.Arguments...)
			}
		}
	}

	indexes := make([]int, 0, len(partial))
	for idx := range partial {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		out.ToolCalls = append(out.ToolCalls, *partial[idx])
	}
	return out, nil
}

// Structured uses a json_schema response format.
func (o *Oracle) Structured(ctx context.Context, req *oracle.Request, schema oracle.Schema, out interface{}) error {
	raw, err := json.Marshal(schema.JSON)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	r := o.request(&oracle.Request{
		Step:        req.Step,
		System:      req.System,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	r.ResponseFormat = &sdk.ChatCompletionResponseFormat{
		Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      json.RawMessage(raw),
		},
	}
	resp, err := o.client.CreateChatCompletion(ctx, r)
	if err != nil {
		return fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return oracle.ErrEmptyStructured
	}
	return oracle.DecodeStructured(resp.Choices[0].Message.Content, out)
}

func (o *Oracle) request(req *oracle.Request) sdk.ChatCompletionRequest {
	r := sdk.ChatCompletionRequest{
		Model:    o.model,
		Messages: toMessages(req),
	}
	if req.Temperature != nil {
		r.Temperature = float32(*req.Temperature)
	}
	maxTokens := int(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}
	if maxTokens > 0 {
		r.MaxCompletionTokens = maxTokens
	}
	for _, t := range req.Tools {
		r.Tools = append(r.Tools, sdk.Tool{
			Type: sdk.ToolTypeFunction,
			Function: &sdk.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return r
}

func toMessages(req *oracle.Request) []sdk.ChatCompletionMessage {
	out := make([]sdk.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case oracle.RoleAssistant:
			msg := sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleAssistant, Content: m.Content}
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, sdk.ToolCall{
					ID:   call.ID,
					Type: sdk.ToolTypeFunction,
					Function: sdk.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			out = append(out, msg)
		case oracle.RoleTool:
			out = append(out, sdk.ChatCompletionMessage{
				Role:       sdk.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		default:
			out = append(out, sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleUser, Content: m.Content})
		}
	}
	return out
}
