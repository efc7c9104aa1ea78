// Package anthropic implements oracle.Oracle on the Claude Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/becomeliminal/acc-agent/oracle"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "claude-sonnet-4-20250514"

func init() {
	oracle.Register("anthropic", func(cfg oracle.Config) (oracle.Oracle, error) {
		return New(cfg)
	})
}

// Oracle talks to Claude.
type Oracle struct {
	client    *sdk.Client
	model     string
	maxTokens int64
}

// New creates a Claude oracle. Without cfg.APIKey the SDK reads
// ANTHROPIC_API_KEY from the environment.
func New(cfg oracle.Config) (*Oracle, error) {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := sdk.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Oracle{client: &client, model: model, maxTokens: maxTokens}, nil
}

// Invoke sends one Messages request.
func (o *Oracle) Invoke(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	resp, err := o.client.Messages.New(ctx, o.params(req))
	if err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}
	return fromMessage(resp), nil
}

// Stream forwards text deltas as they arrive and accumulates the full message
// so tool_use blocks can be inspected once the stream ends.
func (o *Oracle) Stream(ctx context.Context, req *oracle.Request, fn oracle.StreamFunc) (*oracle.Response, error) {
	stream := o.client.Messages.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	message := sdk.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate stream: %w", err)
		}

		switch evt := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case sdk.TextDelta:
				if fn != nil && delta.Text != "" {
					fn(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("claude stream error: %w", err)
	}
	return fromMessage(&message), nil
}

// Structured forces a call to a single tool whose input schema is the
// requested schema, and decodes that tool input.
func (o *Oracle) Structured(ctx context.Context, req *oracle.Request, schema oracle.Schema, out interface{}) error {
	params := o.params(&oracle.Request{
		Step:        req.Step,
		System:      req.System,
		Messages:    ensureUserTurn(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	params.Tools = []sdk.ToolUnionParam{toToolParam(oracle.Tool{
		Name:        schema.Name,
		Description: schema.Description,
		InputSchema: schema.JSON,
	})}
	params.ToolChoice = sdk.ToolChoiceUnionParam{
		OfTool: &sdk.ToolChoiceToolParam{Name: schema.Name},
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return fmt.Errorf("claude API error: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == schema.Name {
			if err := json.Unmarshal(block.Input, out); err != nil {
				return fmt.Errorf("decode %s: %w", schema.Name, err)
			}
			return nil
		}
	}
	return oracle.ErrEmptyStructured
}

func (o *Oracle) params(req *oracle.Request) sdk.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(o.model),
		MaxTokens: maxTokens,
		Messages:  toMessageParams(ensureUserTurn(req.Messages)),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools := make([]sdk.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, toToolParam(t))
		}
		params.Tools = tools
	}
	return params
}

// ensureUserTurn adds a placeholder user turn: the Messages API rejects a
// request whose conversation is empty, which happens for system-only prompts.
func ensureUserTurn(msgs []oracle.Message) []oracle.Message {
	if len(msgs) > 0 {
		return msgs
	}
	return []oracle.Message{oracle.UserMessage("Proceed.")}
}

func toToolParam(t oracle.Tool) sdk.ToolUnionParam {
	schema := sdk.ToolInputSchemaParam{Properties: t.InputSchema["properties"]}
	if required, ok := t.InputSchema["required"].([]string); ok {
		schema.Required = required
	}
	tool := sdk.ToolParam{
		Name:        t.Name,
		InputSchema: schema,
	}
	if t.Description != "" {
		tool.Description = sdk.String(t.Description)
	}
	return sdk.ToolUnionParam{OfTool: &tool}
}

// toMessageParams converts the conversation, folding consecutive tool results
// into one user turn as the Messages API requires.
func toMessageParams(msgs []oracle.Message) []sdk.MessageParam {
	var out []sdk.MessageParam
	var pending []sdk.ContentBlockParamUnion

	flush := func() {
		if len(pending) > 0 {
			out = append(out, sdk.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case oracle.RoleTool:
			pending = append(pending, sdk.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case oracle.RoleAssistant:
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				input := call.Arguments
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, sdk.ContentBlockParamUnion{
					OfToolUse: &sdk.ToolUseBlockParam{ID: call.ID, Name: call.Name, Input: input},
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, sdk.NewTextBlock(" "))
			}
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			flush()
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func fromMessage(resp *sdk.Message) *oracle.Response {
	out := &oracle.Response{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, oracle.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: append(json.RawMessage(nil), block.Input...),
			})
		}
	}
	return out
}
