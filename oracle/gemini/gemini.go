// Package gemini implements oracle.Oracle on the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/becomeliminal/acc-agent/oracle"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "gemini-2.5-flash"

func init() {
	oracle.Register("gemini", func(cfg oracle.Config) (oracle.Oracle, error) {
		return New(cfg)
	})
}

// Oracle talks to Gemini.
type Oracle struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// New creates a Gemini oracle. Without cfg.APIKey, GOOGLE_API_KEY is used.
func New(cfg oracle.Config) (*Oracle, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set for Gemini provider")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Oracle{client: client, model: model, maxTokens: int32(cfg.MaxTokens)}, nil
}

// Invoke sends one GenerateContent request.
func (o *Oracle) Invoke(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, o.config(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	out := &oracle.Response{Content: resp.Text()}
	out.ToolCalls = toolCalls(resp.FunctionCalls())
	return out, nil
}

// Stream forwards text from each streamed chunk; function calls are collected
// across chunks and returned with the final response.
func (o *Oracle) Stream(ctx context.Context, req *oracle.Request, fn oracle.StreamFunc) (*oracle.Response, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}
	out := &oracle.Response{}
	for chunk, err := range o.client.Models.GenerateContentStream(ctx, o.model, contents, o.config(req)) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream failed: %w", err)
		}
		if text := chunk.Text(); text != "" {
			out.Content += text
			if fn != nil {
				fn(text)
			}
		}
		out.ToolCalls = append(out.ToolCalls, toolCalls(chunk.FunctionCalls())...)
	}
	return out, nil
}

// Structured requests a JSON response constrained by the schema.
func (o *Oracle) Structured(ctx context.Context, req *oracle.Request, schema oracle.Schema, out interface{}) error {
	config := o.config(&oracle.Request{System: req.System, Temperature: req.Temperature, MaxTokens: req.MaxTokens})
	config.ResponseMIMEType = "application/json"
	config.ResponseJsonSchema = schema.JSON

	contents, err := toContents(req.Messages)
	if err != nil {
		return err
	}
	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewContentFromText("Proceed.", genai.RoleUser)}
	}
	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, config)
	if err != nil {
		return fmt.Errorf("gemini generate failed: %w", err)
	}
	return oracle.DecodeStructured(resp.Text(), out)
}

func (o *Oracle) config(req *oracle.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}
	maxTokens := int32(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}
	config.MaxOutputTokens = maxTokens
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.InputSchema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// emptyText stands in for blank turns; the API rejects contents without parts.
const emptyText = " "

func toContents(msgs []oracle.Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case oracle.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, call := range m.ToolCalls {
				args := map[string]any{}
				if len(call.Arguments) > 0 {
					if err := json.Unmarshal(call.Arguments, &args); err != nil {
						return nil, fmt.Errorf("decode arguments of %s call %s: %w", call.Name, call.ID, err)
					}
				}
				part := genai.NewPartFromFunctionCall(call.Name, args)
				part.FunctionCall.ID = call.ID
				parts = append(parts, part)
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(emptyText))
			}
			out = append(out, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case oracle.RoleTool:
			part := genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"result": m.Content})
			part.FunctionResponse.ID = m.ToolCallID
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		default:
			text := m.Content
			if text == "" {
				text = emptyText
			}
			out = append(out, genai.NewContentFromText(text, genai.RoleUser))
		}
	}
	return out, nil
}

func toolCalls(calls []*genai.FunctionCall) []oracle.ToolCall {
	var out []oracle.ToolCall
	for i, fc := range calls {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			args = []byte("{}")
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", fc.Name, i)
		}
		out = append(out, oracle.ToolCall{ID: id, Name: fc.Name, Arguments: args})
	}
	return out
}
