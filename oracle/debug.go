package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// WithDebugLogging wraps o so that every prompt and response is logged at
// debug level under the request's Step name.
func WithDebugLogging(o Oracle, logger *zap.Logger) Oracle {
	return &debugOracle{next: o, logger: logger.Named("oracle")}
}

type debugOracle struct {
	next   Oracle
	logger *zap.Logger
}

func (d *debugOracle) Invoke(ctx context.Context, req *Request) (*Response, error) {
	resp, err := d.next.Invoke(ctx, req)
	d.log(req, resp, err)
	return resp, err
}

func (d *debugOracle) Stream(ctx context.Context, req *Request, fn StreamFunc) (*Response, error) {
	resp, err := d.next.Stream(ctx, req, fn)
	d.log(req, resp, err)
	return resp, err
}

func (d *debugOracle) Structured(ctx context.Context, req *Request, schema Schema, out interface{}) error {
	err := d.next.Structured(ctx, req, schema, out)
	var rendered string
	if err == nil {
		if b, mErr := json.MarshalIndent(out, "", "  "); mErr == nil {
			rendered = string(b)
		}
	}
	d.logger.Debug("oracle interaction",
		zap.String("step", req.Step),
		zap.String("schema", schema.Name),
		zap.String("prompt", renderPrompt(req)),
		zap.String("response", rendered),
		zap.Error(err))
	return err
}

func (d *debugOracle) log(req *Request, resp *Response, err error) {
	fields := []zap.Field{
		zap.String("step", req.Step),
		zap.String("prompt", renderPrompt(req)),
		zap.Error(err),
	}
	if resp != nil {
		fields = append(fields, zap.String("response", resp.Content), zap.Int("tool_calls", len(resp.ToolCalls)))
	}
	d.logger.Debug("oracle interaction", fields...)
}

func renderPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString("[system]: ")
	b.WriteString(req.System)
	for _, m := range req.Messages {
		b.WriteString("\n[")
		b.WriteString(string(m.Role))
		b.WriteString("]: ")
		b.WriteString(m.Content)
	}
	return b.String()
}
