package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolDefinition describes one capability the generation engine may invoke:
// a unique name, a human-readable description, a schema for its arguments,
// and the bound handler.
type ToolDefinition interface {
	Name() string
	Description() string
	RequestSchema() *jsonschema.Schema
	process(ctx context.Context, in map[string]any) (any, error)
}

type toolDefinition[Req any, Resp any] struct {
	name        string
	description string
	proc        func(ctx context.Context, req Req) (Resp, error)
}

// NewDef builds a ToolDefinition whose argument schema is reflected from Req.
func NewDef[Req any, Resp any](
	name, description string,
	proc func(ctx context.Context, req Req) (Resp, error),
) ToolDefinition {
	return &toolDefinition[Req, Resp]{
		name:        name,
		description: description,
		proc:        proc,
	}
}

func (d *toolDefinition[Req, Resp]) Name() string {
	return d.name
}

func (d *toolDefinition[Req, Resp]) Description() string {
	return d.description
}

func (d *toolDefinition[Req, Resp]) RequestSchema() *jsonschema.Schema {
	var t Req
	return (&jsonschema.Reflector{
		DoNotReference: true,
	}).Reflect(&t)
}

func (d *toolDefinition[Req, Resp]) process(ctx context.Context, in map[string]any) (any, error) {
	// Round-trips through JSON to fill the typed request.
	jsonIn, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var req Req
	if err := json.Unmarshal(jsonIn, &req); err != nil {
		return nil, &ToolError{err}
	}
	return d.proc(ctx, req)
}
