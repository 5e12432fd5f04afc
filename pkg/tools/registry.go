package tools

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry maps capability names to their definitions. Lookup is by exact,
// case-sensitive name. A registry is built fresh per generation session;
// iteration preserves registration order so the engine always sees the
// capabilities in a deterministic order.
type Registry struct {
	defs *orderedmap.OrderedMap[string, ToolDefinition]
}

func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{
		defs: orderedmap.New[string, ToolDefinition](),
	}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(def ToolDefinition) error {
	if _, ok := r.defs.Get(def.Name()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCapability, def.Name())
	}
	r.defs.Set(def.Name(), def)
	return nil
}

// Defs returns the registered definitions in registration order.
func (r *Registry) Defs() []ToolDefinition {
	results := make([]ToolDefinition, 0, r.defs.Len())
	for pair := r.defs.Oldest(); pair != nil; pair = pair.Next() {
		results = append(results, pair.Value)
	}
	return results
}

// Run executes the named capability with the given arguments.
func (r *Registry) Run(ctx context.Context, name string, in map[string]any) (any, error) {
	d, ok := r.defs.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	return d.process(ctx, in)
}
