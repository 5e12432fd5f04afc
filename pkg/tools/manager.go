package tools

import (
	"context"
)

// Manager supplies capability definitions from one source (a provider
// adapter or an MCP server) and owns whatever connection backs them.
type Manager interface {
	ToolDefs(ctx context.Context) ([]ToolDefinition, error)
	Close() error
}

// staticManager wraps a fixed set of definitions.
type staticManager struct {
	defs []ToolDefinition
}

func NewStaticManager(defs ...ToolDefinition) Manager {
	return &staticManager{defs: defs}
}

func (m *staticManager) ToolDefs(ctx context.Context) ([]ToolDefinition, error) {
	return m.defs, nil
}

func (m *staticManager) Close() error {
	return nil
}

// CollectDefs drains every manager into a single definition list.
func CollectDefs(ctx context.Context, mgrs []Manager) ([]ToolDefinition, error) {
	var defs []ToolDefinition
	for _, m := range mgrs {
		tds, err := m.ToolDefs(ctx)
		if err != nil {
			return nil, err
		}
		defs = append(defs, tds...)
	}
	return defs, nil
}
