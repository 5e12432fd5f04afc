package config

import (
	"fmt"
	"strings"

	"promptd/pkg/tools"
)

// MCPConfig defines a connection to one MCP server contributing extra
// capabilities.
type MCPConfig struct {
	Name           string            `toml:"name"`
	Command        []string          `toml:"command,omitempty"`
	Endpoint       string            `toml:"endpoint,omitempty"`
	RequestHeaders map[string]string `toml:"request_headers,omitempty"`
}

func (c MCPConfig) String() string {
	if c.Endpoint != "" {
		return fmt.Sprintf("%s: %s", c.Name, c.Endpoint)
	}
	return fmt.Sprintf("%s: %s", c.Name, strings.Join(c.Command, " "))
}

// Manager builds the tools manager for this server, or nil when the config
// names neither a command nor an endpoint.
func (c MCPConfig) Manager() tools.Manager {
	if len(c.Command) > 0 {
		return tools.NewCommandMCP(c.Name, c.Command)
	}
	if c.Endpoint != "" {
		return tools.NewHTTPMCP(c.Name, c.Endpoint, c.RequestHeaders)
	}
	return nil
}
