package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/exec"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"promptd/pkg/session"
)

type transportFactory interface {
	newTransport() mcp.Transport
}

type commandFactory struct {
	command []string
}

func (cf *commandFactory) newTransport() mcp.Transport {
	return &mcp.CommandTransport{
		Command: exec.Command(cf.command[0], cf.command[1:]...),
	}
}

type httpFactory struct {
	endpoint string
	headers  http.Header
}

type headerAddingRoundTripper struct {
	headers      http.Header
	roundTripper http.RoundTripper
}

func (rt *headerAddingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	for k, v := range rt.headers {
		if _, ok := r.Header[k]; !ok {
			r.Header[k] = v
		}
	}
	return rt.roundTripper.RoundTrip(r)
}

func (hf *httpFactory) newTransport() mcp.Transport {
	transport := &mcp.SSEClientTransport{
		Endpoint: hf.endpoint,
	}
	if len(hf.headers) > 0 {
		transport.HTTPClient = &http.Client{
			Transport: &headerAddingRoundTripper{
				headers:      hf.headers,
				roundTripper: http.DefaultTransport,
			},
		}
	}
	return transport
}

// MCPManager sources extra capabilities from one MCP server.
type MCPManager struct {
	name    string
	client  *mcp.Client
	factory transportFactory

	clientSession *mcp.ClientSession
}

func newMCPManager(name string) *MCPManager {
	return &MCPManager{
		name: name,
		client: mcp.NewClient(
			&mcp.Implementation{
				Name:    "promptd",
				Version: "v0.1.0",
			},
			nil,
		),
	}
}

func NewCommandMCP(name string, command []string) *MCPManager {
	m := newMCPManager(name)
	m.factory = &commandFactory{command: command}
	return m
}

func NewHTTPMCP(name, endpoint string, headers map[string]string) *MCPManager {
	var h http.Header
	if len(headers) > 0 {
		h = http.Header{}
		for k, v := range headers {
			h.Add(k, v)
		}
	}
	m := newMCPManager(name)
	m.factory = &httpFactory{endpoint: endpoint, headers: h}
	return m
}

type mcpToolDefinition struct {
	name        string
	description string
	inSchema    *jsonschema.Schema

	m *MCPManager
}

func (d *mcpToolDefinition) Name() string {
	return d.name
}

func (d *mcpToolDefinition) Description() string {
	return d.description
}

func (d *mcpToolDefinition) RequestSchema() *jsonschema.Schema {
	return d.inSchema
}

func (d *mcpToolDefinition) process(ctx context.Context, in map[string]any) (any, error) {
	return d.m.process(ctx, d.name, in)
}

func (m *MCPManager) Close() error {
	var err error
	if m.clientSession != nil {
		err = m.clientSession.Close()
		m.clientSession = nil
	}
	return err
}

func (m *MCPManager) getSession(ctx context.Context) (*mcp.ClientSession, error) {
	if m.clientSession != nil {
		return m.clientSession, nil
	}
	cs, err := m.client.Connect(ctx, m.factory.newTransport(), nil)
	if err != nil {
		return nil, err
	}
	m.clientSession = cs
	return cs, nil
}

func (m *MCPManager) process(ctx context.Context, name string, in map[string]any) (any, error) {
	sess, err := m.getSession(ctx)
	if err != nil {
		return nil, err
	}
	logger := session.Logger(ctx, "mcp")
	result, err := sess.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: in,
	})
	if err != nil {
		return nil, err
	}
	if result.IsError {
		messages := &strings.Builder{}
		for _, content := range result.Content {
			if tc, ok := content.(*mcp.TextContent); ok {
				messages.WriteString(tc.Text)
			}
		}
		return nil, &ToolError{errors.New(messages.String())}
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	texts := &strings.Builder{}
	for _, content := range result.Content {
		tc, ok := content.(*mcp.TextContent)
		if !ok {
			logger.Warn("skipping non-text content", "server", m.name, "tool", name)
			continue
		}
		texts.WriteString(tc.Text)
	}
	return texts.String(), nil
}

func (m *MCPManager) ToolDefs(ctx context.Context) ([]ToolDefinition, error) {
	sess, err := m.getSession(ctx)
	if err != nil {
		return nil, err
	}
	var cursor string
	var results []ToolDefinition
	for {
		listed, err := sess.ListTools(ctx, &mcp.ListToolsParams{
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}
		for _, t := range listed.Tools {
			inSchemaEnc, err := json.Marshal(t.InputSchema)
			if err != nil {
				return nil, err
			}
			inSchema := &jsonschema.Schema{}
			if err := json.Unmarshal(inSchemaEnc, inSchema); err != nil {
				return nil, err
			}
			results = append(results, &mcpToolDefinition{
				name:        t.Name,
				description: t.Description,
				inSchema:    inSchema,
				m:           m,
			})
		}
		if listed.NextCursor == "" {
			break
		}
		cursor = listed.NextCursor
	}
	return results, nil
}
