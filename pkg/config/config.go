// Package config loads the TOML service configuration: listen address,
// credential store, identity providers, model backends, and MCP servers.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"promptd/pkg/account"
	"promptd/pkg/chat"
	"promptd/pkg/chat/gemini"
	"promptd/pkg/chat/openai"
	"promptd/pkg/tools"
)

type ModelType string

const (
	ModelTypeOpenAI ModelType = "openai"
	ModelTypeGemini ModelType = "gemini"
)

const defaultSystemPrompt = "You are a personal assistant with access to the " +
	"user's calendar, mailbox and file storage through the provided tools. " +
	"Answer concisely and call a tool whenever the answer depends on the " +
	"user's data."

// ModelConfig builds engine agents for one configured model backend.
type ModelConfig interface {
	Name() string
	NewAgent(ctx context.Context,
		systemPrompt string,
		toolDefs []tools.ToolDefinition,
	) (chat.Agent, error)
}

type Config struct {
	ListenAddr   string
	DatabaseURL  string
	SystemPrompt string
	ModelName    string
	LogLevel     slog.Level
	LogDir       string

	// PerUserEngineKey switches the engine API key from deployment
	// configuration to the per-user key stored next to the refresh tokens.
	PerUserEngineKey bool

	ModelConfigs []ModelConfig
	Providers    map[string]account.ProviderConfig
	MCP          []MCPConfig
}

func (c *Config) UnmarshalTOML(input any) error {
	data, ok := input.(map[string]any)
	if !ok {
		return fmt.Errorf("type mismatched: want map[string]any got %T", input)
	}
	stringField := func(key string, dst *string) error {
		v, ok := data[key]
		if !ok {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: want string got %T", key, v)
		}
		*dst = s
		return nil
	}
	for key, dst := range map[string]*string{
		"listen_addr":   &c.ListenAddr,
		"database_url":  &c.DatabaseURL,
		"system_prompt": &c.SystemPrompt,
		"model_name":    &c.ModelName,
		"log_dir":       &c.LogDir,
	} {
		if err := stringField(key, dst); err != nil {
			return err
		}
	}
	if v, ok := data["per_user_engine_key"]; ok {
		if c.PerUserEngineKey, ok = v.(bool); !ok {
			return fmt.Errorf("per_user_engine_key: want bool got %T", v)
		}
	}
	if ll, ok := data["loglevel"]; !ok {
		c.LogLevel = slog.LevelInfo
	} else if lls, ok := ll.(string); !ok {
		return fmt.Errorf("loglevel: want string got %T", ll)
	} else if err := c.LogLevel.UnmarshalText([]byte(lls)); err != nil {
		return fmt.Errorf("failed to parse loglevel: %w", err)
	}

	if err := c.unmarshalModels(data); err != nil {
		return err
	}
	if err := c.unmarshalProviders(data); err != nil {
		return err
	}
	return c.unmarshalMCP(data)
}

func (c *Config) unmarshalModels(data map[string]any) error {
	modelsData, ok := data["model_configs"]
	if !ok {
		return nil
	}
	models, ok := modelsData.([]map[string]any)
	if !ok {
		return fmt.Errorf("model_configs: want []map[string]any got %T", modelsData)
	}
	for i, modelConfig := range models {
		mtData, ok := modelConfig["type"]
		if !ok {
			return fmt.Errorf("missing field type for model config")
		}
		mtStr, ok := mtData.(string)
		if !ok {
			return fmt.Errorf("type mismatch for type field: want string got %T", mtData)
		}
		marshaled, err := toml.Marshal(modelConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal %d-th config: %w", i, err)
		}
		switch ModelType(mtStr) {
		case ModelTypeOpenAI:
			oc := &openai.Config{}
			if err := toml.Unmarshal(marshaled, oc); err != nil {
				return fmt.Errorf("failed to parse %d-th config: %w", i, err)
			}
			c.ModelConfigs = append(c.ModelConfigs, oc)
		case ModelTypeGemini:
			gc := &gemini.Config{}
			if err := toml.Unmarshal(marshaled, gc); err != nil {
				return fmt.Errorf("failed to parse %d-th config: %w", i, err)
			}
			c.ModelConfigs = append(c.ModelConfigs, gc)
		default:
			return fmt.Errorf("unknown model type %s", mtStr)
		}
	}
	return nil
}

func (c *Config) unmarshalProviders(data map[string]any) error {
	providersData, ok := data["providers"]
	if !ok {
		return nil
	}
	providers, ok := providersData.(map[string]any)
	if !ok {
		return fmt.Errorf("providers: want map got %T", providersData)
	}
	c.Providers = map[string]account.ProviderConfig{}
	for name, pdata := range providers {
		marshaled, err := toml.Marshal(pdata)
		if err != nil {
			return fmt.Errorf("failed to marshal provider %s: %w", name, err)
		}
		var pc account.ProviderConfig
		if err := toml.Unmarshal(marshaled, &pc); err != nil {
			return fmt.Errorf("failed to parse provider %s: %w", name, err)
		}
		c.Providers[name] = pc
	}
	return nil
}

func (c *Config) unmarshalMCP(data map[string]any) error {
	mcpData, ok := data["mcp"]
	if !ok {
		return nil
	}
	mcps, ok := mcpData.([]map[string]any)
	if !ok {
		return fmt.Errorf("mcp: want []map[string]any got %T", mcpData)
	}
	for i, mc := range mcps {
		marshaled, err := toml.Marshal(mc)
		if err != nil {
			return fmt.Errorf("failed to marshal %d-th mcp config: %w", i, err)
		}
		var parsed MCPConfig
		if err := toml.Unmarshal(marshaled, &parsed); err != nil {
			return fmt.Errorf("failed to parse %d-th mcp config: %w", i, err)
		}
		c.MCP = append(c.MCP, parsed)
	}
	return nil
}

// ModelFactory returns the configured model backend named by ModelName.
func (c *Config) ModelFactory() (ModelConfig, error) {
	for _, mc := range c.ModelConfigs {
		if mc.Name() == c.ModelName {
			return mc, nil
		}
	}
	return nil, errors.New("model config not found")
}

// SystemPromptOrDefault returns the configured system prompt, falling back
// to the built-in one.
func (c *Config) SystemPromptOrDefault() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return defaultSystemPrompt
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := &Config{
		ListenAddr: ":8080",
		LogLevel:   slog.LevelInfo,
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}
