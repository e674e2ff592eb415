// Package config holds all dirigent configuration.
// Configuration is loaded from a YAML file with environment variable
// overrides layered on top; every field has a working default so a
// missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all dirigent configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace root (todo documents, logs, sqlite database)
	Workspace string `yaml:"workspace"`

	// Model routing
	Routing RoutingConfig `yaml:"routing"`

	// Embedding engine
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Tool dispatch
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures SQLite persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:      "dirigent",
		Version:   "0.3.0",
		Workspace: ".",

		Routing:   DefaultRoutingConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Dispatch:  DefaultDispatchConfig(),

		Store: StoreConfig{
			DatabasePath: "data/dirigent.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides layers environment variables over file/default values.
func (c *Config) applyEnvOverrides() {
	if model := os.Getenv("DIRIGENT_DEFAULT_MODEL"); model != "" {
		c.Routing.DefaultModel = model
	}
	if strategy := os.Getenv("DIRIGENT_ROUTING_STRATEGY"); strategy != "" {
		c.Routing.Strategy = strategy
	}
	if endpoint := os.Getenv("OLLAMA_API_BASE"); endpoint != "" {
		c.Embedding.OllamaEndpoint = endpoint
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}
	if path := os.Getenv("DIRIGENT_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if ws := os.Getenv("DIRIGENT_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Routing.DefaultModel == "" {
		return fmt.Errorf("routing.default_model must not be empty")
	}
	switch c.Routing.Strategy {
	case "lexical", "embedding":
	default:
		return fmt.Errorf("routing.strategy must be \"lexical\" or \"embedding\", got %q", c.Routing.Strategy)
	}
	if c.Dispatch.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("dispatch.default_timeout_ms must be positive")
	}
	return nil
}
