// Package config provides configuration loading for recommendd.
package config

import (
	"fmt"

	"github.com/talentsift/recommendd/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	LLM         LLMConfig         `koanf:"llm"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Engine      EngineConfig      `koanf:"engine"`
	Session     SessionConfig     `koanf:"session"`
	Fetcher     FetcherConfig     `koanf:"fetcher"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// RefreshAPIKey guards the catalog reindex endpoint.
	RefreshAPIKey string `koanf:"refresh_api_key"`
}

// LLMConfig holds language model client settings.
type LLMConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`

	// TimeoutSeconds bounds a single completion call.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// MaxRetries bounds structured-output parse retries.
	MaxRetries int `koanf:"max_retries"`
}

// EmbeddingsConfig holds embedding API settings.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// VectorStoreConfig holds chromem settings.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
}

// CatalogConfig holds catalog snapshot settings.
type CatalogConfig struct {
	SnapshotPath string `koanf:"snapshot_path"`
}

// EngineConfig holds retrieve-rerank-balance tunables.
type EngineConfig struct {
	// TopKRetrieve is the retrieval ceiling for vector search.
	TopKRetrieve int `koanf:"top_k_retrieve"`

	// MinSelect and MaxSelect bound the final recommendation count.
	MinSelect int `koanf:"min_select"`
	MaxSelect int `koanf:"max_select"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	DBPath string `koanf:"db_path"`
}

// FetcherConfig holds job-description fetch settings.
type FetcherConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	c.Logging.ApplyDefaults()
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 2
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "text-embedding-3-small"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "./storage/vectorstore"
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = "assessments"
	}
	if c.Catalog.SnapshotPath == "" {
		c.Catalog.SnapshotPath = "./data/assessments.json"
	}
	if c.Engine.TopKRetrieve == 0 {
		c.Engine.TopKRetrieve = 12
	}
	if c.Engine.MinSelect == 0 {
		c.Engine.MinSelect = 5
	}
	if c.Engine.MaxSelect == 0 {
		c.Engine.MaxSelect = 7
	}
	if c.Session.DBPath == "" {
		c.Session.DBPath = "./storage/sessions.db"
	}
	if c.Fetcher.TimeoutSeconds == 0 {
		c.Fetcher.TimeoutSeconds = 30
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid llm provider %q", c.LLM.Provider)
	}
	if c.Engine.MinSelect > c.Engine.MaxSelect {
		return fmt.Errorf("engine min_select %d exceeds max_select %d",
			c.Engine.MinSelect, c.Engine.MaxSelect)
	}
	if c.Engine.TopKRetrieve < c.Engine.MaxSelect {
		return fmt.Errorf("engine top_k_retrieve %d below max_select %d",
			c.Engine.TopKRetrieve, c.Engine.MaxSelect)
	}
	return nil
}
