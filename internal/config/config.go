// Package config provides configuration loading and structs for carelens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Guidelines GuidelinesConfig `yaml:"guidelines"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Vector     VectorConfig     `yaml:"vector"`
	LLM        LLMConfig        `yaml:"llm"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path of the embedding cache database.
// An empty DatabasePath disables the cache.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// GuidelinesConfig holds the guidelines document and its chunking settings.
type GuidelinesConfig struct {
	Path         string `yaml:"path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
}

// EmbeddingConfig selects and configures the sentence embedder.
type EmbeddingConfig struct {
	// Provider is one of "onnx", "bedrock" or "hash".
	Provider       string `yaml:"provider"`
	ModelPath      string `yaml:"model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	BedrockModelID string `yaml:"bedrock_model_id"`
	Region         string `yaml:"region"`
}

// VectorConfig selects the vector index implementation ("memory" or "faiss").
type VectorConfig struct {
	IndexType string `yaml:"index_type"`
}

// LLMConfig configures the generative model used by the judge and the recommender.
type LLMConfig struct {
	// Provider is one of "openai", "gemini" or "bedrock".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv        string `yaml:"api_key_env"`
	Region           string `yaml:"region"`
	StructuredOutput bool   `yaml:"structured_output"`
}

// APIKey reads the key from the configured environment variable.
func (l *LLMConfig) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(l.APIKeyEnv))
}

// AnalysisConfig holds batch analysis settings.
type AnalysisConfig struct {
	ConversationsPath string        `yaml:"conversations_path"`
	Limit             int           `yaml:"limit"`
	Workers           int           `yaml:"workers"`
	Timeout           time.Duration `yaml:"timeout"`
}

// WatchConfig holds transcript directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Default returns a config with every default applied and no file behind it.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Guidelines.Path = expandPath(cfg.Guidelines.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Analysis.ConversationsPath = expandPath(cfg.Analysis.ConversationsPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	g := c.Guidelines
	if g.ChunkSize <= 0 || g.ChunkOverlap < 0 || g.ChunkOverlap >= g.ChunkSize {
		return fmt.Errorf("invalid guidelines chunking: chunk_size=%d chunk_overlap=%d (overlap must be smaller than size)",
			g.ChunkSize, g.ChunkOverlap)
	}
	switch c.Embedding.Provider {
	case "onnx", "bedrock", "hash":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "openai", "gemini", "bedrock":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Vector.IndexType {
	case "memory", "faiss":
	default:
		return fmt.Errorf("unknown vector index type %q", c.Vector.IndexType)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
