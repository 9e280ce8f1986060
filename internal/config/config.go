// Package config provides configuration loading and structs for the Swasth server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	CORSEnabled *bool  `yaml:"cors_enabled"`
}

// CORSEnabledOrDefault returns whether CORS headers are served; defaults to true
// when unset so browser frontends can call the API directly.
func (s *ServerConfig) CORSEnabledOrDefault() bool {
	if s.CORSEnabled != nil {
		return *s.CORSEnabled
	}
	return true
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CorpusConfig holds settings for the FAQ corpus file.
type CorpusConfig struct {
	Path            string `yaml:"path"`
	AutoImport      *bool  `yaml:"auto_import"`
	Watch           bool   `yaml:"watch"`
	DefaultLanguage string `yaml:"default_language"`
}

// AutoImportOrDefault returns whether the corpus file is imported at startup
// when the database is empty; defaults to true when unset.
func (c *CorpusConfig) AutoImportOrDefault() bool {
	if c.AutoImport != nil {
		return *c.AutoImport
	}
	return true
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	Enabled    *bool  `yaml:"enabled"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// EnabledOrDefault returns whether the embedding capability is attempted at
// startup; defaults to true when unset. When false the engine matches
// lexically without trying to load a model.
func (e *EmbeddingConfig) EnabledOrDefault() bool {
	if e.Enabled != nil {
		return *e.Enabled
	}
	return true
}

// SearchConfig holds matching and ranking settings.
type SearchConfig struct {
	DefaultTopK    int           `yaml:"default_top_k"`
	MaxTopK        int           `yaml:"max_top_k"`
	EmbedBatchSize int           `yaml:"embed_batch_size"`
	NoMatchMessage string        `yaml:"no_match_message"`
	Lexical        LexicalConfig `yaml:"lexical"`
}

// LexicalConfig tunes the TF-IDF fallback matcher.
type LexicalConfig struct {
	MaxFeatures int    `yaml:"max_features"`
	NgramMin    int    `yaml:"ngram_min"`
	NgramMax    int    `yaml:"ngram_max"`
	StopWords   string `yaml:"stop_words"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled          *bool `yaml:"enabled"`
	DefaultPerMinute int   `yaml:"default_per_minute"`
	DefaultPerHour   int   `yaml:"default_per_hour"`
	QueryPerMinute   int   `yaml:"query_per_minute"`
	ImportPerHour    int   `yaml:"import_per_hour"`
}

// EnabledOrDefault returns whether rate limiting is applied; defaults to true.
func (r *RateLimitConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
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
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
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
