// Package config provides configuration loading and structs for the sift server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/siftd/sift/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Hybrid    HybridConfig    `yaml:"hybrid"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size"`
	BatchSize  int `yaml:"batch_size"`
}

// ChunkConfig holds chunking limits in tokens.
type ChunkConfig struct {
	CodeTokens    int `yaml:"code_tokens"`
	TextTokens    int `yaml:"text_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// HybridConfig holds hybrid retrieval settings. The weights are tunable
// defaults, not hard-coded constants.
type HybridConfig struct {
	KVector      int     `yaml:"k_vector"`
	KBM25        int     `yaml:"k_bm25"`
	KFinal       int     `yaml:"k_final"`
	VectorWeight float64 `yaml:"vector_weight"`
	BM25Weight   float64 `yaml:"bm25_weight"`
}

// OptimizerConfig holds context window assembly settings.
type OptimizerConfig struct {
	MaxTokens        int     `yaml:"max_tokens"`
	PreserveTopN     int     `yaml:"preserve_top_n"`
	RelevanceWeight  float64 `yaml:"relevance_weight"`
	ImportanceWeight float64 `yaml:"importance_weight"`
	MinUsefulTokens  int     `yaml:"min_useful_tokens"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory | remote
	RemoteURL  string `yaml:"remote_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories     []string `yaml:"directories"`
	AllowExtensions []string `yaml:"allow_extensions"`
	IgnoreGlobs     []string `yaml:"ignore_globs"`
	DebounceSeconds int      `yaml:"debounce_seconds"`
	MaxFileSizeMB   float64  `yaml:"max_file_size_mb"`
}

// JobsConfig holds job queue settings.
type JobsConfig struct {
	Executor  string `yaml:"executor"` // inline | remote
	RemoteURL string `yaml:"remote_url"`
	History   int    `yaml:"history"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and validates. Returns an error if the file cannot be read or parsed
// or a value is invalid.
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
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on invalid configuration; these errors are not
// recoverable at runtime.
func (c *Config) Validate() error {
	if c.Hybrid.VectorWeight < 0 || c.Hybrid.BM25Weight < 0 {
		return &models.ConfigurationError{Key: "hybrid", Err: fmt.Errorf("weights cannot be negative")}
	}
	if c.Chunk.OverlapTokens >= c.Chunk.CodeTokens || c.Chunk.OverlapTokens >= c.Chunk.TextTokens {
		return &models.ConfigurationError{Key: "chunk.overlap_tokens", Err: fmt.Errorf("overlap must be smaller than the token limits")}
	}
	switch c.Cache.Backend {
	case "memory", "remote":
	default:
		return &models.ConfigurationError{Key: "cache.backend", Err: fmt.Errorf("unknown backend %q", c.Cache.Backend)}
	}
	if c.Cache.Backend == "remote" && c.Cache.RemoteURL == "" {
		return &models.ConfigurationError{Key: "cache.remote_url", Err: fmt.Errorf("required for remote backend")}
	}
	switch c.Jobs.Executor {
	case "inline", "remote":
	default:
		return &models.ConfigurationError{Key: "jobs.executor", Err: fmt.Errorf("unknown executor %q", c.Jobs.Executor)}
	}
	if c.Jobs.Executor == "remote" && c.Jobs.RemoteURL == "" {
		return &models.ConfigurationError{Key: "jobs.remote_url", Err: fmt.Errorf("required for remote executor")}
	}
	if c.Watch.DebounceSeconds < 0 {
		return &models.ConfigurationError{Key: "watch.debounce_seconds", Err: fmt.Errorf("cannot be negative")}
	}
	if c.Watch.MaxFileSizeMB < 0 {
		return &models.ConfigurationError{Key: "watch.max_file_size_mb", Err: fmt.Errorf("cannot be negative")}
	}
	for _, glob := range c.Watch.IgnoreGlobs {
		if strings.TrimSpace(glob) == "" {
			return &models.ConfigurationError{Key: "watch.ignore_globs", Err: fmt.Errorf("empty pattern")}
		}
	}
	return nil
}

// MaxFileSizeBytes returns the watch size ceiling in bytes.
func (w *WatchConfig) MaxFileSizeBytes() int64 {
	return int64(w.MaxFileSizeMB * 1024 * 1024)
}

// Save writes the config to path. Used for persisting watch directory changes.
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

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home dir.
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
