// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package config

import (
	"errors"
	"net"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level LightRAG configuration.
type Config struct {
	DataDir      string                    `mapstructure:"data_dir"`
	DocumentsDir string                    `mapstructure:"documents_dir"`
	Networking   NetworkingConfig          `mapstructure:"networking"`
	Providers    map[string]ProviderConfig `mapstructure:"providers"`
	Models       ModelsConfig              `mapstructure:"models"`
	Embedding    EmbeddingConfig           `mapstructure:"embedding"`
	Index        IndexConfig               `mapstructure:"index"`
	Chunking     ChunkingConfig            `mapstructure:"chunking"`
	Retrieval    RetrievalConfig           `mapstructure:"retrieval"`
	Ingest       IngestConfig              `mapstructure:"ingest"`
	Upload       UploadConfig              `mapstructure:"upload"`
	Reconcile    ReconcileConfig           `mapstructure:"reconcile"`
}

// NetworkingConfig controls how the HTTP server listens for connections.
type NetworkingConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProviderConfig holds credentials, endpoint and model for a generation provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ModelsConfig selects the provider used when a request does not name one.
type ModelsConfig struct {
	Default string `mapstructure:"default"`
}

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	Backend    string `mapstructure:"backend"`
	Model      string `mapstructure:"model"`
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"`
}

// IndexConfig selects the vector index implementation.
type IndexConfig struct {
	Backend string `mapstructure:"backend"`
}

// ChunkingConfig controls the text segmenter.
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// RetrievalConfig controls candidate selection.
type RetrievalConfig struct {
	TopK      int `mapstructure:"top_k"`
	Overfetch int `mapstructure:"overfetch"`
}

// IngestConfig bounds indexing work.
type IngestConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MinFreeMemoryMB uint64        `mapstructure:"min_free_memory_mb"`
}

// UploadConfig limits document uploads over HTTP.
type UploadConfig struct {
	MaxBytes      int64 `mapstructure:"max_bytes"`
	RatePerMinute int   `mapstructure:"rate_per_minute"`
}

// ReconcileConfig controls the background indexer for documents on disk.
type ReconcileConfig struct {
	OnStart bool `mapstructure:"on_start"`
	Watch   bool `mapstructure:"watch"`
}

var (
	validIndexBackends     = []string{"flat", "sqlite-vec"}
	validEmbeddingBackends = []string{"hashing", "openai", "google"}
)

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("documents_dir", "")
	v.SetDefault("networking.listen", "127.0.0.1:5000")
	v.SetDefault("networking.cors_origins", []string{"*"})

	v.SetDefault("providers.ollama.endpoint", "http://localhost:11434/v1")
	v.SetDefault("providers.ollama.model", "llama3")
	v.SetDefault("providers.ollama.api_key", "ollama")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.endpoint", "")
	v.SetDefault("models.default", "ollama")

	v.SetDefault("embedding.backend", "hashing")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("index.backend", "flat")

	v.SetDefault("chunking.size", 1200)
	v.SetDefault("chunking.overlap", 150)
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.overfetch", 2)

	v.SetDefault("ingest.timeout", 10*time.Minute)
	v.SetDefault("ingest.min_free_memory_mb", 1024)
	v.SetDefault("upload.max_bytes", 50<<20)
	v.SetDefault("upload.rate_per_minute", 30)

	v.SetDefault("reconcile.on_start", true)
	v.SetDefault("reconcile.watch", false)
}

// SetupEnv binds LIGHTRAG_* environment variables, e.g.
// LIGHTRAG_NETWORKING_LISTEN overrides networking.listen.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("LIGHTRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix LIGHTRAG_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ragerr.Errorf(ragerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// DocumentsPath is where uploaded PDFs live.
func (c *Config) DocumentsPath() string {
	if c.DocumentsDir != "" {
		return c.DocumentsDir
	}
	return filepath.Join(c.DataDir, "documents")
}

// VectorStorePath is the parent directory of all per-provider pipelines.
func (c *Config) VectorStorePath() string {
	return filepath.Join(c.DataDir, "vector_store")
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateIndexing()...)
	errs = append(errs, c.validateLimits()...)

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		return append(errs, invalid("config: networking.listen must not be empty"))
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		return append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err,
		))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, invalid("config: networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, invalid("config: networking.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if c.Models.Default == "" {
		errs = append(errs, invalid("config: models.default must not be empty"))
	} else if c.Providers != nil {
		if _, ok := c.Providers[c.Models.Default]; !ok {
			errs = append(errs, invalid("config: models.default references provider %q which is not configured", c.Models.Default))
		}
	}

	for name, p := range c.Providers {
		if p.Model == "" && name != "anthropic" && name != "google" {
			errs = append(errs, invalid("config: providers.%s.model must not be empty", name))
		}
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if !slices.Contains(validEmbeddingBackends, c.Embedding.Backend) {
		errs = append(errs, invalid("config: embedding.backend must be one of %v, got %q", validEmbeddingBackends, c.Embedding.Backend))
	}
	if c.Embedding.Backend == "hashing" && c.Embedding.Dimensions <= 0 {
		errs = append(errs, invalid("config: embedding.dimensions must be greater than 0, got %d", c.Embedding.Dimensions))
	}

	return errs
}

func (c *Config) validateIndexing() []error {
	var errs []error

	if !slices.Contains(validIndexBackends, c.Index.Backend) {
		errs = append(errs, invalid("config: index.backend must be one of %v, got %q", validIndexBackends, c.Index.Backend))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, invalid("config: chunking.size must be greater than 0, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || (c.Chunking.Size > 0 && c.Chunking.Overlap >= c.Chunking.Size) {
		errs = append(errs, invalid("config: chunking.overlap must be in [0, chunking.size), got %d", c.Chunking.Overlap))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, invalid("config: retrieval.top_k must be greater than 0, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.Overfetch < 1 {
		errs = append(errs, invalid("config: retrieval.overfetch must be at least 1, got %d", c.Retrieval.Overfetch))
	}

	return errs
}

func (c *Config) validateLimits() []error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, invalid("config: data_dir must not be empty"))
	}
	if c.Ingest.Timeout <= 0 {
		errs = append(errs, invalid("config: ingest.timeout must be greater than 0, got %s", c.Ingest.Timeout))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, invalid("config: upload.max_bytes must be greater than 0, got %d", c.Upload.MaxBytes))
	}
	if c.Upload.RatePerMinute < 0 {
		errs = append(errs, invalid("config: upload.rate_per_minute must not be negative, got %d", c.Upload.RatePerMinute))
	}

	return errs
}

func invalid(format string, args ...any) error {
	return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, format, args...)
}
