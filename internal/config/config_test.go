// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/config"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", cfg.Networking.Listen)
	assert.Equal(t, "ollama", cfg.Models.Default)
	assert.Equal(t, "llama3", cfg.Providers["ollama"].Model)
	assert.Equal(t, 1200, cfg.Chunking.Size)
	assert.Equal(t, 150, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 2, cfg.Retrieval.Overfetch)
	assert.Equal(t, "flat", cfg.Index.Backend)
	assert.Equal(t, "hashing", cfg.Embedding.Backend)
	assert.Equal(t, uint64(1024), cfg.Ingest.MinFreeMemoryMB)
	assert.Equal(t, 10*time.Minute, cfg.Ingest.Timeout)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxBytes)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightrag.yaml")
	content := `
networking:
  listen: "0.0.0.0:9999"
index:
  backend: sqlite-vec
retrieval:
  top_k: 3
ingest:
  timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Networking.Listen)
	assert.Equal(t, "sqlite-vec", cfg.Index.Backend)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 90*time.Second, cfg.Ingest.Timeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LIGHTRAG_NETWORKING_LISTEN", "10.0.0.1:8080")
	t.Setenv("LIGHTRAG_PROVIDERS_OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Networking.Listen)
	assert.Equal(t, "sk-test", cfg.Providers["openai"].APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeConfigLoadReadFailure))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  backend: faiss\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.backend")
}

func TestFromViper_UsesSharedInstance(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("chunking.size", 800)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Chunking.Size)
}

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.Empty(t, validConfig(t).Validate())
}

func TestValidate_CollectsErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantKey string
	}{
		{"empty listen", func(c *config.Config) { c.Networking.Listen = "" }, "networking.listen"},
		{"missing port", func(c *config.Config) { c.Networking.Listen = "127.0.0.1" }, "networking.listen"},
		{"port zero", func(c *config.Config) { c.Networking.Listen = "127.0.0.1:0" }, "networking.listen"},
		{"port not a number", func(c *config.Config) { c.Networking.Listen = "127.0.0.1:abc" }, "networking.listen"},
		{"empty default provider", func(c *config.Config) { c.Models.Default = "" }, "models.default"},
		{"unknown default provider", func(c *config.Config) { c.Models.Default = "mistral" }, "models.default"},
		{"bad embedding backend", func(c *config.Config) { c.Embedding.Backend = "word2vec" }, "embedding.backend"},
		{"bad index backend", func(c *config.Config) { c.Index.Backend = "hnsw" }, "index.backend"},
		{"zero chunk size", func(c *config.Config) { c.Chunking.Size = 0 }, "chunking.size"},
		{"overlap not below size", func(c *config.Config) { c.Chunking.Overlap = c.Chunking.Size }, "chunking.overlap"},
		{"zero top k", func(c *config.Config) { c.Retrieval.TopK = 0 }, "retrieval.top_k"},
		{"zero overfetch", func(c *config.Config) { c.Retrieval.Overfetch = 0 }, "retrieval.overfetch"},
		{"zero timeout", func(c *config.Config) { c.Ingest.Timeout = 0 }, "ingest.timeout"},
		{"zero upload limit", func(c *config.Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
		{"empty data dir", func(c *config.Config) { c.DataDir = "" }, "data_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.NotEmpty(t, errs)

			found := false
			for _, err := range errs {
				assert.True(t, ragerr.HasCode(err, ragerr.CodeConfigValidateInvalidValue))
				if strings.Contains(err.Error(), tt.wantKey) {
					found = true
				}
			}
			assert.True(t, found, "expected error about %s, got: %v", tt.wantKey, errs)
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = "/var/lib/lightrag"

	assert.Equal(t, "/var/lib/lightrag/documents", cfg.DocumentsPath())
	assert.Equal(t, "/var/lib/lightrag/vector_store", cfg.VectorStorePath())

	cfg.DocumentsDir = "/srv/pdfs"
	assert.Equal(t, "/srv/pdfs", cfg.DocumentsPath())
}

func TestDefaultConfigYAMLIsValid(t *testing.T) {
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(config.DefaultConfigYAML, &raw))
	assert.Contains(t, raw, "providers")

	path := filepath.Join(t.TempDir(), "lightrag.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Models.Default)
}
