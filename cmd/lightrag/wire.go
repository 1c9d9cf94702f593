// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/config"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed"
	embedgoogle "github.com/Venkatesh-108/LightRAG-SRM/internal/embed/google"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed/hashing"
	embedopenai "github.com/Venkatesh-108/LightRAG-SRM/internal/embed/openai"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	_ "github.com/Venkatesh-108/LightRAG-SRM/internal/index/flat"      // register flat backend
	_ "github.com/Venkatesh-108/LightRAG-SRM/internal/index/sqlitevec" // register sqlite-vec backend
	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	anthropicprov "github.com/Venkatesh-108/LightRAG-SRM/internal/provider/anthropic"
	googleprov "github.com/Venkatesh-108/LightRAG-SRM/internal/provider/google"
	openaiprov "github.com/Venkatesh-108/LightRAG-SRM/internal/provider/openai"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// newExtractor builds the PDF extractor shared by all pipelines.
// Overridden in tests.
var newExtractor = func() pdf.Extractor { return pdf.NewReader() }

// App holds the wired pipelines and the host probe.
type App struct {
	Config   *config.Config
	Registry *rag.Registry
	Probe    sysres.Host
}

// Wire builds the pipeline registry for cfg. Pipelines are constructed
// lazily; call InitAll to build every configured provider up front.
func Wire(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	backend, err := index.Lookup(cfg.Index.Backend)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "selecting index backend")
	}

	probe := sysres.Host{DiskPath: cfg.DataDir}
	batcher := embed.NewBatcher(embeddingLoader(cfg.Embedding), probe, cfg.Ingest.MinFreeMemoryMB<<20)
	extractor := newExtractor()

	factory := func(ctx context.Context, name string) (*rag.Pipeline, error) {
		pc, ok := cfg.Providers[name]
		if !ok {
			return nil, ragerr.New(ragerr.CodeProviderNotFound,
				fmt.Sprintf("provider %q is not configured", name), ragerr.FieldProvider(name))
		}
		prov, err := newProvider(ctx, name, pc)
		if err != nil {
			return nil, err
		}
		p, err := rag.New(ctx, rag.Options{
			Dir:          filepath.Join(cfg.VectorStorePath(), name),
			Backend:      backend,
			Extractor:    extractor,
			Embedder:     batcher,
			Provider:     prov,
			Probe:        probe,
			MemoryFloor:  cfg.Ingest.MinFreeMemoryMB << 20,
			ChunkSize:    cfg.Chunking.Size,
			ChunkOverlap: cfg.Chunking.Overlap,
			TopK:         cfg.Retrieval.TopK,
			Overfetch:    cfg.Retrieval.Overfetch,
		})
		if err != nil {
			_ = prov.Close()
			return nil, err
		}
		return p, nil
	}

	return &App{
		Config:   cfg,
		Registry: rag.NewRegistry(factory, cfg.Models.Default),
		Probe:    probe,
	}, nil
}

// InitAll builds a pipeline for every configured provider. Failures are
// recorded in the registry and logged.
func (a *App) InitAll(ctx context.Context) {
	names := make([]string, 0, len(a.Config.Providers))
	for name := range a.Config.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	a.Registry.Init(ctx, names)
}

// Close releases every pipeline.
func (a *App) Close() error {
	return a.Registry.Close()
}

// newProvider constructs the generation backend for a configured provider.
// Names that are not Anthropic or Google speak the OpenAI protocol.
func newProvider(ctx context.Context, name string, pc config.ProviderConfig) (provider.Provider, error) {
	switch provider.KindOf(name) {
	case provider.KindAnthropic:
		p, err := anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint, Model: pc.Model})
		if err != nil {
			return nil, err
		}
		return p, nil
	case provider.KindGoogle:
		p, err := googleprov.New(ctx, googleprov.Config{APIKey: pc.APIKey, Model: pc.Model})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		endpoint := pc.Endpoint
		if endpoint == "" {
			endpoint = provider.DefaultEndpoint(name)
		}
		p, err := openaiprov.New(openaiprov.Config{Name: name, APIKey: pc.APIKey, BaseURL: endpoint, Model: pc.Model})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// embeddingLoader returns the loader for the configured embedding backend.
// Remote clients are created on first use.
func embeddingLoader(ec config.EmbeddingConfig) embed.Loader {
	switch ec.Backend {
	case "openai":
		return func(context.Context) (embed.Model, error) {
			m, err := embedopenai.New(embedopenai.Config{APIKey: ec.APIKey, BaseURL: ec.Endpoint, Model: ec.Model})
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	case "google":
		return func(ctx context.Context) (embed.Model, error) {
			m, err := embedgoogle.New(ctx, embedgoogle.Config{APIKey: ec.APIKey, Model: ec.Model})
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	default:
		slog.Debug("using hashing embeddings", "dimensions", ec.Dimensions)
		return embed.Static(hashing.New(ec.Dimensions))
	}
}
