// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package openai embeds text through the OpenAI embeddings API or any
// compatible endpoint, such as Ollama's /v1 API.
package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const DefaultModel = "text-embedding-3-small"

// Config holds embedding endpoint configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Model implements embed.Model against the embeddings endpoint.
type Model struct {
	client openaisdk.Client
	model  string
}

// New creates an embedding model. An API key is required unless BaseURL
// points at a self-hosted endpoint.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ragerr.New(ragerr.CodeEmbedRequestInvalid, "openai embeddings: missing api_key in config")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Model{client: openaisdk.NewClient(opts...), model: cfg.Model}, nil
}

func (m *Model) Name() string { return "openai/" + m.model }

func (m *Model) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := m.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(m.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeEmbedModelFailure, "openai embeddings: %s", m.model)
	}
	if len(resp.Data) != len(texts) {
		return nil, ragerr.Errorf(ragerr.CodeEmbedModelFailure,
			"openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, ragerr.Errorf(ragerr.CodeEmbedModelFailure, "openai embeddings: index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			vec[i] = float32(x)
		}
		out[d.Index] = vec
	}
	return out, nil
}
