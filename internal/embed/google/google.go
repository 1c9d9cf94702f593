// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package google embeds text with the Gemini embeddings API.
package google

import (
	"context"

	"google.golang.org/genai"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const DefaultModel = "text-embedding-004"

// Config holds Gemini embedding configuration.
type Config struct {
	APIKey string
	Model  string
}

// Model implements embed.Model using genai EmbedContent.
type Model struct {
	client *genai.Client
	model  string
}

// New creates a Gemini embedding model. Returns an error if the API key is missing.
func New(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeEmbedRequestInvalid, "google embeddings: missing api_key in config")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeEmbedModelFailure, "google embeddings: creating client")
	}
	return &Model{client: client, model: cfg.Model}, nil
}

func (m *Model) Name() string { return "google/" + m.model }

func (m *Model) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := m.client.Models.EmbedContent(ctx, m.model, contents, nil)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeEmbedModelFailure, "google embeddings: %s", m.model)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, ragerr.Errorf(ragerr.CodeEmbedModelFailure,
			"google embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
