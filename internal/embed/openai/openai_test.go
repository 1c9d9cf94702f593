// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed/openai"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresKeyOrEndpoint(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeEmbedRequestInvalid))

	m, err := openai.New(openai.Config{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.Equal(t, "openai/nomic-embed-text", m.Name())
}

func TestEmbed_ReordersByIndex(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "test-embed",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	m, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL, Model: "test-embed"})
	require.NoError(t, err)

	vecs, err := m.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, "test-embed", gotModel)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}))
	defer srv.Close()

	m, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = m.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeEmbedModelFailure))
}
