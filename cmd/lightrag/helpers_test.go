// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/require"
)

// textExtractor treats a file's bytes as the text of its only page.
type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, path string) (*pdf.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodePDFOpenNotFound, "opening document", ragerr.FieldPath(path))
	}
	return &pdf.Document{Path: path, Pages: []string{string(data)}, Metadata: map[string]string{}}, nil
}

func useTextExtractor(t *testing.T) {
	t.Helper()
	prev := newExtractor
	newExtractor = func() pdf.Extractor { return textExtractor{} }
	t.Cleanup(func() { newExtractor = prev })
}

// fakeLLM serves an OpenAI-compatible chat endpoint that always answers
// "Hello".
func fakeLLM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "lo"} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"llama3\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", delta)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

type cliEnv struct {
	dir     string
	cfgPath string
	docs    string
}

// newCLIEnv writes a config whose data lives in a temp dir and whose
// default provider talks to endpoint. Extra YAML is appended verbatim.
func newCLIEnv(t *testing.T, endpoint string, extra ...string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	data := filepath.Join(dir, "data")
	cfg := fmt.Sprintf(`data_dir: %s
providers:
  ollama:
    endpoint: %s
    model: llama3
models:
  default: ollama
embedding:
  backend: hashing
  dimensions: 32
ingest:
  min_free_memory_mb: 0
`, data, endpoint) + strings.Join(extra, "\n")

	path := filepath.Join(dir, "lightrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &cliEnv{dir: dir, cfgPath: path, docs: filepath.Join(data, "documents")}
}

func (e *cliEnv) run(args ...string) (string, error) {
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(append(args, "--config", e.cfgPath))
	err := root.Execute()
	return out.String(), err
}

// source writes a document outside the documents directory.
func (e *cliEnv) source(t *testing.T, name, text string) string {
	t.Helper()
	dir := filepath.Join(e.dir, "src")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}
