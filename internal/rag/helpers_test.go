// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed/hashing"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index/flat"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider/providertest"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/require"
)

const testDim = 64

// stubExtractor serves page texts keyed by filename.
type stubExtractor struct {
	mu    sync.Mutex
	pages map[string][]string
}

func newExtractor() *stubExtractor {
	return &stubExtractor{pages: make(map[string][]string)}
}

func (s *stubExtractor) set(filename string, pages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[filename] = pages
}

func (s *stubExtractor) Extract(_ context.Context, path string) (*pdf.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, ok := s.pages[filepath.Base(path)]
	if !ok {
		return nil, ragerr.New(ragerr.CodePDFExtractCorrupt, "cannot parse "+path, ragerr.FieldPath(path))
	}
	return &pdf.Document{Path: path, Pages: pages, Metadata: map[string]string{}}, nil
}

// switchModel embeds with hashing until failing is set.
type switchModel struct {
	inner   *hashing.Model
	failing atomic.Bool
	dim     atomic.Int32
}

func (m *switchModel) Name() string { return "switch" }

func (m *switchModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.failing.Load() {
		return nil, errors.New("model crashed")
	}
	if d := int(m.dim.Load()); d > 0 {
		return hashing.New(d).Embed(ctx, texts)
	}
	return m.inner.Embed(ctx, texts)
}

type fixture struct {
	dir      string
	docs     string
	ext      *stubExtractor
	model    *switchModel
	provider *providertest.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	return &fixture{
		dir:      filepath.Join(root, "vector_store", "fake"),
		docs:     filepath.Join(root, "documents"),
		ext:      newExtractor(),
		model:    &switchModel{inner: hashing.New(testDim)},
		provider: &providertest.Fake{Chunks: []string{"Hello", " there"}},
	}
}

func (f *fixture) options() rag.Options {
	return rag.Options{
		Dir:       f.dir,
		Backend:   flat.Backend{},
		Extractor: f.ext,
		Embedder:  embed.NewBatcher(embed.Static(f.model), nil, 0),
		Provider:  f.provider,
	}
}

func (f *fixture) pipeline(t *testing.T) *rag.Pipeline {
	t.Helper()
	p, err := rag.New(context.Background(), f.options())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.docs, name)
}

func collect(ch <-chan string) string {
	var b strings.Builder
	for s := range ch {
		b.WriteString(s)
	}
	return b.String()
}

var _ provider.Provider = (*providertest.Fake)(nil)
