// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package rag is the indexing and retrieval pipeline: it turns PDFs into
// embedded chunks, keeps the chunk store aligned with the vector index,
// and answers queries with a streamed, cited completion.
package rag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/docinfo"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/segment"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const (
	DefaultTopK      = 5
	DefaultOverfetch = 2
)

// Options configures a Pipeline. Dir, Backend, Extractor, Embedder and
// Provider are required.
type Options struct {
	// Dir holds the persisted index and documents.json.
	Dir       string
	Backend   index.Backend
	Extractor pdf.Extractor
	Analyzer  docinfo.Analyzer
	Embedder  *embed.Batcher
	Provider  provider.Provider

	Probe       sysres.Probe
	MemoryFloor uint64

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// Overfetch multiplies TopK to size the candidate pool for re-ranking.
	Overfetch int
}

func (o *Options) applyDefaults() {
	if o.Analyzer == nil {
		o.Analyzer = docinfo.Heuristics{}
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = segment.DefaultSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = min(segment.DefaultOverlap, o.ChunkSize/2)
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Overfetch <= 0 {
		o.Overfetch = DefaultOverfetch
	}
}

func (o Options) validate() error {
	switch {
	case o.Dir == "":
		return ragerr.New(ragerr.CodeConfigValidateInvalidValue, "pipeline: store directory is required")
	case o.Backend == nil:
		return ragerr.New(ragerr.CodeConfigValidateInvalidValue, "pipeline: index backend is required")
	case o.Extractor == nil:
		return ragerr.New(ragerr.CodeConfigValidateInvalidValue, "pipeline: pdf extractor is required")
	case o.Embedder == nil:
		return ragerr.New(ragerr.CodeConfigValidateInvalidValue, "pipeline: embedder is required")
	case o.Provider == nil:
		return ragerr.New(ragerr.CodeConfigValidateInvalidValue, "pipeline: generation provider is required")
	}
	return nil
}

// Pipeline owns one chunk store and its vector index. The mutex keeps
// readers consistent with a writer's swap; callers still serialize
// writers (index, delete, clear) themselves.
type Pipeline struct {
	opts Options
	pair store.Pair

	mu   sync.RWMutex
	docs *store.Documents
	ix   index.Index // nil until the first successful embedding
}

// New builds a pipeline and loads any persisted state from opts.Dir.
// A missing or inconsistent pair starts the pipeline empty.
func New(ctx context.Context, opts Options) (*Pipeline, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts: opts,
		pair: store.Pair{Dir: opts.Dir, Backend: opts.Backend},
		docs: store.NewDocuments(nil),
	}

	ix, chunks, err := p.pair.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ix != nil {
		p.ix = ix
		p.docs = store.NewDocuments(chunks)
		slog.Info("loaded persisted index",
			"provider", opts.Provider.Name(), "chunks", len(chunks), "backend", opts.Backend.Name())
	}
	return p, nil
}

func (p *Pipeline) Provider() provider.Provider { return p.opts.Provider }

// Len is the number of indexed chunks.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.docs.Len()
}

// IndexedFiles lists the filenames present in the store.
func (p *Pipeline) IndexedFiles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.docs.Files()
}

// HasFile reports whether filename has any indexed chunks.
func (p *Pipeline) HasFile(filename string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.docs.Contains(filename)
}

// Documents summarizes each indexed file.
func (p *Pipeline) Documents() []store.FileSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.docs.Summaries()
}

// Status describes the pipeline's indexing state.
type Status struct {
	Provider      string   `json:"provider"`
	TotalChunks   int      `json:"total_chunks"`
	IndexedFiles  []string `json:"indexed_files"`
	IndexBackend  string   `json:"index_backend"`
	Dimension     int      `json:"dimension"`
	IndexRows     int      `json:"index_rows"`
	EmbeddingName string   `json:"embedding_model,omitempty"`
}

func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Provider:      p.opts.Provider.Name(),
		TotalChunks:   p.docs.Len(),
		IndexedFiles:  p.docs.Files(),
		IndexBackend:  p.opts.Backend.Name(),
		EmbeddingName: p.opts.Embedder.Loaded(),
	}
	if st.IndexedFiles == nil {
		st.IndexedFiles = []string{}
	}
	if p.ix != nil {
		st.Dimension = p.ix.Dimension()
		st.IndexRows = p.ix.Len()
	}
	return st
}

// Close releases the index and the provider. The pipeline must not be
// used afterwards.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ix != nil {
		if err := p.ix.Close(); err != nil {
			errs = append(errs, err)
		}
		p.ix = nil
	}
	if err := p.opts.Provider.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}
