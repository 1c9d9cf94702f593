// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package embed turns text into fixed-dimension vectors in memory-bounded batches.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const (
	smallBatch        = 8
	largeBatch        = 16
	largeCorpusCutoff = 100
)

// Model is an embedding model. Embed returns one vector per input, in order.
type Model interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader constructs a Model. It is called at most once per successful load.
type Loader func(ctx context.Context) (Model, error)

// Batcher embeds texts in batches, checking the memory floor before each
// batch and loading the model on first use.
type Batcher struct {
	load  Loader
	probe sysres.Probe
	floor uint64

	mu    sync.Mutex
	model Model
}

// NewBatcher returns a Batcher. A nil probe or zero floor disables the
// memory check.
func NewBatcher(load Loader, probe sysres.Probe, floor uint64) *Batcher {
	return &Batcher{load: load, probe: probe, floor: floor}
}

// Static wraps an already constructed model as a Loader.
func Static(m Model) Loader {
	return func(context.Context) (Model, error) { return m, nil }
}

// BatchSize is the default batch size for n texts.
func BatchSize(n int) int {
	if n > largeCorpusCutoff {
		return smallBatch
	}
	return largeBatch
}

// Model returns the loaded model, loading it if needed. A failed load is
// retried on the next call.
func (b *Batcher) Model(ctx context.Context) (Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.model != nil {
		return b.model, nil
	}
	m, err := b.load(ctx)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeEmbedModelFailure, "loading embedding model")
	}
	slog.Info("embedding model loaded", "model", m.Name())
	b.model = m
	return m, nil
}

// Loaded returns the name of the loaded model, or "" before the first load.
func (b *Batcher) Loaded() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return ""
	}
	return b.model.Name()
}

// Embed returns one vector per text, preserving order. batchSize <= 0
// selects BatchSize(len(texts)).
func (b *Batcher) Embed(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = BatchSize(len(texts))
	}

	model, err := b.Model(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sysres.EnsureMemory(ctx, b.probe, b.floor); err != nil {
			return nil, err
		}

		vecs, err := model.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, ragerr.Wrap(err, ragerr.CodeEmbedModelFailure,
				fmt.Sprintf("embedding batch %d-%d", start, end), ragerr.Field("model", model.Name()))
		}
		if len(vecs) != end-start {
			return nil, ragerr.Errorf(ragerr.CodeEmbedModelFailure,
				"embedding batch %d-%d: model returned %d vectors", start, end, len(vecs))
		}
		out = append(out, vecs...)

		runtime.GC()
		slog.Debug("embedded batch", "start", start, "end", end, "total", len(texts))
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (b *Batcher) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.Embed(ctx, []string{text}, 1)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
