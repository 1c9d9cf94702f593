// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag

import (
	"context"
	"log/slog"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
)

// DeleteDocument removes every chunk of filename. It reports false, with
// no side effects, when nothing matched. Otherwise the index is rebuilt
// from the survivors' cached vectors and persisted, or the persisted state
// is removed when nothing survives. The new state replaces the old one
// only after it has been persisted.
func (p *Pipeline) DeleteDocument(ctx context.Context, filename string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept, rows, removed := p.docs.Partition(filename)
	if removed == 0 {
		return false, nil
	}

	if len(kept) == 0 {
		if err := p.pair.Remove(); err != nil {
			return false, err
		}
		p.resetLocked()
		slog.Info("deleted document", "provider", p.opts.Provider.Name(), "filename", filename, "chunks", removed, "remaining", 0)
		return true, nil
	}

	all, err := p.ix.Vectors(ctx)
	if err != nil {
		return false, err
	}
	survivors := make([][]float32, len(rows))
	for i, row := range rows {
		survivors[i] = all[row]
	}

	rebuilt, err := index.Rebuild(ctx, p.opts.Backend, p.ix.Dimension(), survivors)
	if err != nil {
		return false, err
	}
	if err := p.pair.Save(ctx, rebuilt, kept); err != nil {
		_ = rebuilt.Close()
		return false, err
	}

	if err := p.ix.Close(); err != nil {
		slog.Warn("closing replaced index", "error", err)
	}
	p.ix = rebuilt
	p.docs = store.NewDocuments(kept)

	slog.Info("deleted document", "provider", p.opts.Provider.Name(), "filename", filename, "chunks", removed, "remaining", len(kept))
	return true, nil
}

// ClearAll empties the store and index and removes the persisted files.
func (p *Pipeline) ClearAll(_ context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.pair.Remove(); err != nil {
		return false, err
	}
	p.resetLocked()
	slog.Info("cleared all documents", "provider", p.opts.Provider.Name())
	return true, nil
}

// Caller must hold p.mu.
func (p *Pipeline) resetLocked() {
	if p.ix != nil {
		if err := p.ix.Close(); err != nil {
			slog.Warn("closing index", "error", err)
		}
	}
	p.ix = nil
	p.docs = store.NewDocuments(nil)
}
