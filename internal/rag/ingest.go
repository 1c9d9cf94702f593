// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/docinfo"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/segment"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// IndexDocuments extracts, chunks, embeds and indexes the PDFs at paths,
// then persists the store. The call is all-or-nothing: on any failure the
// store and index are rolled back to their previous length.
//
// A file that fails extraction is skipped, unless it is the only file.
func (p *Pipeline) IndexDocuments(ctx context.Context, paths []string) (time.Duration, error) {
	start := time.Now()
	if len(paths) == 0 {
		return 0, ragerr.New(ragerr.CodeIngestInputInvalid, "no files provided for indexing")
	}
	if err := sysres.EnsureMemory(ctx, p.opts.Probe, p.opts.MemoryFloor); err != nil {
		return 0, err
	}

	var chunks []store.Chunk
	for _, path := range paths {
		fileChunks, err := p.chunkFile(ctx, path)
		if err != nil {
			if len(paths) == 1 {
				return 0, ragerr.Wrap(err, ragerr.CodeIngestPipelineFailure, "indexing document", ragerr.FieldPath(path))
			}
			slog.Warn("skipping document", "path", path, "error", err, "code", ragerr.CodeOf(err))
			continue
		}
		chunks = append(chunks, fileChunks...)
	}
	if len(chunks) == 0 {
		return 0, ragerr.New(ragerr.CodeIngestContentInvalid, "no valid content found in documents", ragerr.Field("files", len(paths)))
	}

	// Only the new chunks are embedded; existing rows keep their vectors.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.opts.Embedder.Embed(ctx, texts, embed.BatchSize(p.Len()+len(chunks)))
	if err != nil {
		return 0, ragerr.Wrap(err, ragerr.CodeIngestPipelineFailure, "embedding documents")
	}

	if err := p.commit(ctx, chunks, vectors); err != nil {
		return 0, ragerr.Wrap(err, ragerr.CodeIngestPipelineFailure, "indexing documents")
	}

	elapsed := time.Since(start)
	slog.Info("indexed documents",
		"provider", p.opts.Provider.Name(), "files", len(paths), "chunks", len(chunks),
		"total_chunks", p.Len(), "elapsed", elapsed)
	return elapsed, nil
}

// commit appends chunks and vectors and persists the result, undoing the
// in-memory append if any step fails.
func (p *Pipeline) commit(ctx context.Context, chunks []store.Chunk, vectors [][]float32) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.docs.Len()
	created := false
	defer func() {
		if err == nil {
			return
		}
		p.docs.Truncate(before)
		switch {
		case created:
			_ = p.ix.Close()
			p.ix = nil
		case p.ix != nil:
			if terr := p.ix.Truncate(ctx, before); terr != nil {
				slog.Error("rolling back index append", "error", terr, "rows", before)
			}
		}
	}()

	p.docs.Append(chunks...)

	if p.ix == nil {
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return ragerr.New(ragerr.CodeIndexDimensionInvalid, "embedding model returned empty vectors")
		}
		ix, err := p.opts.Backend.Create(len(vectors[0]))
		if err != nil {
			return err
		}
		p.ix, created = ix, true
	}
	if err := index.CheckDimensions(p.ix.Dimension(), vectors); err != nil {
		return err
	}
	if err := p.ix.Add(ctx, vectors); err != nil {
		return err
	}
	if p.ix.Len() != p.docs.Len() {
		return ragerr.Errorf(ragerr.CodeIndexWriteFailure,
			"index has %d rows for %d chunks", p.ix.Len(), p.docs.Len())
	}

	return p.pair.Save(ctx, p.ix, p.docs.All())
}

// chunkFile extracts one PDF and segments each non-blank page.
func (p *Pipeline) chunkFile(ctx context.Context, path string) ([]store.Chunk, error) {
	doc, err := p.opts.Extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	info := docinfo.Summarize(p.opts.Analyzer, path, doc.Pages, doc.Metadata)

	var out []store.Chunk
	for page, text := range doc.Pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		marked := docinfo.MarkHeadings(p.opts.Analyzer, text)
		for i, piece := range segment.Split(marked, p.opts.ChunkSize, p.opts.ChunkOverlap) {
			c, err := store.NewChunk(store.Chunk{
				Content:    piece,
				FilePath:   path,
				Filename:   filepath.Base(path),
				Page:       page,
				ChunkIndex: i,
				Title:      info.Title,
				Author:     info.Author,
				PageCount:  info.PageCount,
				Size:       info.Size,
			})
			if err != nil {
				continue
			}
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ragerr.New(ragerr.CodeIngestContentInvalid, "no text chunks extracted", ragerr.FieldPath(path))
	}
	slog.Debug("chunked document", "path", path, "title", info.Title, "pages", info.PageCount, "chunks", len(out))
	return out, nil
}

// Indexer indexes a batch of files.
type Indexer interface {
	IndexDocuments(ctx context.Context, paths []string) (time.Duration, error)
}

// IndexWithTimeout runs ix.IndexDocuments under a watchdog. On timeout it
// returns ingest.watchdog.timeout without waiting; the indexing call keeps
// running in the background and its result is only logged.
func IndexWithTimeout(ctx context.Context, ix Indexer, paths []string, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		return ix.IndexDocuments(ctx, paths)
	}

	type result struct {
		elapsed time.Duration
		err     error
	}
	done := make(chan result, 1)
	// The work is detached from ctx so a timed-out call can finish cleanly.
	work := context.WithoutCancel(ctx)
	go func() {
		elapsed, err := ix.IndexDocuments(work, paths)
		done <- result{elapsed, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.elapsed, r.err
	case <-timer.C:
		go func() {
			r := <-done
			slog.Warn("indexing finished after watchdog timeout", "paths", paths, "elapsed", r.elapsed, "error", r.err)
		}()
		return 0, ragerr.New(ragerr.CodeIngestWatchdogTimeout,
			"indexing timed out after "+timeout.String(), ragerr.Field("paths", paths))
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
