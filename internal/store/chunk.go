// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package store holds the ordered chunk store and persists it together with
// its vector index.
package store

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// Chunk is one indexed unit of text and its provenance.
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	FilePath   string `json:"file_path"`
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	PageCount  int    `json:"page_count"`
	Size       int64  `json:"size"`
}

// NewChunk validates c and assigns it a fresh ID.
func NewChunk(c Chunk) (Chunk, error) {
	if strings.TrimSpace(c.Content) == "" {
		return Chunk{}, ragerr.New(ragerr.CodeIngestContentInvalid, "chunk content is empty", ragerr.FieldFile(c.Filename))
	}
	if c.Filename == "" {
		return Chunk{}, ragerr.New(ragerr.CodeIngestContentInvalid, "chunk has no source filename", ragerr.FieldPath(c.FilePath))
	}
	c.ID = uuid.NewString()
	return c, nil
}

// Documents is the ordered chunk store. Position i pairs with index row i.
// It is not safe for concurrent mutation; the pipeline serializes writers.
type Documents struct {
	chunks []Chunk
}

// NewDocuments returns a store holding chunks.
func NewDocuments(chunks []Chunk) *Documents {
	return &Documents{chunks: slices.Clone(chunks)}
}

func (d *Documents) Len() int { return len(d.chunks) }

// At returns the chunk at row i.
func (d *Documents) At(i int) (Chunk, bool) {
	if i < 0 || i >= len(d.chunks) {
		return Chunk{}, false
	}
	return d.chunks[i], true
}

// All returns a copy of every chunk in row order.
func (d *Documents) All() []Chunk {
	return slices.Clone(d.chunks)
}

// Append adds chunks at the end.
func (d *Documents) Append(chunks ...Chunk) {
	d.chunks = append(d.chunks, chunks...)
}

// Truncate drops every chunk from row n on. It undoes a failed Append.
func (d *Documents) Truncate(n int) {
	if n >= 0 && n < len(d.chunks) {
		clear(d.chunks[n:])
		d.chunks = d.chunks[:n]
	}
}

// Partition splits rows into chunks not belonging to filename (with their
// original rows) and a count of removed chunks.
func (d *Documents) Partition(filename string) (kept []Chunk, rows []int, removed int) {
	for i, c := range d.chunks {
		if c.Filename == filename {
			removed++
			continue
		}
		kept = append(kept, c)
		rows = append(rows, i)
	}
	return kept, rows, removed
}

// Contains reports whether any chunk came from filename.
func (d *Documents) Contains(filename string) bool {
	return slices.ContainsFunc(d.chunks, func(c Chunk) bool { return c.Filename == filename })
}

// Files lists distinct source filenames in first-indexed order.
func (d *Documents) Files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range d.chunks {
		if !seen[c.Filename] {
			seen[c.Filename] = true
			out = append(out, c.Filename)
		}
	}
	return out
}

// FileSummary describes one indexed source document.
type FileSummary struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Pages    int    `json:"pages"`
	Size     int64  `json:"size"`
	Chunks   int    `json:"chunks"`
}

// Summaries aggregates chunks per source file, in first-indexed order.
func (d *Documents) Summaries() []FileSummary {
	pos := make(map[string]int)
	var out []FileSummary
	for _, c := range d.chunks {
		i, ok := pos[c.Filename]
		if !ok {
			i = len(out)
			pos[c.Filename] = i
			out = append(out, FileSummary{
				Filename: c.Filename,
				Title:    c.Title,
				Author:   c.Author,
				Pages:    c.PageCount,
				Size:     c.Size,
			})
		}
		out[i].Chunks++
	}
	return out
}
