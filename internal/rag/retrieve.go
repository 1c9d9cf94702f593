// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/docinfo"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
)

// Lexical re-rank weights.
const (
	scorePhrase  = 10
	scoreWord    = 1
	scoreHeading = 3
	minWordLen   = 3
)

// Retrieve returns up to topK chunks for query, best first. The index is
// over-fetched by the configured factor, optionally filtered to one source
// filename, and re-ranked by lexical overlap. An empty index or an empty
// filtered pool yields no chunks and no error.
func (p *Pipeline) Retrieve(ctx context.Context, query string, topK int, filename string) ([]store.Chunk, error) {
	if topK <= 0 {
		topK = p.opts.TopK
	}
	if p.Len() == 0 {
		return nil, nil
	}

	vec, err := p.opts.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	pool, err := p.search(ctx, vec, p.opts.Overfetch*topK)
	if err != nil {
		return nil, err
	}

	if filename != "" {
		pool = slices.DeleteFunc(pool, func(c store.Chunk) bool { return c.Filename != filename })
	}
	if len(pool) == 0 {
		return nil, nil
	}

	ranked := Rerank(query, pool)
	return ranked[:min(topK, len(ranked))], nil
}

// search returns the chunks of the k nearest rows in distance order.
func (p *Pipeline) search(ctx context.Context, vec []float32, k int) ([]store.Chunk, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.ix == nil || p.docs.Len() == 0 {
		return nil, nil
	}
	k = min(k, p.docs.Len())

	hits, err := p.ix.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]store.Chunk, 0, len(hits))
	for _, h := range hits {
		if c, ok := p.docs.At(h.Row); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Rerank orders chunks by lexical relevance to query. The sort is stable,
// so chunks with equal scores keep their incoming (distance) order.
func Rerank(query string, chunks []store.Chunk) []store.Chunk {
	words := queryWords(query)
	phrase := strings.ToLower(strings.TrimSpace(query))

	type scored struct {
		chunk store.Chunk
		score int
	}
	ranked := make([]scored, len(chunks))
	for i, c := range chunks {
		ranked[i] = scored{chunk: c, score: lexicalScore(phrase, words, c.Content)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return b.score - a.score })

	out := make([]store.Chunk, len(ranked))
	for i, r := range ranked {
		out[i] = r.chunk
	}
	return out
}

func lexicalScore(phrase string, words []string, content string) int {
	lower := strings.ToLower(content)
	score := 0
	if phrase != "" && strings.Contains(lower, phrase) {
		score += scorePhrase
	}
	shared := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			shared++
		}
	}
	score += shared * scoreWord
	if shared > 0 && strings.Contains(content, strings.TrimSpace(docinfo.HeadingMarker)) {
		score += scoreHeading
	}
	return score
}

// queryWords returns the distinct lowercase words of query longer than two
// characters, with surrounding punctuation removed.
func queryWords(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		w := strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) < minWordLen || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
