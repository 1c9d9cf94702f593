// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package hashing is a local embedding model based on signed feature hashing
// of words and word bigrams. It needs no network access or model files.
package hashing

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const DefaultDimensions = 384

// Model hashes tokens into a fixed number of buckets and L2-normalizes the result.
type Model struct {
	dim int
}

// New returns a Model producing vectors of dim components.
func New(dim int) *Model {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &Model{dim: dim}
}

func (m *Model) Name() string   { return "hashing" }
func (m *Model) Dimension() int { return m.dim }

func (m *Model) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *Model) vector(text string) []float32 {
	v := make([]float32, m.dim)
	tokens := tokenize(text)

	for i, tok := range tokens {
		m.add(v, tok, 1)
		if i > 0 {
			m.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (m *Model) add(v []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(m.dim)
	if h>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
