// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package segment_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphs(n, width int) []string {
	out := make([]string, n)
	for i := range out {
		word := fmt.Sprintf("p%03d", i)
		out[i] = strings.TrimSpace(strings.Repeat(word+" ", width/(len(word)+1)))
	}
	return out
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph."
	chunks := segment.Split(text, segment.DefaultSize, segment.DefaultOverlap)

	require.Len(t, chunks, 1)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", chunks[0])
}

func TestSplit_EmptyAndBlankInput(t *testing.T) {
	assert.Empty(t, segment.Split("", 100, 10))
	assert.Empty(t, segment.Split("   \n\n \t\n\n", 100, 10))
}

func TestSplit_EveryParagraphIsCovered(t *testing.T) {
	paras := paragraphs(40, 200)
	chunks := segment.Split(strings.Join(paras, "\n\n"), 1200, 150)
	require.Greater(t, len(chunks), 1)

	joined := strings.Join(chunks, "\n")
	for _, p := range paras {
		assert.Contains(t, joined, p)
	}
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplit_NextChunkStartsWithOverlap(t *testing.T) {
	paras := paragraphs(20, 300)
	overlap := 50
	chunks := segment.Split(strings.Join(paras, "\n\n"), 700, overlap)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		want := string(prev[len(prev)-overlap:])
		assert.True(t, strings.HasPrefix(chunks[i], want), "chunk %d should start with tail of chunk %d", i, i-1)
	}
}

func TestSplit_OverlapKeepsSurroundingWhitespace(t *testing.T) {
	chunks := segment.Split("aaaa bbbbbbbbb\n\ncccccccccc", 20, 10)

	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa bbbbbbbbb", chunks[0])
	assert.Equal(t, " bbbbbbbbb\n\ncccccccccc", chunks[1])
}

func TestSplit_OversizedParagraphIsNotSplit(t *testing.T) {
	big := strings.Repeat("x", 3000)
	text := "intro\n\n" + big + "\n\noutro"
	chunks := segment.Split(text, 1200, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, "intro", chunks[0])
	assert.Equal(t, big, chunks[1])
	assert.Equal(t, "outro", chunks[2])
}

func TestSplit_CapsChunkCount(t *testing.T) {
	paras := make([]string, segment.MaxChunks+500)
	for i := range paras {
		paras[i] = fmt.Sprintf("paragraph number %d", i)
	}
	chunks := segment.Split(strings.Join(paras, "\n\n"), 10, 0)
	assert.Len(t, chunks, segment.MaxChunks)
}

func TestSplit_BlankLinesWithWhitespaceSeparateParagraphs(t *testing.T) {
	chunks := segment.Split("alpha\n   \nbeta", 8, 0)
	assert.Equal(t, []string{"alpha", "beta"}, chunks)
}
