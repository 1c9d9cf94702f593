// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package store_test

import (
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(t *testing.T, file, content string) store.Chunk {
	t.Helper()
	c, err := store.NewChunk(store.Chunk{Content: content, Filename: file, FilePath: "/docs/" + file, PageCount: 2, Title: file})
	require.NoError(t, err)
	return c
}

func TestNewChunk(t *testing.T) {
	a := chunk(t, "a.pdf", "alpha")
	b := chunk(t, "a.pdf", "alpha")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	_, err := store.NewChunk(store.Chunk{Content: "  \n", Filename: "a.pdf"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestContentInvalid))

	_, err = store.NewChunk(store.Chunk{Content: "text"})
	require.Error(t, err)
}

func TestDocuments(t *testing.T) {
	d := store.NewDocuments(nil)
	d.Append(chunk(t, "a.pdf", "one"), chunk(t, "b.pdf", "two"), chunk(t, "a.pdf", "three"))

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, d.Files())
	assert.True(t, d.Contains("b.pdf"))
	assert.False(t, d.Contains("c.pdf"))

	c, ok := d.At(2)
	require.True(t, ok)
	assert.Equal(t, "three", c.Content)
	_, ok = d.At(3)
	assert.False(t, ok)

	kept, rows, removed := d.Partition("a.pdf")
	assert.Equal(t, 2, removed)
	assert.Equal(t, []int{1}, rows)
	require.Len(t, kept, 1)
	assert.Equal(t, "two", kept[0].Content)

	sums := d.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, "a.pdf", sums[0].Filename)
	assert.Equal(t, 2, sums[0].Chunks)
	assert.Equal(t, 1, sums[1].Chunks)

	d.Truncate(1)
	assert.Equal(t, 1, d.Len())
	d.Truncate(5)
	assert.Equal(t, 1, d.Len())
}

func TestDocumentsAllIsCopy(t *testing.T) {
	d := store.NewDocuments([]store.Chunk{chunk(t, "a.pdf", "one")})
	all := d.All()
	all[0].Content = "changed"

	c, _ := d.At(0)
	assert.Equal(t, "one", c.Content)
}
