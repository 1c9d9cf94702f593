// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package indextest holds the behaviour every index.Backend must satisfy.
package indextest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectors() [][]float32 {
	return [][]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
		{1, 0, 0},
	}
}

func newIndex(t *testing.T, b index.Backend) index.Index {
	t.Helper()
	ix, err := b.Create(3)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	require.NoError(t, ix.Add(context.Background(), vectors()))
	return ix
}

// Run exercises b against the shared index contract.
func Run(t *testing.T, b index.Backend) {
	t.Run("create rejects bad dimension", func(t *testing.T) {
		_, err := b.Create(0)
		require.Error(t, err)
		assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexDimensionInvalid))
	})

	t.Run("search orders by distance then row", func(t *testing.T) {
		ix := newIndex(t, b)
		assert.Equal(t, 5, ix.Len())
		assert.Equal(t, 3, ix.Dimension())

		hits, err := ix.Search(context.Background(), []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, 1, hits[0].Row)
		assert.Equal(t, 4, hits[1].Row)
		assert.Equal(t, 0, hits[2].Row)
		assert.InDelta(t, 0, hits[0].Distance, 1e-5)
		assert.InDelta(t, 1, hits[2].Distance, 1e-5)
	})

	t.Run("k larger than len returns all rows", func(t *testing.T) {
		ix := newIndex(t, b)
		hits, err := ix.Search(context.Background(), []float32{0, 0, 3}, 50)
		require.NoError(t, err)
		require.Len(t, hits, 5)
		assert.Equal(t, 3, hits[0].Row)
		assert.Equal(t, 2, hits[len(hits)-1].Row)
		assert.InDelta(t, 13, hits[len(hits)-1].Distance, 1e-4)
	})

	t.Run("empty index returns nothing", func(t *testing.T) {
		ix, err := b.Create(3)
		require.NoError(t, err)
		defer func() { _ = ix.Close() }()
		hits, err := ix.Search(context.Background(), []float32{1, 1, 1}, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		ix := newIndex(t, b)
		err := ix.Add(context.Background(), [][]float32{{1, 2}})
		require.Error(t, err)
		assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexDimensionInvalid))
		assert.Equal(t, 5, ix.Len())

		_, err = ix.Search(context.Background(), []float32{1}, 1)
		require.Error(t, err)
	})

	t.Run("vectors round trip in row order", func(t *testing.T) {
		ix := newIndex(t, b)
		got, err := ix.Vectors(context.Background())
		require.NoError(t, err)
		assert.Equal(t, vectors(), got)
	})

	t.Run("truncate undoes an append", func(t *testing.T) {
		ix := newIndex(t, b)
		require.NoError(t, ix.Add(context.Background(), [][]float32{{9, 9, 9}}))
		require.Equal(t, 6, ix.Len())

		require.NoError(t, ix.Truncate(context.Background(), 5))
		assert.Equal(t, 5, ix.Len())
		got, err := ix.Vectors(context.Background())
		require.NoError(t, err)
		assert.Equal(t, vectors(), got)

		require.NoError(t, ix.Add(context.Background(), [][]float32{{2, 2, 2}}))
		hits, err := ix.Search(context.Background(), []float32{2, 2, 2}, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, hits[0].Row)

		assert.Error(t, ix.Truncate(context.Background(), 99))
	})

	t.Run("save and load", func(t *testing.T) {
		ix := newIndex(t, b)
		path := filepath.Join(t.TempDir(), b.FileName())
		require.NoError(t, ix.Save(context.Background(), path))

		loaded, err := b.Load(context.Background(), path)
		require.NoError(t, err)
		defer func() { _ = loaded.Close() }()

		assert.Equal(t, 3, loaded.Dimension())
		assert.Equal(t, 5, loaded.Len())
		got, err := loaded.Vectors(context.Background())
		require.NoError(t, err)
		assert.Equal(t, vectors(), got)

		require.NoError(t, loaded.Add(context.Background(), [][]float32{{5, 5, 5}}))
		assert.Equal(t, 6, loaded.Len())
	})

	t.Run("load missing file", func(t *testing.T) {
		_, err := b.Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
	})

	t.Run("rebuild", func(t *testing.T) {
		ix, err := index.Rebuild(context.Background(), b, 3, vectors()[2:])
		require.NoError(t, err)
		defer func() { _ = ix.Close() }()
		assert.Equal(t, 3, ix.Len())
		hits, err := ix.Search(context.Background(), []float32{0, 2, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, hits[0].Row)
	})
}
