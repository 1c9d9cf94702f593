// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package sqlitevec_test

import (
	"context"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index/indextest"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index/sqlitevec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract(t *testing.T) {
	indextest.Run(t, sqlitevec.Backend{})
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, index.Registered(), sqlitevec.Name)
}

func TestIndexesAreIsolated(t *testing.T) {
	a, err := sqlitevec.New(2)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := sqlitevec.New(2)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.NoError(t, a.Add(context.Background(), [][]float32{{1, 1}}))
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())

	got, err := b.Vectors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
