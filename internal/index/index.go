// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package index defines the flat L2 vector index used for retrieval and the
// registry of its storage backends. Row i of an index always corresponds to
// entry i of the document store.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// Hit is a search result: a row position and its squared L2 distance.
type Hit struct {
	Row      int
	Distance float32
}

// Index is an exhaustive nearest-neighbour index over fixed-dimension vectors.
// Rows are append-only; Truncate exists only to undo a failed append.
type Index interface {
	Dimension() int
	Len() int
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k hits ordered by ascending distance, ties by row.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Vectors returns a copy of every stored vector in row order.
	Vectors(ctx context.Context) ([][]float32, error)
	Truncate(ctx context.Context, n int) error
	// Save writes the whole index to path, which must not exist.
	Save(ctx context.Context, path string) error
	Close() error
}

// Backend creates and loads indexes of one storage format.
type Backend interface {
	Name() string
	// FileName is the name of the persisted index inside a pipeline directory.
	FileName() string
	Create(dim int) (Index, error)
	Load(ctx context.Context, path string) (Index, error)
}

var (
	backends   = map[string]Backend{}
	backendsMu sync.RWMutex
)

// RegisterBackend makes a backend available by name. Backend packages call
// this from init().
func RegisterBackend(b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[b.Name()] = b
}

// Lookup returns the registered backend called name.
func Lookup(name string) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	b, ok := backends[name]
	if !ok {
		return nil, ragerr.New(ragerr.CodeIndexBackendUnsupported,
			fmt.Sprintf("unsupported index backend %q (registered: %v)", name, registeredLocked()),
			ragerr.FieldBackend(name))
	}
	return b, nil
}

// Registered lists registered backend names in sorted order.
func Registered() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return registeredLocked()
}

func registeredLocked() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rebuild creates a fresh index of dimension dim holding vectors.
func Rebuild(ctx context.Context, b Backend, dim int, vectors [][]float32) (Index, error) {
	ix, err := b.Create(dim)
	if err != nil {
		return nil, err
	}
	if err := ix.Add(ctx, vectors); err != nil {
		_ = ix.Close()
		return nil, err
	}
	return ix, nil
}

// CheckDimensions fails with index.dimension.invalid if any vector is not dim long.
func CheckDimensions(dim int, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != dim {
			return ragerr.New(ragerr.CodeIndexDimensionInvalid,
				fmt.Sprintf("vector %d has dimension %d, index expects %d", i, len(v), dim))
		}
	}
	return nil
}

// SquaredL2 is the distance used by every backend.
func SquaredL2(a, b []float32) float32 {
	var d float32
	for i := range a {
		x := a[i] - b[i]
		d += x * x
	}
	return d
}

// SortHits orders hits by distance, then row.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Row < hits[j].Row
	})
}
