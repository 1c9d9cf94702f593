// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package flat is an in-process brute-force L2 index persisted as a single
// little-endian binary file.
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const (
	Name     = "flat"
	FileName = "index.bin"

	formatVersion uint32 = 1
)

var magic = [8]byte{'L', 'R', 'A', 'G', 'F', 'L', 'A', 'T'}

func init() {
	index.RegisterBackend(Backend{})
}

// Backend creates and loads flat indexes.
type Backend struct{}

func (Backend) Name() string     { return Name }
func (Backend) FileName() string { return FileName }

func (Backend) Create(dim int) (index.Index, error) {
	return New(dim)
}

func (Backend) Load(_ context.Context, path string) (index.Index, error) {
	return Load(path)
}

// Index stores vectors contiguously in memory.
type Index struct {
	mu   sync.RWMutex
	dim  int
	data []float32
}

var _ index.Index = (*Index)(nil)

// New creates an empty index. dim must be positive.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeIndexDimensionInvalid, "flat index: dimension must be positive, got %d", dim)
	}
	return &Index{dim: dim}, nil
}

func (ix *Index) Dimension() int { return ix.dim }

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.data) / ix.dim
}

func (ix *Index) Add(_ context.Context, vectors [][]float32) error {
	if err := index.CheckDimensions(ix.dim, vectors); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, v := range vectors {
		ix.data = append(ix.data, v...)
	}
	return nil
}

func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]index.Hit, error) {
	if len(query) != ix.dim {
		return nil, ragerr.Errorf(ragerr.CodeIndexDimensionInvalid, "flat index: query has dimension %d, index expects %d", len(query), ix.dim)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.data) / ix.dim
	if k <= 0 || n == 0 {
		return nil, nil
	}

	hits := make([]index.Hit, n)
	for row := range n {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		off := row * ix.dim
		hits[row] = index.Hit{Row: row, Distance: index.SquaredL2(query, ix.data[off:off+ix.dim])}
	}
	index.SortHits(hits)
	return hits[:min(k, n)], nil
}

func (ix *Index) Vectors(_ context.Context) ([][]float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.data) / ix.dim
	out := make([][]float32, n)
	for row := range n {
		off := row * ix.dim
		out[row] = append([]float32(nil), ix.data[off:off+ix.dim]...)
	}
	return out, nil
}

func (ix *Index) Truncate(_ context.Context, n int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if n < 0 || n*ix.dim > len(ix.data) {
		return ragerr.Errorf(ragerr.CodeIndexWriteFailure, "flat index: cannot truncate %d rows to %d", len(ix.data)/ix.dim, n)
	}
	ix.data = ix.data[:n*ix.dim]
	return nil
}

type header struct {
	Magic   [8]byte
	Version uint32
	Dim     uint32
	Count   uint64
}

func (ix *Index) Save(_ context.Context, path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "creating index file", ragerr.FieldPath(path))
	}

	w := bufio.NewWriter(f)
	h := header{Magic: magic, Version: formatVersion, Dim: uint32(ix.dim), Count: uint64(len(ix.data) / ix.dim)}
	err = binary.Write(w, binary.LittleEndian, h)
	if err == nil {
		err = binary.Write(w, binary.LittleEndian, ix.data)
	}
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "writing index file", ragerr.FieldPath(path))
	}
	return nil
}

// Load reads an index written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "opening index file", ragerr.FieldPath(path))
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "reading index file", ragerr.FieldPath(path))
	}

	r := bufio.NewReader(f)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "reading index header", ragerr.FieldPath(path))
	}
	if h.Magic != magic || h.Version != formatVersion || h.Dim == 0 {
		return nil, ragerr.Errorf(ragerr.CodeIndexReadFailure, "%s is not a flat index (version %d)", path, h.Version)
	}

	if !sizeMatches(uint64(st.Size()), h) {
		return nil, ragerr.Errorf(ragerr.CodeIndexReadFailure, "%s: header claims %d vectors of dimension %d but file has %d bytes", path, h.Count, h.Dim, st.Size())
	}

	data := make([]float32, int(h.Count)*int(h.Dim))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ragerr.Errorf(ragerr.CodeIndexReadFailure, "%s is truncated: %w", path, err)
		}
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "reading index vectors", ragerr.FieldPath(path))
	}
	return &Index{dim: int(h.Dim), data: data}, nil
}

// sizeMatches reports whether a file of size bytes holds exactly the vectors
// its header describes.
func sizeMatches(size uint64, h header) bool {
	hdr := uint64(binary.Size(h))
	if size < hdr {
		return false
	}
	row := uint64(h.Dim) * 4
	body := size - hdr
	if body%row != 0 {
		return false
	}
	return body/row == h.Count
}

func (ix *Index) Close() error { return nil }
