// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package sqlitevec is an index backend built on the sqlite-vec vec0 virtual
// table. The working index lives in an in-memory SQLite database and is
// persisted with VACUUM INTO.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const (
	Name     = "sqlite-vec"
	FileName = "index.db"
)

func init() {
	sqlite_vec.Auto()
	index.RegisterBackend(Backend{})
}

// Backend creates and loads sqlite-vec indexes.
type Backend struct{}

func (Backend) Name() string     { return Name }
func (Backend) FileName() string { return FileName }

func (Backend) Create(dim int) (index.Index, error) {
	return New(dim)
}

func (Backend) Load(ctx context.Context, path string) (index.Index, error) {
	return Load(ctx, path)
}

// Index keeps row i of the index at vec0 rowid i+1.
type Index struct {
	mu  sync.RWMutex
	db  *sql.DB
	dim int
	n   int
}

var _ index.Index = (*Index)(nil)

func openMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory sqlite: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging in-memory sqlite: %w", err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB, dim int) error {
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(embedding float[%d])`, dim)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating vectors virtual table: %w", err)
	}

	const metaDDL = `CREATE TABLE IF NOT EXISTS index_meta (dim INTEGER NOT NULL)`
	if _, err := db.ExecContext(ctx, metaDDL); err != nil {
		return fmt.Errorf("creating index_meta table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("resetting index_meta: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO index_meta(dim) VALUES (?)`, dim); err != nil {
		return fmt.Errorf("recording dimension: %w", err)
	}
	return nil
}

// New creates an empty in-memory index.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeIndexDimensionInvalid, "sqlite-vec index: dimension must be positive, got %d", dim)
	}
	db, err := openMemory()
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "creating sqlite-vec index")
	}
	if err := migrate(context.Background(), db, dim); err != nil {
		_ = db.Close()
		return nil, ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "creating sqlite-vec index")
	}
	return &Index{db: db, dim: dim}, nil
}

// Load copies a persisted index file into a fresh in-memory index.
func Load(ctx context.Context, path string) (*Index, error) {
	src, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "opening index file", ragerr.FieldPath(path))
	}
	var dim int
	err = src.QueryRowContext(ctx, `SELECT dim FROM index_meta LIMIT 1`).Scan(&dim)
	_ = src.Close()
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "reading index dimension", ragerr.FieldPath(path))
	}

	ix, err := New(dim)
	if err != nil {
		return nil, err
	}
	if err := ix.copyFrom(ctx, path); err != nil {
		_ = ix.Close()
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "loading index rows", ragerr.FieldPath(path))
	}
	return ix, nil
}

func (ix *Index) copyFrom(ctx context.Context, path string) error {
	conn, err := ix.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS src`, path); err != nil {
		return fmt.Errorf("attaching %s: %w", path, err)
	}
	defer func() { _, _ = conn.ExecContext(context.Background(), `DETACH DATABASE src`) }()

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO main.vectors(rowid, embedding) SELECT rowid, embedding FROM src.vectors ORDER BY rowid`); err != nil {
		return fmt.Errorf("copying vectors: %w", err)
	}
	return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM main.vectors`).Scan(&ix.n)
}

func (ix *Index) Dimension() int { return ix.dim }

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.n
}

func (ix *Index) Add(ctx context.Context, vectors [][]float32) error {
	if err := index.CheckDimensions(ix.dim, vectors); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors(rowid, embedding) VALUES (?, ?)`)
	if err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "preparing insert")
	}
	defer func() { _ = stmt.Close() }()

	for i, v := range vectors {
		blob, err := sqlite_vec.SerializeFloat32(v)
		if err != nil {
			return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "serializing vector")
		}
		if _, err := stmt.ExecContext(ctx, ix.n+i+1, blob); err != nil {
			return ragerr.Wrapf(err, ragerr.CodeIndexWriteFailure, "inserting row %d", ix.n+i)
		}
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "committing vectors")
	}
	ix.n += len(vectors)
	return nil
}

func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]index.Hit, error) {
	if len(query) != ix.dim {
		return nil, ragerr.Errorf(ragerr.CodeIndexDimensionInvalid, "sqlite-vec index: query has dimension %d, index expects %d", len(query), ix.dim)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || ix.n == 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "serializing query vector")
	}

	const q = `SELECT rowid, distance FROM vectors
WHERE embedding MATCH ? AND k = ?
ORDER BY distance`

	rows, err := ix.db.QueryContext(ctx, q, blob, min(k, ix.n))
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	var hits []index.Hit
	for rows.Next() {
		var rowid int64
		var dist float64
		if err := rows.Scan(&rowid, &dist); err != nil {
			return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "scanning search result")
		}
		// vec0 reports Euclidean distance; callers compare squared L2.
		hits = append(hits, index.Hit{Row: int(rowid - 1), Distance: float32(dist * dist)})
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "iterating search results")
	}
	index.SortHits(hits)
	return hits, nil
}

func (ix *Index) Vectors(ctx context.Context) ([][]float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rows, err := ix.db.QueryContext(ctx, `SELECT embedding FROM vectors ORDER BY rowid`)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "reading vectors")
	}
	defer func() { _ = rows.Close() }()

	out := make([][]float32, 0, ix.n)
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "scanning vector")
		}
		out = append(out, decode(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIndexReadFailure, "iterating vectors")
	}
	return out, nil
}

func decode(blob []byte) []float32 {
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}

func (ix *Index) Truncate(ctx context.Context, n int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if n < 0 || n > ix.n {
		return ragerr.Errorf(ragerr.CodeIndexWriteFailure, "sqlite-vec index: cannot truncate %d rows to %d", ix.n, n)
	}
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM vectors WHERE rowid > ?`, n); err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "truncating vectors")
	}
	ix.n = n
	return nil
}

func (ix *Index) Save(ctx context.Context, path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if _, err := ix.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return ragerr.Wrap(err, ragerr.CodeIndexWriteFailure, "writing index file", ragerr.FieldPath(path))
	}
	return nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}
