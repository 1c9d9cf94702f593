// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/index"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

const (
	DocumentsFile = "documents.json"

	backupSuffix = ".bak"
	tmpSuffix    = ".tmp"

	documentsVersion = 1
)

type documentsFile struct {
	Version int     `json:"version"`
	Chunks  []Chunk `json:"chunks"`
}

// Pair persists an index file and documents.json side by side in Dir.
// Both files are replaced together: existing files are renamed to .bak,
// the new ones are written through .tmp files, and the backups are put
// back if anything fails.
type Pair struct {
	Dir     string
	Backend index.Backend
}

func (p Pair) indexPath() string     { return filepath.Join(p.Dir, p.Backend.FileName()) }
func (p Pair) documentsPath() string { return filepath.Join(p.Dir, DocumentsFile) }

func (p Pair) paths() []string { return []string{p.indexPath(), p.documentsPath()} }

// Exists reports whether both files are present.
func (p Pair) Exists() bool {
	for _, path := range p.paths() {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// Save writes ix and chunks. They must have the same length.
func (p Pair) Save(ctx context.Context, ix index.Index, chunks []Chunk) error {
	if ix == nil || ix.Len() != len(chunks) {
		n := -1
		if ix != nil {
			n = ix.Len()
		}
		return ragerr.Errorf(ragerr.CodeStorePersistFailure, "refusing to persist %d chunks with %d index rows", len(chunks), n)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "creating store directory", ragerr.FieldPath(p.Dir))
	}

	backups, err := p.backup()
	if err != nil {
		return err
	}

	if err := p.write(ctx, ix, chunks); err != nil {
		if rerr := p.restore(backups); rerr != nil {
			return ragerr.Join(err, rerr)
		}
		return err
	}

	for _, b := range backups {
		if err := os.Remove(b); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("removing store backup", "path", b, "error", err)
		}
	}
	return nil
}

// backup renames current files to .bak and returns the backups made.
func (p Pair) backup() ([]string, error) {
	var made []string
	for _, path := range p.paths() {
		bak := path + backupSuffix
		_ = os.Remove(bak)
		if err := os.Rename(path, bak); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if rerr := p.restore(made); rerr != nil {
				return nil, ragerr.Join(err, rerr)
			}
			return nil, ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "backing up store file", ragerr.FieldPath(path))
		}
		made = append(made, bak)
	}
	return made, nil
}

func (p Pair) write(ctx context.Context, ix index.Index, chunks []Chunk) error {
	idxPath := p.indexPath()
	idxTmp := idxPath + tmpSuffix
	_ = os.Remove(idxTmp)
	if err := ix.Save(ctx, idxTmp); err != nil {
		_ = os.Remove(idxTmp)
		return ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "writing index", ragerr.FieldPath(idxPath))
	}
	if err := os.Rename(idxTmp, idxPath); err != nil {
		_ = os.Remove(idxTmp)
		return ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "replacing index", ragerr.FieldPath(idxPath))
	}

	docPath := p.documentsPath()
	if err := writeJSON(docPath+tmpSuffix, documentsFile{Version: documentsVersion, Chunks: chunks}); err != nil {
		_ = os.Remove(idxPath)
		return ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "writing documents", ragerr.FieldPath(docPath))
	}
	if err := os.Rename(docPath+tmpSuffix, docPath); err != nil {
		_ = os.Remove(docPath + tmpSuffix)
		_ = os.Remove(idxPath)
		return ragerr.Wrap(err, ragerr.CodeStorePersistFailure, "replacing documents", ragerr.FieldPath(docPath))
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	err = enc.Encode(v)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

// restore moves backups back over their originals.
func (p Pair) restore(backups []string) error {
	var errs []error
	for _, bak := range backups {
		orig := bak[:len(bak)-len(backupSuffix)]
		_ = os.Remove(orig)
		if err := os.Rename(bak, orig); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return ragerr.Wrap(errors.Join(errs...), ragerr.CodeStoreRestoreFailure, "restoring store backups", ragerr.FieldPath(p.Dir))
	}
	return nil
}

// Load reads the persisted pair. A missing, half-present or mismatched pair
// yields (nil, nil, nil): the caller starts empty. Backups left by an
// interrupted Save are restored first.
func (p Pair) Load(ctx context.Context) (index.Index, []Chunk, error) {
	p.recoverBackups()

	present := 0
	for _, path := range p.paths() {
		if _, err := os.Stat(path); err == nil {
			present++
		}
	}
	switch present {
	case 0:
		return nil, nil, nil
	case 1:
		slog.Warn("persisted store is incomplete, starting empty", "dir", p.Dir)
		return nil, nil, nil
	}

	chunks, err := readDocuments(p.documentsPath())
	if err != nil {
		slog.Warn("persisted documents unreadable, starting empty", "dir", p.Dir, "error", err)
		return nil, nil, nil
	}

	ix, err := p.Backend.Load(ctx, p.indexPath())
	if err != nil {
		slog.Warn("persisted index unreadable, starting empty", "dir", p.Dir, "error", err)
		return nil, nil, nil
	}

	if ix.Len() != len(chunks) {
		slog.Warn("persisted index and documents disagree, starting empty",
			"dir", p.Dir, "index_rows", ix.Len(), "chunks", len(chunks),
			"code", ragerr.CodeStoreLoadMismatch)
		_ = ix.Close()
		return nil, nil, nil
	}
	return ix, chunks, nil
}

func readDocuments(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f documentsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Version != documentsVersion {
		return nil, ragerr.Errorf(ragerr.CodeStoreLoadMismatch, "unsupported documents version %d", f.Version)
	}
	return f.Chunks, nil
}

func (p Pair) recoverBackups() {
	for _, path := range p.paths() {
		bak := path + backupSuffix
		if _, err := os.Stat(bak); err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(bak)
			continue
		}
		if err := os.Rename(bak, path); err != nil {
			slog.Warn("restoring store backup", "path", bak, "error", err)
		} else {
			slog.Info("restored store backup from interrupted save", "path", path)
		}
	}
}

// Remove deletes both files and any leftovers from earlier saves.
func (p Pair) Remove() error {
	var errs []error
	for _, path := range p.paths() {
		for _, f := range []string{path, path + backupSuffix, path + tmpSuffix} {
			if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return ragerr.Wrap(errors.Join(errs...), ragerr.CodeStorePersistFailure, "removing persisted store", ragerr.FieldPath(p.Dir))
	}
	return nil
}
