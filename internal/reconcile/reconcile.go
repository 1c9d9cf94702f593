// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package reconcile indexes PDFs that are present in the documents
// directory but missing from one or more pipelines.
package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Watch waits after the last change before
// running a pass.
const DefaultSettle = 2 * time.Second

// Indexer is the registry surface the worker drives.
type Indexer interface {
	Pending(paths []string) map[string][]string
	Index(ctx context.Context, name string, paths []string, timeout time.Duration) (time.Duration, error)
}

// Result summarizes one pass.
type Result struct {
	// Skipped is set when another pass was already running.
	Skipped bool
	Found   int
	// Indexed counts the files submitted per pipeline that indexed cleanly.
	Indexed map[string]int
	Failed  map[string]error
}

// Worker runs reconciliation passes. At most one pass runs at a time;
// overlapping requests are dropped rather than queued.
type Worker struct {
	dir     string
	idx     Indexer
	timeout time.Duration
	settle  time.Duration

	running atomic.Bool
}

// New creates a worker over the documents directory dir. Each pipeline's
// batch is bounded by timeout when it is positive.
func New(dir string, idx Indexer, timeout time.Duration) *Worker {
	return &Worker{dir: dir, idx: idx, timeout: timeout, settle: DefaultSettle}
}

// SetSettle overrides the Watch debounce interval.
func (w *Worker) SetSettle(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

// Running reports whether a pass is in progress.
func (w *Worker) Running() bool { return w.running.Load() }

// Start runs one pass in the background.
func (w *Worker) Start(ctx context.Context) {
	go w.runLogged(ctx)
}

// Run performs a pass: every PDF in the directory that a pipeline has not
// indexed is submitted to that pipeline.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	if !w.running.CompareAndSwap(false, true) {
		return Result{Skipped: true}, nil
	}
	defer w.running.Store(false)

	paths, err := ListPDFs(w.dir)
	if err != nil {
		return Result{}, err
	}
	res := Result{Found: len(paths), Indexed: map[string]int{}, Failed: map[string]error{}}
	if len(paths) == 0 {
		return res, nil
	}

	pending := w.idx.Pending(paths)
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch := pending[name]
		slog.Info("indexing documents found on disk", "provider", name, "files", len(batch))
		if _, err := w.idx.Index(ctx, name, batch, w.timeout); err != nil {
			slog.Error("reconciling documents", "provider", name, "error", err)
			res.Failed[name] = err
			continue
		}
		res.Indexed[name] = len(batch)
	}
	return res, nil
}

func (w *Worker) runLogged(ctx context.Context) {
	res, err := w.Run(ctx)
	switch {
	case err != nil:
		slog.Error("document reconciliation failed", "dir", w.dir, "error", err)
	case res.Skipped:
		slog.Debug("document reconciliation already running")
	default:
		slog.Info("document reconciliation finished", "dir", w.dir, "found", res.Found, "failed", len(res.Failed))
	}
}

// Watch re-runs reconciliation whenever PDFs are created or rewritten in
// the documents directory, once changes have been quiet for the settle
// interval. It blocks until ctx is done.
func (w *Worker) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "creating documents directory", ragerr.FieldPath(w.dir))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "creating document watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "watching documents directory", ragerr.FieldPath(w.dir))
	}
	slog.Info("watching documents directory", "dir", w.dir)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			slog.Debug("document change", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("document watcher error", "error", err)
		case <-fire:
			fire = nil
			w.runLogged(ctx)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	return pdf.IsPDF(ev.Name)
}

// ListPDFs returns the PDF files directly inside dir in name order. A
// missing directory holds no PDFs.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeIngestInputInvalid, "listing documents directory", ragerr.FieldPath(dir))
	}

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !pdf.IsPDF(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
