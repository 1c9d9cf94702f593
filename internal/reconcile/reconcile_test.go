// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexCall struct {
	name  string
	paths []string
}

// fakeIndexer reports every file as pending for each name in pipelines
// until it has been indexed there.
type fakeIndexer struct {
	mu        sync.Mutex
	pipelines []string
	indexed   map[string]map[string]bool
	calls     []indexCall
	fail      map[string]error
	gate      chan struct{}
	entered   chan struct{}
}

func newFakeIndexer(pipelines ...string) *fakeIndexer {
	return &fakeIndexer{
		pipelines: pipelines,
		indexed:   make(map[string]map[string]bool),
		fail:      make(map[string]error),
	}
}

func (f *fakeIndexer) Pending(paths []string) map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string)
	for _, name := range f.pipelines {
		for _, p := range paths {
			if !f.indexed[name][filepath.Base(p)] {
				out[name] = append(out[name], p)
			}
		}
	}
	return out
}

func (f *fakeIndexer) Index(_ context.Context, name string, paths []string, _ time.Duration) (time.Duration, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, indexCall{name: name, paths: paths})
	if err := f.fail[name]; err != nil {
		return 0, err
	}
	if f.indexed[name] == nil {
		f.indexed[name] = make(map[string]bool)
	}
	for _, p := range paths {
		f.indexed[name][filepath.Base(p)] = true
	}
	return time.Millisecond, nil
}

func (f *fakeIndexer) Calls() []indexCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]indexCall(nil), f.calls...)
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, dir, "b.pdf")
	a := touch(t, dir, "A.PDF")
	touch(t, dir, "notes.txt")
	touch(t, dir, ".partial.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	got, err := reconcile.ListPDFs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)

	got, err = reconcile.ListPDFs(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_IndexesOnlyPendingFiles(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.pdf")
	b := touch(t, dir, "b.pdf")

	idx := newFakeIndexer("ollama", "openai")
	idx.indexed["ollama"] = map[string]bool{"a.pdf": true}

	w := reconcile.New(dir, idx, time.Minute)
	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, map[string]int{"ollama": 1, "openai": 2}, res.Indexed)
	assert.Equal(t, []indexCall{
		{name: "ollama", paths: []string{b}},
		{name: "openai", paths: []string{a, b}},
	}, idx.Calls())

	// A second pass finds nothing to do.
	res, err = w.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Indexed)
	assert.Len(t, idx.Calls(), 2)
}

func TestRun_RecordsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")

	idx := newFakeIndexer("anthropic", "ollama")
	idx.fail["anthropic"] = errors.New("watchdog")

	res, err := reconcile.New(dir, idx, 0).Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, res.Failed, "anthropic")
	assert.Equal(t, map[string]int{"ollama": 1}, res.Indexed)
}

func TestRun_EmptyDirectory(t *testing.T) {
	idx := newFakeIndexer("ollama")
	res, err := reconcile.New(t.TempDir(), idx, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Found)
	assert.Empty(t, idx.Calls())
}

func TestRun_SkipsWhileInProgress(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.pdf")

	idx := newFakeIndexer("ollama")
	idx.gate = make(chan struct{})
	idx.entered = make(chan struct{}, 1)
	w := reconcile.New(dir, idx, 0)

	done := make(chan reconcile.Result, 1)
	go func() {
		res, _ := w.Run(context.Background())
		done <- res
	}()
	<-idx.entered
	assert.True(t, w.Running())

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	close(idx.gate)
	first := <-done
	assert.False(t, first.Skipped)
	assert.False(t, w.Running())
}

func TestWatch_IndexesNewPDFs(t *testing.T) {
	dir := t.TempDir()
	idx := newFakeIndexer("ollama")
	w := reconcile.New(dir, idx, 0)
	w.SetSettle(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Watch(ctx) }()

	// Give the watcher time to register before the file appears.
	time.Sleep(50 * time.Millisecond)
	path := touch(t, dir, "new.pdf")
	touch(t, dir, "ignored.txt")

	assert.Eventually(t, func() bool {
		calls := idx.Calls()
		return len(calls) == 1 && calls[0].paths[0] == path
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errc)
}
