// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Factory constructs the pipeline for a provider name.
type Factory func(ctx context.Context, name string) (*Pipeline, error)

// Registry owns one pipeline per generation provider. Pipelines are built
// by Init at startup or lazily on first use; construction failures are
// remembered and reported on every later lookup.
//
// Registry also holds the process-wide write lock: indexing, deletion
// and clearing through the registry never overlap.
type Registry struct {
	factory Factory
	def     string

	writeMu sync.Mutex

	// building runs at most one factory call per name, outside mu.
	building singleflight.Group

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	initErrs  map[string]error
	closed    bool
}

// NewRegistry creates a registry whose empty-name lookups resolve to def.
func NewRegistry(factory Factory, def string) *Registry {
	return &Registry{
		factory:   factory,
		def:       normalize(def),
		pipelines: make(map[string]*Pipeline),
		initErrs:  make(map[string]error),
	}
}

// Init builds the pipeline for each name, recording failures instead of
// returning them so that one misconfigured provider does not block the rest.
func (r *Registry) Init(ctx context.Context, names []string) {
	for _, name := range names {
		name = normalize(name)
		if _, err := r.Get(ctx, name); err != nil {
			slog.Warn("pipeline initialization failed", "provider", name, "error", err)
			continue
		}
		slog.Info("pipeline initialized", "provider", name)
	}
}

func (r *Registry) Default() string { return r.def }

// Get returns the pipeline for name ("" for the default), building it on
// first use.
func (r *Registry) Get(ctx context.Context, name string) (*Pipeline, error) {
	name = normalize(name)
	if name == "" || name == "default" {
		name = r.def
	}
	if name == "" {
		return nil, ragerr.New(ragerr.CodeProviderNoDefault, "no default provider configured")
	}

	r.mu.RLock()
	p, ok := r.pipelines[name]
	initErr := r.initErrs[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	if initErr != nil {
		return nil, initErr
	}

	v, err, _ := r.building.Do(name, func() (any, error) {
		return r.build(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pipeline), nil
}

// build constructs the pipeline for name and records the outcome. Lookups
// of other names proceed while the factory runs.
func (r *Registry) build(ctx context.Context, name string) (*Pipeline, error) {
	r.mu.RLock()
	p, ok := r.pipelines[name]
	initErr := r.initErrs[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	if initErr != nil {
		return nil, initErr
	}

	p, err := r.factory(ctx, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		if p != nil {
			_ = p.Close()
		}
		return nil, ragerr.New(ragerr.CodeProviderInitFailure, "registry is closed", ragerr.FieldProvider(name))
	}
	if err != nil {
		err = ragerr.Wrap(err, ragerr.CodeProviderInitFailure, "pipeline for "+name+" is not available", ragerr.FieldProvider(name))
		r.initErrs[name] = err
		return nil, err
	}
	r.pipelines[name] = p
	return p, nil
}

// InitErrors maps provider names to the message of their failed
// construction.
func (r *Registry) InitErrors() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.initErrs))
	for name, err := range r.initErrs {
		out[name] = err.Error()
	}
	return out
}

// Names lists the live pipelines in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pipelines))
	for n := range r.pipelines {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) live() []*Pipeline {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pipeline, 0, len(names))
	for _, n := range names {
		out = append(out, r.pipelines[n])
	}
	return out
}

type lockedIndexer struct {
	mu *sync.Mutex
	p  *Pipeline
}

func (l lockedIndexer) IndexDocuments(ctx context.Context, paths []string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := slices.DeleteFunc(slices.Clone(paths), func(path string) bool {
		return l.p.HasFile(filepath.Base(path))
	})
	if len(fresh) == 0 {
		slog.Info("documents already indexed", "provider", l.p.Provider().Name(), "files", len(paths))
		return 0, nil
	}
	return l.p.IndexDocuments(ctx, fresh)
}

// Index indexes paths into the named pipeline under the write lock, bounded
// by timeout when it is positive. Files the pipeline already holds are
// skipped, so concurrent callers never index the same filename twice.
func (r *Registry) Index(ctx context.Context, name string, paths []string, timeout time.Duration) (time.Duration, error) {
	p, err := r.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	return IndexWithTimeout(ctx, lockedIndexer{mu: &r.writeMu, p: p}, paths, timeout)
}

// Delete removes filename from every live pipeline. It reports whether
// any pipeline held the file. Per-pipeline failures are logged and joined.
func (r *Registry) Delete(ctx context.Context, filename string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var (
		found bool
		errs  []error
	)
	for _, p := range r.live() {
		ok, err := p.DeleteDocument(ctx, filename)
		if err != nil {
			slog.Error("deleting document", "provider", p.Provider().Name(), "filename", filename, "error", err)
			errs = append(errs, err)
			continue
		}
		found = found || ok
	}
	if len(errs) > 0 {
		return found, ragerr.Join(errs...)
	}
	return found, nil
}

// Clear empties every live pipeline.
func (r *Registry) Clear(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var errs []error
	for _, p := range r.live() {
		if _, err := p.ClearAll(ctx); err != nil {
			slog.Error("clearing pipeline", "provider", p.Provider().Name(), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}

// Pending returns, per live pipeline, the paths whose filename that
// pipeline has not indexed.
func (r *Registry) Pending(paths []string) map[string][]string {
	out := make(map[string][]string)
	for _, name := range r.Names() {
		r.mu.RLock()
		p := r.pipelines[name]
		r.mu.RUnlock()

		for _, path := range paths {
			if !p.HasFile(filepath.Base(path)) {
				out[name] = append(out[name], path)
			}
		}
	}
	return out
}

// Close releases every pipeline.
func (r *Registry) Close() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true

	var errs []error
	for name, p := range r.pipelines {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.pipelines, name)
	}
	if len(errs) > 0 {
		return ragerr.Join(errs...)
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
