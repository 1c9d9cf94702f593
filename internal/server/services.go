// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server

import (
	"context"
	"time"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// Pipelines is the registry surface the handlers use. *rag.Registry
// implements it.
type Pipelines interface {
	Get(ctx context.Context, name string) (*rag.Pipeline, error)
	Default() string
	Names() []string
	InitErrors() map[string]string
	Index(ctx context.Context, name string, paths []string, timeout time.Duration) (time.Duration, error)
	Delete(ctx context.Context, filename string) (bool, error)
	Clear(ctx context.Context) error
}

// ResourceProbe reports host resource usage.
type ResourceProbe interface {
	Snapshot(ctx context.Context) (sysres.Snapshot, error)
}

// Reconciler runs background indexing of documents already on disk.
type Reconciler interface {
	Start(ctx context.Context)
	Running() bool
}

// Services holds dependencies injected into route handlers.
type Services struct {
	pipelines     Pipelines
	documentsDir  string
	ingestTimeout time.Duration
	maxUpload     int64
	probe         ResourceProbe // optional; nil = no resource section in system health
	reconciler    Reconciler    // optional; nil = reconcile endpoint unavailable
}

// ServicesOption customizes Services.
type ServicesOption func(*Services)

// WithIngestTimeout bounds indexing of an uploaded document.
func WithIngestTimeout(d time.Duration) ServicesOption {
	return func(s *Services) { s.ingestTimeout = d }
}

// WithMaxUploadBytes caps the size of an uploaded document.
func WithMaxUploadBytes(n int64) ServicesOption {
	return func(s *Services) { s.maxUpload = n }
}

func WithResourceProbe(p ResourceProbe) ServicesOption {
	return func(s *Services) { s.probe = p }
}

func WithReconciler(r Reconciler) ServicesOption {
	return func(s *Services) { s.reconciler = r }
}

// DefaultMaxUploadBytes is the upload cap when none is configured.
const DefaultMaxUploadBytes = 50 << 20

// NewServices creates a Services instance with validation.
func NewServices(pipelines Pipelines, documentsDir string, opts ...ServicesOption) (*Services, error) {
	if pipelines == nil {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "pipeline registry is required")
	}
	if documentsDir == "" {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "documents directory is required")
	}
	s := &Services{
		pipelines:    pipelines,
		documentsDir: documentsDir,
		maxUpload:    DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxUpload <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeServerConfigInvalid, "max upload bytes must be positive (got %d)", s.maxUpload)
	}
	if s.ingestTimeout < 0 {
		return nil, ragerr.Errorf(ragerr.CodeServerConfigInvalid, "ingest timeout must not be negative (got %s)", s.ingestTimeout)
	}
	return s, nil
}
