// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/embed/hashing"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/index/flat"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider/providertest"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/server"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor serves page texts keyed by filename; unknown files are
// reported as corrupt.
type stubExtractor struct {
	mu    sync.Mutex
	pages map[string][]string
}

func (s *stubExtractor) set(name string, pages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[name] = pages
}

func (s *stubExtractor) Extract(_ context.Context, path string) (*pdf.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, ok := s.pages[filepath.Base(path)]
	if !ok {
		return nil, ragerr.New(ragerr.CodePDFExtractCorrupt, "cannot parse "+path)
	}
	return &pdf.Document{Path: path, Pages: pages, Metadata: map[string]string{}}, nil
}

type harness struct {
	srv  *server.Server
	reg  *rag.Registry
	ext  *stubExtractor
	docs string
}

func newHarness(t *testing.T, cfg server.Config, opts ...server.ServicesOption) *harness {
	t.Helper()
	root := t.TempDir()
	ext := &stubExtractor{pages: make(map[string][]string)}

	factory := func(ctx context.Context, name string) (*rag.Pipeline, error) {
		if name == "broken" {
			return nil, errors.New("api key missing")
		}
		return rag.New(ctx, rag.Options{
			Dir:       filepath.Join(root, "vector_store", name),
			Backend:   flat.Backend{},
			Extractor: ext,
			Embedder:  embed.NewBatcher(embed.Static(hashing.New(32)), nil, 0),
			Provider:  &providertest.Fake{ProviderName: name, Chunks: []string{"Hello", " there"}},
		})
	}
	reg := rag.NewRegistry(factory, "ollama")
	t.Cleanup(func() { _ = reg.Close() })

	docs := filepath.Join(root, "documents")
	svc, err := server.NewServices(reg, docs, opts...)
	require.NoError(t, err)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	srv, err := server.New(cfg, svc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return &harness{srv: srv, reg: reg, ext: ext, docs: docs}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *harness) upload(t *testing.T, name string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if name != "-" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *harness) query(t *testing.T, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var pdfBytes = []byte("%PDF-1.4 test document")

func TestServer_New_Validation(t *testing.T) {
	reg := rag.NewRegistry(nil, "ollama")
	svc, err := server.NewServices(reg, t.TempDir())
	require.NoError(t, err)

	_, err = server.New(server.Config{}, svc)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeServerConfigInvalid))

	_, err = server.New(server.Config{ListenAddr: "127.0.0.1:0"}, nil)
	require.Error(t, err)

	_, err = server.New(server.Config{ListenAddr: "127.0.0.1:0", UploadLimit: server.RateLimitConfig{RequestsPerMinute: -1}}, svc)
	require.Error(t, err)
}

func TestNewServices_Validation(t *testing.T) {
	reg := rag.NewRegistry(nil, "ollama")

	_, err := server.NewServices(nil, "docs")
	assert.True(t, ragerr.HasCode(err, ragerr.CodeServerConfigInvalid))

	_, err = server.NewServices(reg, "")
	assert.True(t, ragerr.HasCode(err, ragerr.CodeServerConfigInvalid))

	_, err = server.NewServices(reg, "docs", server.WithMaxUploadBytes(-1))
	assert.True(t, ragerr.HasCode(err, ragerr.CodeServerConfigInvalid))
}

func TestServer_HealthEndpoint(t *testing.T) {
	h := newHarness(t, server.Config{})

	w := h.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestServer_OpenAPISpec(t *testing.T) {
	h := newHarness(t, server.Config{})

	w := h.do(httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	for _, op := range []string{"upload-document", "query", "list-documents", "delete-document", "clear-documents", "system-health"} {
		assert.Contains(t, w.Body.String(), op)
	}
}

type fakeProbe struct {
	snap sysres.Snapshot
	err  error
}

func (f fakeProbe) Snapshot(context.Context) (sysres.Snapshot, error) { return f.snap, f.err }

func TestSystemHealth(t *testing.T) {
	healthy := sysres.Snapshot{MemoryAvailable: 8 << 30, MemoryOK: true, DiskOK: true, CPUOK: true}

	t.Run("ok", func(t *testing.T) {
		h := newHarness(t, server.Config{}, server.WithResourceProbe(fakeProbe{snap: healthy}))
		h.reg.Init(context.Background(), []string{"ollama"})

		w := h.do(httptest.NewRequest(http.MethodGet, "/system/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[server.SystemHealth](t, w)
		assert.Equal(t, "ok", got.Status)
		assert.Equal(t, "ollama", got.Default)
		require.NotNil(t, got.Resources)
		assert.Equal(t, uint64(8<<30), got.Resources.MemoryAvailable)
		require.Len(t, got.Providers, 1)
		assert.Equal(t, "ollama", got.Providers[0].Provider)
		assert.True(t, got.Providers[0].Available)
		assert.True(t, got.Health["ollama"].Available)
		assert.Zero(t, got.Health["ollama"].FailureCount)
	})

	t.Run("degraded by init failure", func(t *testing.T) {
		h := newHarness(t, server.Config{}, server.WithResourceProbe(fakeProbe{snap: healthy}))
		h.reg.Init(context.Background(), []string{"ollama", "broken"})

		got := decode[server.SystemHealth](t, h.do(httptest.NewRequest(http.MethodGet, "/system/health", nil)))
		assert.Equal(t, "degraded", got.Status)
		assert.Contains(t, got.InitErrors["broken"], "api key missing")
	})

	t.Run("degraded by probe failure", func(t *testing.T) {
		h := newHarness(t, server.Config{}, server.WithResourceProbe(fakeProbe{err: errors.New("no /proc")}))

		got := decode[server.SystemHealth](t, h.do(httptest.NewRequest(http.MethodGet, "/system/health", nil)))
		assert.Equal(t, "degraded", got.Status)
		assert.Nil(t, got.Resources)
		assert.Contains(t, got.ResourcesError, "no /proc")
	})
}

type fakeReconciler struct {
	running atomic.Bool
	starts  atomic.Int32
}

func (f *fakeReconciler) Start(context.Context) { f.starts.Add(1) }
func (f *fakeReconciler) Running() bool         { return f.running.Load() }

type reconcileBody struct {
	Started bool `json:"started"`
}

func TestReconcileEndpoint(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := newHarness(t, server.Config{})
		w := h.do(httptest.NewRequest(http.MethodPost, "/reconcile", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("starts a pass once", func(t *testing.T) {
		rec := &fakeReconciler{}
		h := newHarness(t, server.Config{}, server.WithReconciler(rec))

		w := h.do(httptest.NewRequest(http.MethodPost, "/reconcile", nil))
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, decode[reconcileBody](t, w).Started)

		rec.running.Store(true)
		w = h.do(httptest.NewRequest(http.MethodPost, "/reconcile", nil))
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.False(t, decode[reconcileBody](t, w).Started)
		assert.Equal(t, int32(1), rec.starts.Load())
	})
}

func TestUpload_RateLimited(t *testing.T) {
	h := newHarness(t, server.Config{UploadLimit: server.RateLimitConfig{RequestsPerMinute: 1}})
	h.ext.set("a.pdf", "Alpha text.")
	h.ext.set("b.pdf", "Beta text.")

	w := h.upload(t, "a.pdf", pdfBytes, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.upload(t, "b.pdf", pdfBytes, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.NoFileExists(t, filepath.Join(h.docs, "b.pdf"))

	// Other routes are not limited.
	w = h.do(httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocumentsDirCreatedOnUpload(t *testing.T) {
	h := newHarness(t, server.Config{})
	h.ext.set("a.pdf", "Alpha text.")
	_, err := os.Stat(h.docs)
	require.True(t, os.IsNotExist(err))

	w := h.upload(t, "a.pdf", pdfBytes, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.DirExists(t, h.docs)
}
