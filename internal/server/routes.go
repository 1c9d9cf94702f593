// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/sysres"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/Venkatesh-108/LightRAG-SRM/pkg/health"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/documents",
		Summary:     "List uploaded documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/documents/{filename}",
		Summary:     "Delete a document from disk and every index",
		Tags:        []string{"documents"},
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "clear-documents",
		Method:      http.MethodDelete,
		Path:        "/documents",
		Summary:     "Delete all documents and empty every index",
		Tags:        []string{"documents"},
	}, s.handleClearDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Indexing status of a provider's pipeline",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "system-health",
		Method:      http.MethodGet,
		Path:        "/system/health",
		Summary:     "Host resources and provider availability",
		Tags:        []string{"system"},
	}, s.handleSystemHealth)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reconcile",
		Method:        http.MethodPost,
		Path:          "/reconcile",
		Summary:       "Index documents on disk that are missing from a pipeline",
		Tags:          []string{"system"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleReconcile)

	s.router.Get("/documents/{filename}", s.handleServeDocument)
}

// --- Request/Response types for huma ---

type providerInput struct {
	Provider string `query:"provider" doc:"Provider whose pipeline to use; empty selects the default"`
}

// DocumentInfo describes an uploaded document and its indexing state in
// one pipeline.
type DocumentInfo struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Size     int64  `json:"size"`
	Chunks   int    `json:"chunks"`
	Indexed  bool   `json:"indexed"`
	OnDisk   bool   `json:"on_disk"`
}

type listDocumentsOutput struct {
	Body struct {
		Provider  string         `json:"provider"`
		Documents []DocumentInfo `json:"documents"`
	}
}

type filenameInput struct {
	Filename string `path:"filename"`
}

type messageOutput struct {
	Body struct {
		Success string `json:"success"`
	}
}

type clearOutput struct {
	Body struct {
		Success      string `json:"success"`
		FilesRemoved int    `json:"files_removed"`
	}
}

type statusOutput struct {
	Body rag.Status
}

// SystemHealth is the body of the system health endpoint.
type SystemHealth struct {
	Status         string                    `json:"status" example:"ok" doc:"ok or degraded"`
	Resources      *sysres.Snapshot          `json:"resources,omitempty"`
	ResourcesError string                    `json:"resources_error,omitempty"`
	Default        string                    `json:"default_provider"`
	Providers      []provider.ProviderStatus `json:"providers"`
	Health         map[string]health.Metrics `json:"provider_health,omitempty"`
	InitErrors     map[string]string         `json:"initialization_errors"`
	Reconciling    bool                      `json:"reconciling"`
}

type systemHealthOutput struct {
	Body SystemHealth
}

type reconcileOutput struct {
	Body struct {
		Started bool `json:"started"`
	}
}

// --- Handlers ---

func (s *Server) handleListDocuments(ctx context.Context, input *providerInput) (*listDocumentsOutput, error) {
	p, err := s.services.pipelines.Get(ctx, input.Provider)
	if err != nil {
		return nil, humaError(err)
	}
	paths, err := reconcile.ListPDFs(s.services.documentsDir)
	if err != nil {
		return nil, humaError(err)
	}

	indexed := make(map[string]DocumentInfo)
	var order []string
	for _, sum := range p.Documents() {
		indexed[sum.Filename] = DocumentInfo{
			Filename: sum.Filename,
			Title:    sum.Title,
			Author:   sum.Author,
			Pages:    sum.Pages,
			Size:     sum.Size,
			Chunks:   sum.Chunks,
			Indexed:  true,
		}
		order = append(order, sum.Filename)
	}

	out := &listDocumentsOutput{}
	out.Body.Provider = p.Provider().Name()
	out.Body.Documents = []DocumentInfo{}
	for _, path := range paths {
		name := filepath.Base(path)
		info, ok := indexed[name]
		if !ok {
			info = DocumentInfo{Filename: name}
			if st, err := os.Stat(path); err == nil {
				info.Size = st.Size()
			}
		}
		info.OnDisk = true
		delete(indexed, name)
		out.Body.Documents = append(out.Body.Documents, info)
	}
	for _, name := range order {
		if info, ok := indexed[name]; ok {
			out.Body.Documents = append(out.Body.Documents, info)
		}
	}
	return out, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *filenameInput) (*messageOutput, error) {
	name, err := sanitizeFilename(unescapeParam(input.Filename))
	if err != nil {
		return nil, humaError(err)
	}

	found, err := s.services.pipelines.Delete(ctx, name)
	if err != nil {
		return nil, humaError(err)
	}

	removed := true
	if err := os.Remove(filepath.Join(s.services.documentsDir, name)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, humaError(ragerr.Wrap(err, ragerr.CodeServerInternalFailure, "removing document file", ragerr.FieldFile(name)))
		}
		removed = false
	}
	if !found && !removed {
		return nil, huma.Error404NotFound("File not found.")
	}

	slog.Info("document deleted", "filename", name, "indexed", found, "file_removed", removed)
	out := &messageOutput{}
	out.Body.Success = fmt.Sprintf("File %q deleted successfully.", name)
	return out, nil
}

func (s *Server) handleClearDocuments(ctx context.Context, _ *struct{}) (*clearOutput, error) {
	paths, err := reconcile.ListPDFs(s.services.documentsDir)
	if err != nil {
		return nil, humaError(err)
	}
	removed := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("removing document file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if err := s.services.pipelines.Clear(ctx); err != nil {
		return nil, humaError(err)
	}

	out := &clearOutput{}
	out.Body.Success = "All documents deleted successfully."
	out.Body.FilesRemoved = removed
	return out, nil
}

func (s *Server) handleStatus(ctx context.Context, input *providerInput) (*statusOutput, error) {
	p, err := s.services.pipelines.Get(ctx, input.Provider)
	if err != nil {
		return nil, humaError(err)
	}
	return &statusOutput{Body: p.Status()}, nil
}

func (s *Server) handleSystemHealth(ctx context.Context, _ *struct{}) (*systemHealthOutput, error) {
	h := SystemHealth{
		Status:     "ok",
		Default:    s.services.pipelines.Default(),
		Providers:  []provider.ProviderStatus{},
		InitErrors: s.services.pipelines.InitErrors(),
		Health:     map[string]health.Metrics{},
	}

	if s.services.probe != nil {
		snap, err := s.services.probe.Snapshot(ctx)
		if err != nil {
			h.ResourcesError = err.Error()
			h.Status = "degraded"
		} else {
			h.Resources = &snap
			if !snap.AllOK() {
				h.Status = "degraded"
			}
		}
	}

	for _, name := range s.services.pipelines.Names() {
		p, err := s.services.pipelines.Get(ctx, name)
		if err != nil {
			continue
		}
		st, err := p.Provider().Status(ctx)
		if err != nil {
			st = provider.ProviderStatus{Provider: name, Message: err.Error()}
		}
		if !st.Available {
			h.Status = "degraded"
		}
		h.Providers = append(h.Providers, st)
		if hr, ok := p.Provider().(provider.HealthReporter); ok {
			h.Health[name] = hr.Metrics()
		}
	}
	if len(h.InitErrors) > 0 {
		h.Status = "degraded"
	}
	if s.services.reconciler != nil {
		h.Reconciling = s.services.reconciler.Running()
	}

	return &systemHealthOutput{Body: h}, nil
}

func (s *Server) handleReconcile(ctx context.Context, _ *struct{}) (*reconcileOutput, error) {
	if s.services.reconciler == nil {
		return nil, huma.Error503ServiceUnavailable("reconciliation not configured")
	}
	out := &reconcileOutput{}
	if s.services.reconciler.Running() {
		return out, nil
	}
	// The pass outlives the request.
	s.services.reconciler.Start(context.WithoutCancel(ctx))
	out.Body.Started = true
	return out, nil
}

func humaError(err error) error {
	return huma.NewError(ragerr.HTTPStatus(err), err.Error())
}
