// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// UploadResult is the JSON body of a successful upload.
type UploadResult struct {
	Success      string  `json:"success"`
	Filename     string  `json:"filename"`
	IndexingTime float64 `json:"indexing_time"`
}

func (s *Server) registerUploadRoute() {
	s.router.With(rateLimitMiddleware(s.cfg.UploadLimit, s.done)).Post("/documents", s.handleUpload)

	// Multipart uploads are read from the raw request, so the operation is
	// added to the OpenAPI document by hand.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "upload-document",
		Method:      http.MethodPost,
		Path:        "/documents",
		Summary:     "Upload and index a PDF",
		Description: "Stores the PDF in the documents directory and indexes it into the selected provider's pipeline. The file is removed again if indexing fails or times out.",
		Tags:        []string{"documents"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"multipart/form-data": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"file"},
						Properties: map[string]*huma.Schema{
							"file": {
								Type:        "string",
								Format:      "binary",
								Description: "PDF document",
							},
							"provider": {
								Type:        "string",
								Description: "Provider whose pipeline indexes the document",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {Description: "Document stored and indexed"},
			"400": {Description: "Missing, empty, non-PDF or unreadable file"},
			"409": {Description: "A document with this name already exists"},
			"413": {Description: "File exceeds the upload limit"},
			"429": {Description: "Too many uploads"},
			"504": {Description: "Indexing timed out"},
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.services.maxUpload
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, tooLargeError(limit))
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, ragerr.New(ragerr.CodeServerRequestInvalid, "No file part"))
		default:
			writeError(w, ragerr.Wrap(err, ragerr.CodeServerRequestInvalid, "reading upload"))
		}
		return
	}
	defer func() { _ = file.Close() }()

	name, err := sanitizeFilename(header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	if !pdf.IsPDF(name) {
		writeError(w, ragerr.New(ragerr.CodeServerRequestInvalid, "File type not allowed. Only PDF files are supported.", ragerr.FieldFile(name)))
		return
	}

	path, err := s.storeUpload(file, name, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	// Indexing is bounded by the watchdog only, not by the client connection.
	ctx := context.WithoutCancel(r.Context())
	elapsed, err := s.services.pipelines.Index(ctx, r.FormValue("provider"), []string{path}, s.services.ingestTimeout)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("removing failed upload", "path", path, "error", rmErr)
		}
		slog.Error("indexing upload failed", "filename", name, "error", err, "code", ragerr.CodeOf(err))
		writeError(w, ragerr.With(err, ragerr.FieldFile(name)))
		return
	}

	slog.Info("document uploaded", "filename", name, "elapsed", elapsed)
	writeJSON(w, http.StatusOK, UploadResult{
		Success:      fmt.Sprintf("File %q uploaded in %.1fs.", name, elapsed.Seconds()),
		Filename:     name,
		IndexingTime: elapsed.Seconds(),
	})
}

// storeUpload writes src to the documents directory as name. The data is
// staged in a hidden temporary file and linked into place, so a partial
// upload is never visible as a PDF and an existing name is never replaced.
func (s *Server) storeUpload(src multipart.File, name string, limit int64) (string, error) {
	dir := s.services.documentsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ragerr.Wrap(err, ragerr.CodeServerInternalFailure, "creating documents directory", ragerr.FieldPath(dir))
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", ragerr.New(ragerr.CodeIngestDocumentConflict, fmt.Sprintf("File %q already exists.", name), ragerr.FieldFile(name))
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", ragerr.Wrap(err, ragerr.CodeServerInternalFailure, "staging upload")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, io.LimitReader(src, limit+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", tooLargeError(limit)
		}
		return "", ragerr.Wrap(err, ragerr.CodeServerInternalFailure, "saving upload", ragerr.FieldFile(name))
	case n == 0:
		return "", ragerr.New(ragerr.CodeServerRequestInvalid, "File is empty", ragerr.FieldFile(name))
	case n > limit:
		return "", tooLargeError(limit)
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", ragerr.New(ragerr.CodeIngestDocumentConflict, fmt.Sprintf("File %q already exists.", name), ragerr.FieldFile(name))
		}
		return "", ragerr.Wrap(err, ragerr.CodeServerInternalFailure, "saving upload", ragerr.FieldFile(name))
	}
	return path, nil
}

func tooLargeError(limit int64) error {
	size := fmt.Sprintf("%d bytes", limit)
	if limit >= 1<<20 {
		size = fmt.Sprintf("%dMB", limit>>20)
	}
	return ragerr.New(ragerr.CodeServerPayloadTooLarge, "File too large. Maximum size is "+size)
}

func (s *Server) handleServeDocument(w http.ResponseWriter, r *http.Request) {
	name, err := sanitizeFilename(unescapeParam(chi.URLParam(r, "filename")))
	if err != nil {
		writeError(w, err)
		return
	}
	path := filepath.Join(s.services.documentsDir, name)
	if !pdf.IsPDF(name) {
		writeError(w, ragerr.New(ragerr.CodeServerEntityNotFound, "File not found.", ragerr.FieldFile(name)))
		return
	}
	if st, err := os.Stat(path); err != nil || !st.Mode().IsRegular() {
		writeError(w, ragerr.New(ragerr.CodeServerEntityNotFound, "File not found.", ragerr.FieldFile(name)))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// sanitizeFilename reduces a client-supplied name to a plain file name
// inside the documents directory.
func sanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ragerr.New(ragerr.CodeServerRequestInvalid, "No selected file")
	}
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base != name || base == "." || base == ".." || strings.HasPrefix(base, ".") ||
		strings.ContainsRune(base, 0) || strings.ContainsRune(base, '/') {
		return "", ragerr.New(ragerr.CodeServerRequestInvalid, "Invalid filename", ragerr.FieldFile(name))
	}
	return base, nil
}

// unescapeParam decodes a path parameter that the router left escaped.
func unescapeParam(raw string) string {
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, ragerr.HTTPStatus(err), map[string]string{"error": err.Error()})
}
