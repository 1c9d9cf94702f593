// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/danielgtaylor/huma/v2"
)

// QueryRequest is the request body for the streaming query endpoint.
type QueryRequest struct {
	Query    string `json:"query"`
	Filename string `json:"filename,omitempty"`
	Provider string `json:"provider,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

func (s *Server) registerQueryRoute() {
	s.router.Post("/query", s.handleQuery)

	// The answer is streamed from the raw response writer, so the operation
	// is added to the OpenAPI document by hand.
	minQueryLen := 1
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "query",
		Method:      http.MethodPost,
		Path:        "/query",
		Summary:     "Ask a question about the indexed documents",
		Description: "Streams the answer as plain text, followed by a source citation and a telemetry line.",
		Tags:        []string{"query"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"application/json": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"query"},
						Properties: map[string]*huma.Schema{
							"query": {
								Type:        "string",
								MinLength:   &minQueryLen,
								Description: "Question text",
							},
							"filename": {
								Type:        "string",
								Description: "Restrict retrieval to this document",
							},
							"provider": {
								Type:        "string",
								Description: "Provider that generates the answer; empty selects the default",
							},
							"top_k": {
								Type:        "integer",
								Description: "Number of chunks to retrieve",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Streamed answer",
				Content: map[string]*huma.MediaType{
					"text/plain": {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			},
			"400": {Description: "Missing query text or unavailable provider"},
		},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ragerr.Wrap(err, ragerr.CodeServerRequestInvalid, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, ragerr.New(ragerr.CodeServerRequestInvalid, "Query text is required"))
		return
	}

	p, err := s.services.pipelines.Get(r.Context(), req.Provider)
	if err != nil {
		// Unknown or failed providers are reported as bad requests.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	flusher, _ := w.(http.Flusher)
	for frag := range p.Query(r.Context(), rag.QueryRequest{Text: req.Query, Filename: req.Filename, TopK: req.TopK}) {
		if _, err := w.Write([]byte(frag)); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
