// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package pdf

import (
	"bytes"
	"context"
	"io"
	"os"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// Report summarizes a structural check of a PDF file.
type Report struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	HasHeader bool   `json:"has_header"`
	HasEOF    bool   `json:"has_eof"`
	Pages     int    `json:"pages"`
	TextPages int    `json:"text_pages"`
	Problem   string `json:"problem,omitempty"`
	Code      string `json:"code,omitempty"`
}

// OK reports whether the file can be indexed.
func (r Report) OK() bool { return r.Problem == "" }

// Inspect checks the file framing (%PDF header, %%EOF trailer) and runs a
// full extraction to surface encryption or missing text.
func Inspect(ctx context.Context, ex Extractor, path string) Report {
	rep := Report{Path: path}

	f, err := os.Open(path)
	if err != nil {
		rep.Problem = err.Error()
		return rep
	}
	defer func() { _ = f.Close() }()

	if st, err := f.Stat(); err == nil {
		rep.Size = st.Size()
	}

	head := make([]byte, 5)
	if _, err := io.ReadFull(f, head); err == nil {
		rep.HasHeader = bytes.Equal(head, []byte("%PDF-"))
	}

	const trailerWindow = 1024
	offset := max(rep.Size-trailerWindow, 0)
	tailBuf := make([]byte, rep.Size-offset)
	if _, err := f.ReadAt(tailBuf, offset); err == nil || err == io.EOF {
		rep.HasEOF = bytes.Contains(tailBuf, []byte("%%EOF"))
	}

	doc, err := ex.Extract(ctx, path)
	if err != nil {
		rep.Problem = err.Error()
		rep.Code = string(ragerr.CodeOf(err))
		return rep
	}
	rep.Pages = len(doc.Pages)
	for _, p := range doc.Pages {
		if len(bytes.TrimSpace([]byte(p))) > 0 {
			rep.TextPages++
		}
	}
	return rep
}
