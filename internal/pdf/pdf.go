// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package pdf extracts per-page plain text and document metadata from PDF files.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/docinfo"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	DefaultMaxPages = 500
	DefaultMaxBytes = 100 << 20
)

// Document is the extracted content of one PDF. Pages keeps one entry per
// physical page, blank when the page had no extractable text, so that page
// numbers stay aligned with the source file.
type Document struct {
	Path     string
	Pages    []string
	Metadata map[string]string
}

// IsPDF reports whether name has a .pdf extension, in any case. Hidden
// files are never PDFs.
func IsPDF(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ".pdf")
}

// Extractor turns a PDF on disk into page texts.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Document, error)
}

// Reader is the Extractor backed by github.com/ledongthuc/pdf.
type Reader struct {
	MaxPages int
	MaxBytes int64
}

// NewReader returns a Reader with the default page and size limits.
func NewReader() *Reader {
	return &Reader{MaxPages: DefaultMaxPages, MaxBytes: DefaultMaxBytes}
}

var infoKeys = map[string]string{
	"Title":        docinfo.MetaTitle,
	"Author":       docinfo.MetaAuthor,
	"Subject":      docinfo.MetaSubject,
	"Creator":      docinfo.MetaCreator,
	"Producer":     docinfo.MetaProducer,
	"CreationDate": docinfo.MetaCreationDate,
	"ModDate":      docinfo.MetaModDate,
}

func (r *Reader) Extract(ctx context.Context, path string) (doc *Document, err error) {
	file := filepath.Base(path)

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ragerr.Wrap(err, ragerr.CodePDFOpenNotFound, "pdf file not found", ragerr.FieldFile(file))
		}
		return nil, ragerr.Wrap(err, ragerr.CodePDFExtractCorrupt, "reading pdf file", ragerr.FieldFile(file))
	}
	if r.MaxBytes > 0 && st.Size() > r.MaxBytes {
		return nil, ragerr.New(ragerr.CodePDFExtractTooLarge,
			fmt.Sprintf("pdf is %d bytes, limit is %d", st.Size(), r.MaxBytes), ragerr.FieldFile(file))
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = ragerr.Errorf(ragerr.CodePDFExtractCorrupt, "parsing %s: %v", file, rec)
		}
	}()

	f, rd, err := pdflib.Open(path)
	if err != nil {
		if errors.Is(err, pdflib.ErrInvalidPassword) {
			return nil, ragerr.Wrap(err, ragerr.CodePDFExtractEncrypted, "pdf is encrypted", ragerr.FieldFile(file))
		}
		return nil, ragerr.Wrap(err, ragerr.CodePDFExtractCorrupt, "opening pdf", ragerr.FieldFile(file))
	}
	defer func() { _ = f.Close() }()

	n := rd.NumPage()
	if n == 0 {
		return nil, ragerr.New(ragerr.CodePDFExtractEmpty, "pdf has no pages", ragerr.FieldFile(file))
	}
	if r.MaxPages > 0 && n > r.MaxPages {
		return nil, ragerr.New(ragerr.CodePDFExtractTooLarge,
			fmt.Sprintf("pdf has %d pages, limit is %d", n, r.MaxPages), ragerr.FieldFile(file))
	}

	doc = &Document{Path: path, Pages: make([]string, n), Metadata: metadata(rd)}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("skipping unreadable pdf page", "file", file, "page", i, "error", err)
			continue
		}
		doc.Pages[i-1] = text
	}

	if !doc.HasText() {
		return nil, ragerr.New(ragerr.CodePDFExtractNoText, "no text content found in pdf", ragerr.FieldFile(file))
	}
	return doc, nil
}

// HasText reports whether any page carries non-whitespace text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

func metadata(rd *pdflib.Reader) map[string]string {
	info := rd.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}
	out := make(map[string]string, len(infoKeys))
	for pdfKey, key := range infoKeys {
		if v := strings.TrimSpace(info.Key(pdfKey).Text()); v != "" {
			out[key] = v
		}
	}
	return out
}
