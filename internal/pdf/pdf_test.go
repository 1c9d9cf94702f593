// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package pdf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := pdf.NewReader().Extract(context.Background(), "/does/not/exist.pdf")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodePDFOpenNotFound))
	assert.True(t, ragerr.IsNotFound(err))
}

func TestExtract_GarbageIsCorrupt(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("this is not a pdf at all"))

	_, err := pdf.NewReader().Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodePDFExtractCorrupt))
	assert.True(t, ragerr.IsPDFRejected(err))
}

func TestExtract_TooLarge(t *testing.T) {
	path := writeFile(t, "big.pdf", make([]byte, 2048))

	r := &pdf.Reader{MaxPages: pdf.DefaultMaxPages, MaxBytes: 1024}
	_, err := r.Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodePDFExtractTooLarge))
}

func TestDocumentHasText(t *testing.T) {
	assert.False(t, (&pdf.Document{Pages: []string{"", "  \n"}}).HasText())
	assert.True(t, (&pdf.Document{Pages: []string{"", "body"}}).HasText())
}

type stubExtractor struct {
	doc *pdf.Document
	err error
}

func (s stubExtractor) Extract(context.Context, string) (*pdf.Document, error) {
	return s.doc, s.err
}

func TestInspect_Framing(t *testing.T) {
	path := writeFile(t, "ok.pdf", []byte("%PDF-1.4\nbody\n%%EOF\n"))

	rep := pdf.Inspect(context.Background(), stubExtractor{doc: &pdf.Document{Pages: []string{"text", ""}}}, path)
	assert.True(t, rep.OK())
	assert.True(t, rep.HasHeader)
	assert.True(t, rep.HasEOF)
	assert.Equal(t, 2, rep.Pages)
	assert.Equal(t, 1, rep.TextPages)
	assert.Equal(t, int64(20), rep.Size)
}

func TestInspect_ReportsExtractionProblem(t *testing.T) {
	path := writeFile(t, "locked.pdf", []byte("%PDF-1.7\n"))
	stub := stubExtractor{err: ragerr.New(ragerr.CodePDFExtractEncrypted, "pdf is encrypted")}

	rep := pdf.Inspect(context.Background(), stub, path)
	assert.False(t, rep.OK())
	assert.False(t, rep.HasEOF)
	assert.Equal(t, string(ragerr.CodePDFExtractEncrypted), rep.Code)
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"manual.pdf", true},
		{"/docs/Manual.PDF", true},
		{"notes.txt", false},
		{"pdf", false},
		{".hidden.pdf", false},
		{"archive.pdf.zip", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pdf.IsPDF(tt.name), tt.name)
	}
}
