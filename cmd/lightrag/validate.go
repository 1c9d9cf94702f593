// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/docinfo"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.pdf>...",
		Short: "Check that PDFs can be indexed",
		Long:  "Inspect each file's PDF framing and extract its text without indexing it. Readable files also report the derived title and heading outline.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}

	cmd.Flags().Bool("json", false, "print reports as JSON")
	cmd.Flags().Bool("outline", false, "list detected headings")

	return cmd
}

// validation is the report for one file plus the document info derived
// from its text.
type validation struct {
	pdf.Report
	Document *docinfo.Info `json:"document,omitempty"`
}

// recordingExtractor keeps the last extracted document so its text can be
// analyzed without a second extraction.
type recordingExtractor struct {
	pdf.Extractor
	last *pdf.Document
}

func (r *recordingExtractor) Extract(ctx context.Context, path string) (*pdf.Document, error) {
	doc, err := r.Extractor.Extract(ctx, path)
	r.last = doc
	return doc, err
}

func runValidate(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	outline, _ := cmd.Flags().GetBool("outline")
	ex := &recordingExtractor{Extractor: newExtractor()}
	out := cmd.OutOrStdout()

	results := make([]validation, 0, len(args))
	failed := 0
	for _, path := range args {
		ex.last = nil
		res := validation{Report: pdf.Inspect(cmd.Context(), ex, path)}
		if !res.OK() {
			failed++
		} else if ex.last != nil {
			info := docinfo.Extract(nil, path, ex.last.Pages, ex.last.Metadata)
			res.Document = &info
		}
		results = append(results, res)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		p := printer{w: out}
		for _, res := range results {
			if !res.OK() {
				p.printf("%s: %s\n", res.Path, res.Problem)
				continue
			}
			p.printf("%s: ok (%d page(s), %d with text, %s)\n", res.Path, res.Pages, res.TextPages, formatBytes(uint64(res.Size)))
			if res.Document == nil {
				continue
			}
			p.printf("  title: %s, %d heading(s)\n", res.Document.Title, len(res.Document.Headings))
			if outline {
				for _, h := range res.Document.Headings {
					p.printf("  %s%s\n", strings.Repeat("  ", h.Level), h.Text)
				}
			}
		}
		if p.err != nil {
			return p.err
		}
	}

	if failed > 0 {
		return ragerr.New(ragerr.CodeCLIInputInvalid, fmt.Sprintf("%d of %d file(s) cannot be indexed", failed, len(args)))
	}
	return nil
}
