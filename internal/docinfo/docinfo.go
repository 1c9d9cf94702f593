// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package docinfo derives document titles, authors and heading outlines from
// extracted PDF text. Everything here is best effort and never fails.
package docinfo

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HeadingMarker prefixes heading lines in indexed text.
const HeadingMarker = "## "

// Metadata keys populated by the PDF extractor. Absent keys are omitted.
const (
	MetaTitle        = "title"
	MetaAuthor       = "author"
	MetaSubject      = "subject"
	MetaCreator      = "creator"
	MetaProducer     = "producer"
	MetaCreationDate = "creation_date"
	MetaModDate      = "modification_date"
)

// Heading is a detected section heading with its hierarchy level (1-6).
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Info describes one source document.
type Info struct {
	Path           string            `json:"path"`
	Filename       string            `json:"filename"`
	Title          string            `json:"title"`
	HeuristicTitle string            `json:"heuristic_title,omitempty"`
	Author         string            `json:"author,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Headings       []Heading         `json:"headings,omitempty"`
	PageCount      int               `json:"page_count"`
	Size           int64             `json:"size"`
}

// Analyzer detects structure in plain text.
type Analyzer interface {
	// Title guesses a document title from the text of its pages.
	Title(pages []string) string
	// HeadingLevel classifies a single line; 0 means not a heading.
	HeadingLevel(line string) int
}

// Extract builds the Info for the document at path. A nil analyzer
// falls back to Heuristics.
func Extract(a Analyzer, path string, pages []string, meta map[string]string) Info {
	if a == nil {
		a = Heuristics{}
	}
	info := Summarize(a, path, pages, meta)
	info.Headings = Headings(a, strings.Join(pages, "\n"))
	return info
}

// Summarize is Extract without the heading scan over the full text.
func Summarize(a Analyzer, path string, pages []string, meta map[string]string) Info {
	if a == nil {
		a = Heuristics{}
	}

	info := Info{
		Path:      path,
		Filename:  filepath.Base(path),
		Metadata:  meta,
		PageCount: len(pages),
	}
	if st, err := os.Stat(path); err == nil {
		info.Size = st.Size()
	}

	info.HeuristicTitle = a.Title(pages)
	info.Author = strings.TrimSpace(meta[MetaAuthor])
	info.Title = BestTitle(meta[MetaTitle], info.HeuristicTitle, info.Filename)

	return info
}

// BestTitle picks the metadata title, then the heuristic title, then a
// title derived from the filename.
func BestTitle(metaTitle, heuristic, filename string) string {
	if t := strings.TrimSpace(metaTitle); t != "" {
		return t
	}
	if t := strings.TrimSpace(heuristic); t != "" {
		return t
	}
	return FilenameTitle(filename)
}

// FilenameTitle turns "srm_install_guide.pdf" into "Srm Install Guide".
func FilenameTitle(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.Join(strings.Fields(strings.ReplaceAll(base, "_", " ")), " ")
	return cases.Title(language.English).String(base)
}

// Headings lists every heading line in text in document order.
func Headings(a Analyzer, text string) []Heading {
	var out []Heading
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if level := a.HeadingLevel(line); level > 0 {
			out = append(out, Heading{Text: line, Level: level})
		}
	}
	return out
}

// MarkHeadings prefixes heading lines of a page with HeadingMarker. Lines
// that already carry a markdown heading are left alone.
func MarkHeadings(a Analyzer, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if a.HeadingLevel(trimmed) > 0 {
			lines[i] = HeadingMarker + trimmed
		}
	}
	return strings.Join(lines, "\n")
}
