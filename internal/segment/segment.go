// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package segment splits page text into overlapping, paragraph-aligned chunks.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 1200
	DefaultOverlap = 150

	// MaxChunks caps the output of a single Split call. Excess chunks are dropped.
	MaxChunks = 2000
)

const paragraphSep = "\n\n"

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Split groups blank-line separated paragraphs into chunks of at most size
// characters. When a paragraph does not fit, the current chunk is closed and
// the next one starts with the last overlap characters of the closed chunk.
// A paragraph longer than size is never split and becomes an oversized chunk.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		chunks []string
		cur    string
	)

	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if cur == "" {
			cur = para
			continue
		}

		if utf8.RuneCountInString(cur)+len(paragraphSep)+utf8.RuneCountInString(para) <= size {
			cur += paragraphSep + para
			continue
		}

		chunks = append(chunks, cur)
		if len(chunks) == MaxChunks {
			return chunks
		}

		seed := tail(cur, overlap)
		if seed == "" {
			cur = para
		} else {
			cur = seed + paragraphSep + para
		}
	}

	if strings.TrimSpace(cur) != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
