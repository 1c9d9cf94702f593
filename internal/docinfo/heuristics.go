// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package docinfo

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	titleScanLines   = 10
	maxTitleLen      = 100
	maxShortLineLen  = 80
	maxHeadingLen    = 100
	maxHeadingWords  = 10
	minSubstantialWs = 3
)

var (
	documentWords = regexp.MustCompile(`(?i)\b(guide|manual|handbook)\b`)
	chapterLine   = regexp.MustCompile(`^(?i:chapter|part|appendix)\s+[0-9IVXA-Z]+\b`)
	numbered4     = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+\.?\s+\S`)
	numbered3     = regexp.MustCompile(`^\d+\.\d+\.\d+\.?\s+\S`)
	numbered2     = regexp.MustCompile(`^\d+\.\d+\.?\s+\S`)
	numbered1     = regexp.MustCompile(`^\d+\.?\s+[A-Z]`)
)

// Heuristics is the default Analyzer. It relies on casing, numbering and
// a handful of keywords typical of technical manuals.
type Heuristics struct{}

type headingRule struct {
	level int
	match func(string) bool
}

// Rules are evaluated in order; the first match decides the level.
var headingRules = []headingRule{
	{1, isDocumentTitle},
	{2, chapterLine.MatchString},
	{5, numbered4.MatchString},
	{4, numbered3.MatchString},
	{3, numbered2.MatchString},
	{2, numbered1.MatchString},
	{3, isAllCapsShort},
	{6, isTitleCaseShort},
}

func (Heuristics) HeadingLevel(line string) int {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > maxHeadingLen || !hasLetters(line, 2) {
		return 0
	}
	for _, r := range headingRules {
		if r.match(line) {
			return r.level
		}
	}
	return 0
}

func (Heuristics) Title(pages []string) string {
	if len(pages) == 0 {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(pages[0], "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
		if len(lines) == titleScanLines {
			break
		}
	}

	for i, line := range lines {
		if isTitleCandidate(i, line) {
			return line
		}
	}
	return ""
}

func isTitleCandidate(i int, line string) bool {
	words := len(strings.Fields(line))
	switch {
	case isAllCapsShort(line) && words >= 2:
		return true
	case isTitleCaseShort(line) && words >= 2:
		return true
	case documentWords.MatchString(line) && len(line) <= maxTitleLen:
		return true
	case i < 3 && words >= minSubstantialWs && len(line) <= maxTitleLen:
		return true
	}
	return false
}

func isDocumentTitle(line string) bool {
	if !documentWords.MatchString(line) || strings.HasSuffix(line, ".") {
		return false
	}
	return isAllCapsShort(line) || isTitleCaseShort(line)
}

func isAllCapsShort(line string) bool {
	if len(line) > maxShortLineLen || !hasLetters(line, 3) {
		return false
	}
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// isTitleCaseShort accepts short lines whose significant words start with an
// upper-case letter, e.g. "Configuration Options" or "Installing the Agent".
func isTitleCaseShort(line string) bool {
	if len(line) > maxShortLineLen || strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxHeadingWords {
		return false
	}
	capitalized := 0
	for i, w := range words {
		first := []rune(w)[0]
		switch {
		case unicode.IsUpper(first) || unicode.IsDigit(first):
			capitalized++
		case i > 0 && isMinorWord(w):
		default:
			return false
		}
	}
	return capitalized > 0 && unicode.IsUpper([]rune(words[0])[0])
}

func isMinorWord(w string) bool {
	switch strings.ToLower(w) {
	case "a", "an", "and", "as", "at", "by", "for", "from", "in", "of", "on", "or", "the", "to", "with", "vs":
		return true
	}
	return false
}

func hasLetters(s string, n int) bool {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
			if count >= n {
				return true
			}
		}
	}
	return false
}
