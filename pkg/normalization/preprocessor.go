package normalization

import (
	"regexp"
	"strings"
)

// artifactCutset is the set of characters OCR tends to smear onto the edges
// of a line item.
const artifactCutset = "_#-*|\\/ "

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)
)

// Clean normalizes raw OCR text: whitespace runs collapse to single spaces,
// edge artifacts are stripped, and a comma between two digits becomes a
// period. Empty input yields empty output; the caller decides what an
// empty-after-clean item means.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := whitespaceRe.ReplaceAllString(text, " ")
	cleaned = strings.Trim(cleaned, artifactCutset)

	// Regexp matches do not overlap, so a digit-comma chain like "1,2,5"
	// needs repeated passes to converge. Clean must reach a fixed point or
	// alias and grouping keys drift between passes.
	for {
		next := decimalCommaRe.ReplaceAllString(cleaned, "$1.$2")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	return cleaned
}

// GroupingKey is the lowercased cleaned text, used to cluster learning
// candidates and to match canonical product names case-insensitively.
func GroupingKey(text string) string {
	return strings.ToLower(Clean(text))
}
