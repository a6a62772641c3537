package normalization

import (
	"strings"
)

// TrigramSimilarity computes the Jaccard index over the character trigram
// sets of both strings. Comparison is case-insensitive. Strings shorter than
// three runes contribute themselves as a single gram, so very short inputs
// still compare meaningfully.
func TrigramSimilarity(s1, s2 string) float64 {
	if strings.EqualFold(s1, s2) {
		return 1.0
	}

	grams1 := trigramSet(s1)
	grams2 := trigramSet(s2)

	if len(grams1) == 0 && len(grams2) == 0 {
		return 1.0
	}
	if len(grams1) == 0 || len(grams2) == 0 {
		return 0.0
	}

	intersection := 0
	for gram := range grams1 {
		if _, ok := grams2[gram]; ok {
			intersection++
		}
	}

	union := len(grams1) + len(grams2) - intersection
	return float64(intersection) / float64(union)
}

func trigramSet(text string) map[string]struct{} {
	const n = 3

	text = strings.ToLower(strings.TrimSpace(text))
	grams := make(map[string]struct{})

	runes := []rune(text)
	if len(runes) < n {
		if len(runes) > 0 {
			grams[string(runes)] = struct{}{}
		}
		return grams
	}

	for i := 0; i <= len(runes)-n; i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}

	return grams
}
