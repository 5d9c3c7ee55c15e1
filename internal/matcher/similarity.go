package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// substringScore is awarded when one normalized string contains the other.
const substringScore = 0.8

// Similarity scores two strings in [0, 1] on their normalized forms.
//
// Equal strings score 1, containment scores 0.8, otherwise the score is the number of
// distinct words shared by both divided by the larger distinct word count.
// Empty input scores 0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return substringScore
	}

	setA, setB := wordSet(na), wordSet(nb)
	shorter, longer := setA, setB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	common := 0
	for w := range shorter {
		if _, ok := longer[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(setA), len(setB)))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// EditSimilarity scores two strings in [0, 1] by Levenshtein distance over their
// [NormalizeForMatching] forms. Two empty strings score 1.
func EditSimilarity(a, b string) float64 {
	na, nb := NormalizeForMatching(a), NormalizeForMatching(b)
	maxLen := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(na, nb)
	return float64(maxLen-d) / float64(maxLen)
}
