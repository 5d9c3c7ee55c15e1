package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	versionMarkerPattern = regexp.MustCompile(`(?i)[(\[][^)\]]*\b(?:live|remix|version|feat|ft|official|video|audio|full|hd|4k)\b[^)\]]*[)\]]`)
	fromQuotedPattern    = regexp.MustCompile(`(?i)[(\[]?\s*\bfrom\s+["“'‘][^"”'’]*["”'’]\s*[)\]]?`)
	fromGroupPattern     = regexp.MustCompile(`(?i)[(\[]\s*from\s+[^)\]]*[)\]]`)
	quotePattern         = regexp.MustCompile("[\"'`‘’“”´]")
)

// genericWords are stripped from the end of a title by [NormalizeForMatching].
var genericWords = map[string]struct{}{
	"song":     {},
	"music":    {},
	"video":    {},
	"audio":    {},
	"lyrics":   {},
	"lyrical":  {},
	"full":     {},
	"new":      {},
	"latest":   {},
	"official": {},
}

// foldDiacritics removes combining marks, so "Beyoncé" becomes "Beyonce".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases text, drops every character that is neither a word character nor
// whitespace, collapses whitespace runs and trims.
//
// Letters and digits of any script count as word characters. Normalize is idempotent.
func Normalize(text string) string {
	folded := strings.ToLower(foldDiacritics(text))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeForMatching is [Normalize] preceded by removal of decorations that differ
// between platforms for the same recording: bracketed version markers, "from <movie>"
// phrases, anything after a "|" and quote characters. Trailing generic words such as
// "official" or "lyrics" are dropped afterwards, keeping at least one word.
func NormalizeForMatching(text string) string {
	if i := strings.Index(text, "|"); i >= 0 {
		text = text[:i]
	}
	text = versionMarkerPattern.ReplaceAllString(text, " ")
	text = fromQuotedPattern.ReplaceAllString(text, " ")
	text = fromGroupPattern.ReplaceAllString(text, " ")
	text = quotePattern.ReplaceAllString(text, "")

	words := strings.Fields(Normalize(text))
	for len(words) > 1 {
		if _, ok := genericWords[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
