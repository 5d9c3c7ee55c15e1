package matcher

import (
	"regexp"
	"strings"

	"github.com/desertthunder/xfer/internal/models"
)

var (
	leadingBracketPattern  = regexp.MustCompile(`^\s*\[[^\]]*\]`)
	trailingParenPattern   = regexp.MustCompile(`\([^)]*\)\s*$`)
	officialSuffixPattern  = regexp.MustCompile(`(?i)\s-\s*official.*$`)
	decorationParenPattern = regexp.MustCompile(`(?i)\([^)]*(?:official|lyrics|audio)[^)]*\)`)
	bracketPattern         = regexp.MustCompile(`\[[^\]]*\]`)

	topicSuffixPattern    = regexp.MustCompile(`(?i)\s*-\s*topic\s*$`)
	vevoSuffixPattern     = regexp.MustCompile(`(?i)vevo\s*$`)
	officialArtistPattern = regexp.MustCompile(`(?i)official.*$`)
)

// CleanTitle strips upload decorations from a title: a leading [tag], a trailing
// parenthetical, an "- Official ..." suffix, parentheticals mentioning official, lyrics
// or audio, and any other [bracketed] group.
func CleanTitle(title string) string {
	title = leadingBracketPattern.ReplaceAllString(title, "")
	title = trailingParenPattern.ReplaceAllString(title, "")
	title = officialSuffixPattern.ReplaceAllString(title, "")
	title = decorationParenPattern.ReplaceAllString(title, "")
	title = bracketPattern.ReplaceAllString(title, "")
	return collapseSpaces(title)
}

// CleanArtist strips channel decorations such as "- Topic", "VEVO" and "Official ..." from an artist name.
func CleanArtist(artist string) string {
	artist = topicSuffixPattern.ReplaceAllString(artist, "")
	artist = vevoSuffixPattern.ReplaceAllString(artist, "")
	artist = officialArtistPattern.ReplaceAllString(artist, "")
	return collapseSpaces(artist)
}

// BuildQuery turns a track into a destination search query: "{artist} {title}" from the
// cleaned fields, the cleaned title alone when there is no artist, or "" when the track
// cannot be searched.
func BuildQuery(track models.Track) string {
	title := CleanTitle(track.Title)
	artist := CleanArtist(track.Artist)
	return strings.TrimSpace(artist + " " + title)
}

// Keywords returns up to three words longer than three characters from the cleaned,
// normalized title, joined by spaces.
func Keywords(title string) string {
	var picked []string
	for _, w := range strings.Fields(Normalize(CleanTitle(title))) {
		if len([]rune(w)) <= 3 {
			continue
		}
		picked = append(picked, w)
		if len(picked) == 3 {
			break
		}
	}
	return strings.Join(picked, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
