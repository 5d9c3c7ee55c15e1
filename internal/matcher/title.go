package matcher

import "strings"

// ParsedTitle is the result of splitting a video title.
type ParsedTitle struct {
	Artist string
	Title  string
}

var titleSeparators = []string{" - ", " – ", " — ", " | "}

// ParseTitle splits "Artist - Title" style video titles.
//
// Separators are tried in order (hyphen, en dash, em dash, pipe); the first one that
// splits the title into exactly two non-empty parts wins. Otherwise the whole trimmed
// title is returned with an empty artist.
func ParseTitle(title string) ParsedTitle {
	for _, sep := range titleSeparators {
		parts := strings.Split(title, sep)
		if len(parts) != 2 {
			continue
		}
		artist, song := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if artist != "" && song != "" {
			return ParsedTitle{Artist: artist, Title: song}
		}
	}
	return ParsedTitle{Title: strings.TrimSpace(title)}
}
