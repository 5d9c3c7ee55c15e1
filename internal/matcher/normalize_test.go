package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Hello World", "hello world"},
		{"strips punctuation", "Don't Stop Me Now!", "dont stop me now"},
		{"collapses whitespace", "  a \t b\n\nc  ", "a b c"},
		{"keeps digits and underscores", "Track_01 (2011)", "track_01 2011"},
		{"folds diacritics", "Beyoncé – Déjà Vu", "beyonce deja vu"},
		{"keeps non latin letters", "東京 Tokyo", "東京 tokyo"},
		{"empty", "", ""},
		{"only punctuation", "!?.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Queen - Bohemian Rhapsody (Official Video)",
		"  AC/DC — Back In Black  ",
		"Sigur Rós: Hoppípolla",
		"it's a   \"quoted\" title",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeForMatching(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"removes version marker", "Imagine (Remastered Version)", "imagine"},
		{"removes feat marker", "Stay [feat. Justin Bieber]", "stay"},
		{"removes live marker", "Hallelujah (Live at the Hall)", "hallelujah"},
		{"removes quoted from phrase", `Naatu Naatu (From "RRR")`, "naatu naatu"},
		{"removes from group", "Jai Ho (From Slumdog Millionaire)", "jai ho"},
		{"cuts after pipe", "Kesariya | Brahmastra | Arijit", "kesariya"},
		{"drops apostrophes", "It's My Life", "its my life"},
		{"strips trailing generic words", "Perfect Song Lyrics", "perfect"},
		{"keeps a single generic word", "Music", "music"},
		{"keeps unrelated brackets", "Song (Reprise)", "song reprise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeForMatching(tt.input))
		})
	}
}
