package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/desertthunder/xfer/internal/models"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{"topic channel with bracket tag", "Song [Official Video]", "Band - Topic", "Band Song"},
		{"leading tag and trailing parenthetical", "[MV] Dynamite (Official Video)", "BTS", "BTS Dynamite"},
		{"official suffix and vevo channel", "Bohemian Rhapsody - Official Music Video", "QueenVEVO", "Queen Bohemian Rhapsody"},
		{"decorated parenthetical in the middle", "Hello (Lyrics) World", "Adele", "Adele Hello World"},
		{"stacked parentheticals", "Song (Official Audio) (Remix)", "Artist", "Artist Song"},
		{"official artist suffix", "Skyfall", "Adele Official", "Adele Skyfall"},
		{"title only", "Imagine", "", "Imagine"},
		{"artist only", "", "Queen", "Queen"},
		{"unsearchable", "", "", ""},
		{"only decorations", "[Official Video]", " - Topic", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := models.NewTrack(models.YouTube, "id", tt.title, tt.artist)
			assert.Equal(t, tt.want, BuildQuery(track))
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Bohemian Rhapsody (Official Video)", "bohemian rhapsody"},
		{"We Are The Champions Forever", "champions forever"},
		{"Love Me Like You Do Tonight Again", "love like tonight"},
		{"Up In It", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Keywords(tt.title), tt.title)
	}
}
