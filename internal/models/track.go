package models

import (
	"fmt"
	"strings"
)

// Platform identifies a music streaming service.
type Platform string

const (
	YouTube Platform = "youtube"
	Spotify Platform = "spotify"
	Apple   Platform = "apple"
	Amazon  Platform = "amazon"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{YouTube, Spotify, Apple, Amazon}

// ParsePlatform resolves a user supplied name (including common aliases) to a [Platform].
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "youtube", "yt", "ytmusic", "youtube-music":
		return YouTube, nil
	case "spotify", "spot":
		return Spotify, nil
	case "apple", "applemusic", "apple-music":
		return Apple, nil
	case "amazon", "amazonmusic", "amazon-music":
		return Amazon, nil
	default:
		return "", fmt.Errorf("unknown platform %q", name)
	}
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case YouTube, Spotify, Apple, Amazon:
		return true
	}
	return false
}

// VideoOriented reports whether the platform conflates artist and title into a single field.
func (p Platform) VideoOriented() bool {
	return p == YouTube
}

func (p Platform) String() string { return string(p) }

// DisplayName returns the human readable service name.
func (p Platform) DisplayName() string {
	switch p {
	case YouTube:
		return "YouTube Music"
	case Spotify:
		return "Spotify"
	case Apple:
		return "Apple Music"
	case Amazon:
		return "Amazon Music"
	default:
		return string(p)
	}
}

// Track is a platform-agnostic song reference.
//
// Tracks are values: the matching engine never mutates one, replacement produces a new Track.
type Track struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist,omitempty"`
	Album        string   `json:"album,omitempty"`
	Duration     int      `json:"duration_seconds,omitempty"` // Duration in seconds, 0 when unknown
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Platform     Platform `json:"platform"`
	OriginalID   string   `json:"original_id"`
	ISRC         string   `json:"isrc,omitempty"`
}

// NewTrack builds a Track with OriginalID set to id.
func NewTrack(platform Platform, id, title, artist string) Track {
	return Track{
		ID:         id,
		Title:      title,
		Artist:     artist,
		Platform:   platform,
		OriginalID: id,
	}
}

// HasDuration reports whether the track carries a known duration.
func (t Track) HasDuration() bool {
	return t.Duration > 0
}

// Key identifies a track across result lists by its (id, platform) pair.
func (t Track) Key() string {
	return string(t.Platform) + ":" + t.ID
}

func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TrackCount  int      `json:"track_count"`
	Public      bool     `json:"public"`
	Platform    Platform `json:"platform"`
}

// PlaylistExport represents a playlist with all its tracks for migration
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}
