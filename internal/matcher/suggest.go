package matcher

import (
	"github.com/samber/lo"

	"github.com/desertthunder/xfer/internal/models"
)

// MergeSuggestions concatenates lists, drops repeated (id, platform) pairs keeping the
// first occurrence, and caps the result at [models.MaxSuggestions].
func MergeSuggestions(lists ...[]models.Track) []models.Track {
	merged := lo.UniqBy(lo.Flatten(lists), models.Track.Key)
	if len(merged) > models.MaxSuggestions {
		merged = merged[:models.MaxSuggestions]
	}
	return merged
}

// RankedSuggestions returns candidates ordered by score against source, without the
// track already selected as the match.
func RankedSuggestions(source models.Track, candidates []models.Track, matched *models.Track) []models.Track {
	ranked := lo.FilterMap(Rank(source, candidates), func(s Scored, _ int) (models.Track, bool) {
		return s.Track, matched == nil || s.Track.Key() != matched.Key()
	})
	return MergeSuggestions(ranked)
}

// TopTracks returns at most n tracks from the head of tracks.
func TopTracks(tracks []models.Track, n int) []models.Track {
	if len(tracks) > n {
		return tracks[:n]
	}
	return tracks
}
