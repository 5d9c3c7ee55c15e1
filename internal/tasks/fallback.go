package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/xfer/internal/matcher"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
)

// UnknownArtist is the placeholder some platforms use for tracks without artist metadata.
const UnknownArtist = "Unknown Artist"

// ReasonArtistAndTitle is the match reason recorded when the artist-only stage finds the track.
const ReasonArtistAndTitle = "Matched by artist + title comparison"

// artistTitleThreshold is the minimum title similarity for artist-only results to be matched.
const artistTitleThreshold = 0.3

// Fallback runs the secondary searches tried when the primary query finds nothing usable.
//
// Stages run in order and the first one that produces a match wins:
//
//  1. the raw source title, when it differs from the primary query
//  2. the artist alone, filtered by title similarity
//  3. up to three keywords from the cleaned title
type Fallback struct {
	searcher services.Searcher
	limit    int
	logger   *log.Logger
}

// FallbackOutcome is what the fallback stages produced for one track.
type FallbackOutcome struct {
	Result      models.MatchResult // Best result; confidence none when every stage failed
	Suggestions []models.Track     // Merged stage suggestions
	Errors      []error            // Search failures, one per failed stage
}

// Failed reports whether any stage search returned an error.
func (o FallbackOutcome) Failed() bool {
	return len(o.Errors) > 0
}

// NewFallback creates a fallback orchestrator searching with s, capping results to limit.
func NewFallback(s services.Searcher, limit int, logger *log.Logger) *Fallback {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fallback{searcher: s, limit: limit, logger: logger}
}

func (f *Fallback) search(ctx context.Context, stage, query string, outcome *FallbackOutcome) []models.Track {
	tracks, err := f.searcher.SearchTracks(ctx, query, f.limit)
	if err != nil {
		f.logger.Warn("fallback search failed", "stage", stage, "query", query, "error", err)
		outcome.Errors = append(outcome.Errors, fmt.Errorf("%w: %s %q: %w", shared.ErrSearchFailed, stage, query, err))
		return nil
	}
	if f.limit > 0 && len(tracks) > f.limit {
		tracks = tracks[:f.limit]
	}
	return tracks
}

// Run tries every stage for source. primaryQuery is the query that already failed.
func (f *Fallback) Run(ctx context.Context, source models.Track, primaryQuery string) FallbackOutcome {
	outcome := FallbackOutcome{Result: models.NoMatch(source)}
	var suggestions [][]models.Track
	finish := func(result models.MatchResult) FallbackOutcome {
		outcome.Result = result
		outcome.Suggestions = matcher.MergeSuggestions(suggestions...)
		return outcome
	}

	if simplified := strings.TrimSpace(source.Title); simplified != "" && simplified != primaryQuery {
		candidates := f.search(ctx, "simplified", simplified, &outcome)
		if result := matcher.Match(source, candidates); result.IsMatched() {
			f.logger.Debug("matched by simplified query", "title", source.Title)
			return finish(result)
		}
	}

	result, suggested, ok := f.artistStage(ctx, source, &outcome)
	suggestions = append(suggestions, suggested)
	if ok {
		return finish(result)
	}

	title, _ := matcher.SourceFields(source)
	if keywords := matcher.Keywords(title); keywords != "" {
		candidates := f.search(ctx, "keywords", keywords, &outcome)
		suggestions = append(suggestions, matcher.TopTracks(candidates, models.MaxSuggestions))
		if result := matcher.Match(source, candidates); result.IsMatched() {
			f.logger.Debug("matched by keywords", "title", source.Title, "keywords", keywords)
			return finish(result)
		}
	}

	return finish(models.NoMatch(source))
}

// Enrich runs only the artist stage and returns its suggestions, leaving the match to the caller.
func (f *Fallback) Enrich(ctx context.Context, source models.Track) ([]models.Track, []error) {
	outcome := FallbackOutcome{}
	_, suggested, _ := f.artistStage(ctx, source, &outcome)
	return suggested, outcome.Errors
}

// artistStage searches by artist alone and matches the results whose titles resemble the source.
func (f *Fallback) artistStage(ctx context.Context, source models.Track, outcome *FallbackOutcome) (models.MatchResult, []models.Track, bool) {
	title, artist := matcher.SourceFields(source)
	artist = strings.TrimSpace(artist)
	if artist == "" || artist == UnknownArtist {
		return models.NoMatch(source), nil, false
	}

	raw := f.search(ctx, "artist", artist, outcome)
	suggested := matcher.MergeSuggestions(raw)

	type similar struct {
		track models.Track
		score float64
	}
	var filtered []similar
	for _, c := range raw {
		if s := matcher.Similarity(title, c.Title); s > artistTitleThreshold {
			filtered = append(filtered, similar{track: c, score: s})
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].score > filtered[j].score })

	candidates := make([]models.Track, len(filtered))
	for i, s := range filtered {
		candidates[i] = s.track
	}

	result := matcher.Match(source, candidates)
	if !result.IsMatched() {
		return models.NoMatch(source), suggested, false
	}
	result.Reason = ReasonArtistAndTitle
	f.logger.Debug("matched by artist", "title", source.Title, "artist", artist)
	return result, suggested, true
}
