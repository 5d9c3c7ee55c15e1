package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/desertthunder/xfer/internal/matcher"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
)

// Session defaults.
const (
	DefaultTrackDelay         = 100 * time.Millisecond
	DefaultErrorWarnThreshold = 10
)

// SessionOptions tunes a [Session].
type SessionOptions struct {
	Limit              int           // Candidates requested per search, 0 uses [services.DefaultSearchLimit]
	TrackDelay         time.Duration // Pause between tracks, 0 disables it
	EnrichSuggestions  bool          // Run the artist stage for medium and low matches
	ErrorWarnThreshold int           // Error count above which a warning is logged, 0 disables it
}

// DefaultSessionOptions returns the options used when none are configured.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Limit:              services.DefaultSearchLimit,
		TrackDelay:         DefaultTrackDelay,
		ErrorWarnThreshold: DefaultErrorWarnThreshold,
	}
}

// SessionResult is the outcome of a [Session.Run].
type SessionResult struct {
	Results    []models.MatchResult // One result per processed track, in source order
	Total      int                  // Number of source tracks
	Matched    int                  // Results with a selected track
	ErrorCount int                  // Tracks with at least one failed search
	Cancelled  bool                 // The run stopped before processing every track
}

// MatchPercentage returns the share of matched tracks as a percentage of the total.
func (r *SessionResult) MatchPercentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total) * 100
}

// Uncertain returns the indexes of results that need manual review.
func (r *SessionResult) Uncertain() []int {
	var idx []int
	for i, res := range r.Results {
		if res.Uncertain() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Replace swaps the result at index i, typically after a manual override, and keeps
// Matched in step.
func (r *SessionResult) Replace(i int, result models.MatchResult) error {
	if i < 0 || i >= len(r.Results) {
		return fmt.Errorf("%w: result index %d out of range", shared.ErrInvalidInput, i)
	}
	r.Results[i] = result
	r.Matched = lo.CountBy(r.Results, func(res models.MatchResult) bool { return res.IsMatched() })
	return nil
}

// Session matches a list of source tracks against one destination platform.
//
// Tracks are processed strictly one at a time; a search failure for one track is recorded
// on its result and never stops the run.
type Session struct {
	searcher services.Searcher
	fallback *Fallback
	opts     SessionOptions
	pause    *rate.Limiter
	logger   *log.Logger
}

// NewSession creates a Session searching with s.
func NewSession(s services.Searcher, opts SessionOptions, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "session")

	var pause *rate.Limiter
	if opts.TrackDelay > 0 {
		pause = rate.NewLimiter(rate.Every(opts.TrackDelay), 1)
	}

	return &Session{
		searcher: s,
		fallback: NewFallback(s, opts.Limit, logger),
		opts:     opts,
		pause:    pause,
		logger:   logger,
	}
}

// Run matches every track in order, emitting a progress update after each one.
//
// Cancellation is observed between tracks: the results gathered so far are returned
// together with an error wrapping [shared.ErrCancelled].
func (s *Session) Run(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) (*SessionResult, error) {
	out := &SessionResult{Total: len(tracks), Results: make([]models.MatchResult, 0, len(tracks))}
	warned := false

	cancelled := func(processed int, err error) (*SessionResult, error) {
		out.Cancelled = true
		s.logger.Warn("session cancelled", "processed", processed, "total", len(tracks))
		return out, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return cancelled(i, err)
		}

		if s.pause != nil {
			// The first wait returns immediately. A started pause is never interrupted.
			_ = s.pause.Wait(context.WithoutCancel(ctx))
			if err := ctx.Err(); err != nil {
				return cancelled(i, err)
			}
		}

		result := s.MatchTrack(ctx, track)
		// A track whose searches were cut short by cancellation is abandoned, not recorded.
		if err := ctx.Err(); err != nil && errors.Is(result.Error, err) {
			return cancelled(i, err)
		}
		if result.Error != nil && errors.Is(result.Error, shared.ErrSearchFailed) {
			out.ErrorCount++
		}
		if result.IsMatched() {
			out.Matched++
		}
		out.Results = append(out.Results, result)

		s.logger.Debug("track recorded",
			"index", i+1, "title", track.Title, "artist", track.Artist,
			"confidence", result.Confidence, "reason", result.Reason)
		sendProgress(progress, trackMatchedUpdate(i+1, len(tracks), out.Matched, &out.Results[i]))

		if !warned && s.opts.ErrorWarnThreshold > 0 && out.ErrorCount > s.opts.ErrorWarnThreshold {
			warned = true
			s.logger.Warn("high search error rate, continuing", "errors", out.ErrorCount, "processed", i+1, "total", len(tracks))
		}
	}

	s.logger.Info("session finished", "matched", out.Matched, "errors", out.ErrorCount, "total", out.Total)
	return out, nil
}

// MatchTrack runs the query, primary search, matching and fallback stages for one track.
//
// The returned result carries an error wrapping [shared.ErrSearchFailed] when any search
// for the track failed, or [shared.ErrEmptyQuery] when the track could not be searched.
func (s *Session) MatchTrack(ctx context.Context, track models.Track) models.MatchResult {
	query := matcher.BuildQuery(track)
	if query == "" {
		result := models.NoMatch(track)
		result.Error = fmt.Errorf("%w: %s", shared.ErrEmptyQuery, track.ID)
		return result
	}

	var searchErrs []error
	candidates, err := s.searcher.SearchTracks(ctx, query, s.opts.Limit)
	if err != nil {
		s.logger.Warn("search failed", "query", query, "error", err)
		searchErrs = append(searchErrs, fmt.Errorf("%w: %q: %w", shared.ErrSearchFailed, query, err))
		candidates = nil
	}

	result := matcher.Match(track, candidates)
	var suggestions [][]models.Track
	if result.Confidence <= models.ConfidenceLow {
		suggestions = append(suggestions, matcher.RankedSuggestions(track, candidates, result.Matched))
	}

	switch {
	case !result.IsMatched():
		outcome := s.fallback.Run(ctx, track, query)
		searchErrs = append(searchErrs, outcome.Errors...)
		if outcome.Result.IsMatched() {
			result.Matched = outcome.Result.Matched
			result.Confidence = outcome.Result.Confidence
			result.Reason = outcome.Result.Reason
		}
		suggestions = append(suggestions, outcome.Suggestions)
	case s.opts.EnrichSuggestions && result.Confidence < models.ConfidenceHigh:
		enriched, errs := s.fallback.Enrich(ctx, track)
		for _, e := range errs {
			s.logger.Warn("suggestion enrichment failed", "title", track.Title, "error", e)
		}
		suggestions = append(suggestions, enriched)
	}

	merged := matcher.MergeSuggestions(suggestions...)
	if result.Matched != nil {
		merged = lo.Filter(merged, func(t models.Track, _ int) bool { return t.Key() != result.Matched.Key() })
	}
	result.Suggestions = merged
	result.Error = errors.Join(searchErrs...)
	return result
}
