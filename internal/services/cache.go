package services

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

// SearchCache stores search results per platform and query.
//
// Get returns [shared.ErrCacheMiss] when nothing usable is stored.
type SearchCache interface {
	Get(ctx context.Context, platform models.Platform, query string) ([]models.Track, error)
	Put(ctx context.Context, platform models.Platform, query string, tracks []models.Track) error
}

// CachedSearcher decorates a [Searcher] with a [SearchCache].
//
// Misses and cache errors fall through to the live search. Only successful searches are
// stored, so a transient failure is retried on the next lookup.
type CachedSearcher struct {
	next     Searcher
	platform models.Platform
	cache    SearchCache
	logger   *log.Logger
}

// NewCachedSearcher wraps next, storing results under platform.
// A nil cache returns next unchanged.
func NewCachedSearcher(next Searcher, platform models.Platform, cache SearchCache, logger *log.Logger) Searcher {
	if cache == nil {
		return next
	}
	return &CachedSearcher{next: next, platform: platform, cache: cache, logger: logger}
}

// SearchTracks implements [Searcher].
//
// Live searches request at least [DefaultSearchLimit] candidates so the stored list can serve
// later calls with a different limit. A stored list shorter than that is complete; a longer one
// that still falls short of the requested limit is treated as a miss and refetched.
func (c *CachedSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	want := searchLimit(limit)

	tracks, err := c.cache.Get(ctx, c.platform, query)
	switch {
	case err == nil && covers(tracks, want):
		c.debug("search cache hit", "query", query, "count", len(tracks))
		return truncate(tracks, want), nil
	case err == nil:
		c.debug("search cache entry too short", "query", query, "count", len(tracks), "limit", want)
	case !errors.Is(err, shared.ErrCacheMiss):
		c.warn("search cache read failed", "query", query, "error", err)
	}

	tracks, err = c.next.SearchTracks(ctx, query, max(want, DefaultSearchLimit))
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, c.platform, query, tracks); err != nil {
		c.warn("search cache write failed", "query", query, "error", err)
	}
	return truncate(tracks, want), nil
}

// covers reports whether a stored list can answer a search for want candidates.
func covers(tracks []models.Track, want int) bool {
	return len(tracks) >= want || len(tracks) < DefaultSearchLimit
}

func (c *CachedSearcher) debug(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, kv...)
	}
}

func (c *CachedSearcher) warn(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, kv...)
	}
}

func truncate(tracks []models.Track, limit int) []models.Track {
	if limit > 0 && len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}
