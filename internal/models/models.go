// package models defines the data model for the playlist transfer tool
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

var _ Model = (*CachedSearch)(nil)

// CachedSearch is a persisted set of search results for a single (platform, query) pair.
type CachedSearch struct {
	id        string
	platform  Platform
	query     string
	tracks    []Track
	createdAt time.Time
	updatedAt time.Time
	expiresAt time.Time
}

// NewCachedSearch creates a [CachedSearch] that expires after ttl.
func NewCachedSearch(platform Platform, query string, tracks []Track, ttl time.Duration) *CachedSearch {
	now := time.Now().UTC()
	return &CachedSearch{
		platform:  platform,
		query:     query,
		tracks:    tracks,
		createdAt: now,
		updatedAt: now,
		expiresAt: now.Add(ttl),
	}
}

// RestoreCachedSearch rebuilds a [CachedSearch] from stored columns.
func RestoreCachedSearch(id string, platform Platform, query string, payload []byte, createdAt, updatedAt, expiresAt time.Time) (*CachedSearch, error) {
	var tracks []Track
	if err := json.Unmarshal(payload, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode cached tracks: %w", err)
	}
	return &CachedSearch{
		id:        id,
		platform:  platform,
		query:     query,
		tracks:    tracks,
		createdAt: createdAt,
		updatedAt: updatedAt,
		expiresAt: expiresAt,
	}, nil
}

func (c *CachedSearch) ID() string           { return c.id }
func (c *CachedSearch) SetID(id string)      { c.id = id }
func (c *CachedSearch) Platform() Platform   { return c.platform }
func (c *CachedSearch) Query() string        { return c.query }
func (c *CachedSearch) Tracks() []Track      { return c.tracks }
func (c *CachedSearch) CreatedAt() time.Time { return c.createdAt }
func (c *CachedSearch) UpdatedAt() time.Time { return c.updatedAt }
func (c *CachedSearch) ExpiresAt() time.Time { return c.expiresAt }

// Expired reports whether the entry is stale at now.
func (c *CachedSearch) Expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && now.After(c.expiresAt)
}

// Payload encodes the cached tracks for storage.
func (c *CachedSearch) Payload() ([]byte, error) {
	tracks := c.tracks
	if tracks == nil {
		tracks = []Track{}
	}
	return json.Marshal(tracks)
}

// Validate checks the platform and query.
func (c *CachedSearch) Validate() error {
	if !c.platform.Valid() {
		return fmt.Errorf("invalid platform %q", c.platform)
	}
	if strings.TrimSpace(c.query) == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}
