package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

// SearchCacheRepository stores search results in the search_cache table.
type SearchCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSearchCacheRepository creates a SearchCacheRepository whose entries expire after ttl.
func NewSearchCacheRepository(db *sql.DB, ttl time.Duration) *SearchCacheRepository {
	return &SearchCacheRepository{db: db, ttl: ttlOrDefault(ttl), now: func() time.Time { return time.Now().UTC() }}
}

// Find returns the cached entry for (platform, query), expired or not.
func (r *SearchCacheRepository) Find(ctx context.Context, platform models.Platform, query string) (*models.CachedSearch, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, platform, query, tracks, created_at, updated_at, expires_at
		FROM search_cache
		WHERE platform = ? AND query = ?
	`, string(platform), NormalizeQuery(query))

	var (
		id, plat, q                     string
		payload                         []byte
		createdAt, updatedAt, expiresAt time.Time
	)
	if err := row.Scan(&id, &plat, &q, &payload, &createdAt, &updatedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query search cache: %w", err)
	}

	return models.RestoreCachedSearch(id, models.Platform(plat), q, payload, createdAt, updatedAt, expiresAt)
}

// Get returns the cached tracks for (platform, query) or [shared.ErrCacheMiss].
func (r *SearchCacheRepository) Get(ctx context.Context, platform models.Platform, query string) ([]models.Track, error) {
	entry, err := r.Find(ctx, platform, query)
	if err != nil {
		return nil, err
	}
	if entry.Expired(r.now()) {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM search_cache WHERE id = ?", entry.ID()); err != nil {
			return nil, fmt.Errorf("failed to evict expired search: %w", err)
		}
		return nil, shared.ErrCacheMiss
	}
	return entry.Tracks(), nil
}

// Put stores tracks for (platform, query), replacing any previous entry.
func (r *SearchCacheRepository) Put(ctx context.Context, platform models.Platform, query string, tracks []models.Track) error {
	entry := models.NewCachedSearch(platform, NormalizeQuery(query), tracks, r.ttl)
	entry.SetID(shared.GenerateID())
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := entry.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	stmt := `
		INSERT INTO search_cache (id, platform, query, tracks, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, query) DO UPDATE SET
			tracks = excluded.tracks,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`
	_, err = r.db.ExecContext(ctx, stmt,
		entry.ID(),
		string(entry.Platform()),
		entry.Query(),
		payload,
		entry.CreatedAt(),
		entry.UpdatedAt(),
		entry.ExpiresAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to store search: %w", err)
	}
	return nil
}

// Clear removes every entry for platform, or every entry when platform is empty.
func (r *SearchCacheRepository) Clear(ctx context.Context, platform models.Platform) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if platform == "" {
		result, err = r.db.ExecContext(ctx, "DELETE FROM search_cache")
	} else {
		result, err = r.db.ExecContext(ctx, "DELETE FROM search_cache WHERE platform = ?", string(platform))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear search cache: %w", err)
	}
	return result.RowsAffected()
}

// PurgeExpired deletes entries that expired before now.
func (r *SearchCacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM search_cache WHERE expires_at <= ?", r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge search cache: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of stored entries, expired ones included.
func (r *SearchCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count search cache: %w", err)
	}
	return n, nil
}
