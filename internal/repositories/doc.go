// Package repositories persists destination search results so repeated transfers do not
// hit platform APIs for queries already answered.
//
// Key Implementations:
//   - [SearchCacheRepository] : SQLite table keyed by (platform, normalized query) with expiry
//   - [RedisSearchCache] : Redis keys with a native TTL, for caches shared between machines
//
// Both satisfy the cache interface consumed by services.CachedSearcher and report misses
// with [shared.ErrCacheMiss]. Expired rows are treated as misses and removed lazily.
package repositories
