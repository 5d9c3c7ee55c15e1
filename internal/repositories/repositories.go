package repositories

import (
	"strings"
	"time"
)

// DefaultTTL is how long search results stay cached when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// NormalizeQuery lowercases query and collapses whitespace so equivalent queries share one entry.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
