// Package tasks orchestrates playlist transfers between music services with real-time progress reporting.
//
// # Matching
//
// A [Session] walks the source tracks strictly in order. For every track it builds a
// query with [matcher.BuildQuery], searches the destination, and scores the candidates
// with [matcher.Match]. When the primary search yields nothing usable the [Fallback]
// stages run:
//
//  1. the raw title, if it differs from the primary query
//  2. the artist alone, keeping results whose titles resemble the source
//  3. up to three keywords from the cleaned title
//
// A failed search counts as zero candidates, so the fallback still runs; the track is
// counted once in [SessionResult.ErrorCount]. Fallback never lowers a confidence tier.
//
// # Core Operations
//
// The [SyncEngine] interface defines the transfer operations:
//
//  1. [SyncEngine.Run] : fetch, match and create in one go
//  2. [SyncEngine.Match] : fetch and match only, used for dry runs and manual review
//  3. [SyncEngine.Create] : create the destination playlist from (possibly reviewed) results
//  4. [SyncEngine.Diff] : compare playlists by ISRC or normalized title/artist
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, matched count, messages,
// and optional data for advanced UI rendering.
package tasks
