// Package models defines the domain entities shared by the matching engine, the platform services and the CLI.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight, immutable values describing platform data
//   - [Track] : Platform-agnostic song reference
//   - [Playlist] : Basic playlist metadata from music services
//   - [PlaylistExport] : Playlist with complete track listing
//   - [MatchResult] : Outcome of matching one source track on a destination platform
//
// 2. Persistent Entities: Database-backed models with lifecycle metadata
//   - [CachedSearch] : Search results for a (platform, query) pair, used to avoid repeated lookups
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
package models
