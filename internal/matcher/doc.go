// Package matcher decides whether a track found on one platform is the same song as a
// track from another.
//
// The package is pure: every function is deterministic and free of I/O.
//
//   - [Normalize] and [NormalizeForMatching] canonicalize free text.
//   - [Similarity] scores word overlap; [EditSimilarity] scores character edits.
//   - [ParseTitle] splits "Artist - Title" video titles.
//   - [BuildQuery] turns a source track into a destination search query.
//   - [Match] ranks candidates and assigns a [models.Confidence] tier.
package matcher
