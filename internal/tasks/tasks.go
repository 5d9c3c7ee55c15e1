package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/xfer/internal/matcher"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
)

// TransferRunResult contains all data from a full transfer operation.
type TransferRunResult struct {
	SourcePlaylist *models.PlaylistExport // Source playlist with tracks
	DestPlaylist   *models.Playlist       // Created destination playlist, nil until created
	DestPlatform   models.Platform        // Platform the tracks were matched against
	*SessionResult
}

// ComparisonResult contains track comparison details between two playlists.
type ComparisonResult struct {
	SourcePlaylist *models.PlaylistExport // Source playlist
	DestPlaylist   *models.PlaylistExport // Destination playlist
	MatchedCount   int                    // Tracks found in both
	MissingInDest  []models.Track         // Tracks in source but not in dest
	ExtraInDest    []models.Track         // Tracks in dest but not in source
}

// TransferDiffResult contains the results of comparing two playlists.
type TransferDiffResult struct {
	Comparison ComparisonResult
}

// SyncEngine defines operations for moving playlists between services.
type SyncEngine interface {
	// Run fetches the source playlist, matches every track on the destination and creates the destination playlist.
	Run(ctx context.Context, sourceIDOrName, destName string, progress chan<- ProgressUpdate) (*TransferRunResult, error)

	// Match fetches the source playlist and matches every track without creating anything.
	Match(ctx context.Context, sourceIDOrName string, progress chan<- ProgressUpdate) (*TransferRunResult, error)

	// Create creates the destination playlist from the matched tracks of a previous run.
	Create(ctx context.Context, run *TransferRunResult, destName string, progress chan<- ProgressUpdate) (*models.Playlist, error)

	// Diff compares two playlists across services by identifying matched tracks, missing tracks, and extra tracks.
	Diff(ctx context.Context, sourceID, destID string, progress chan<- ProgressUpdate) (*TransferDiffResult, error)
}

// TransferEngine implements SyncEngine between a source and a destination service.
//
// Searches go through searcher, which defaults to the destination service and is usually
// a cache decorator around it.
type TransferEngine struct {
	source   services.Service
	dest     services.Service
	searcher services.Searcher
	opts     SessionOptions
	logger   *log.Logger
}

// NewTransferEngine creates a TransferEngine. A nil searcher searches dest directly.
func NewTransferEngine(source, dest services.Service, searcher services.Searcher, opts SessionOptions, logger *log.Logger) *TransferEngine {
	if searcher == nil {
		searcher = dest
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TransferEngine{
		source:   source,
		dest:     dest,
		searcher: searcher,
		opts:     opts,
		logger:   logger,
	}
}

func (e *TransferEngine) ready() error {
	if e.source == nil {
		return fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// resolvePlaylist exports the playlist with the given ID, falling back to a lookup by name.
func (e *TransferEngine) resolvePlaylist(ctx context.Context, svc services.Service, idOrName string) (*models.PlaylistExport, error) {
	export, err := svc.ExportPlaylist(ctx, idOrName)
	if err == nil {
		return export, nil
	}

	playlists, playlistsErr := svc.GetPlaylists(ctx)
	if playlistsErr != nil {
		return nil, fmt.Errorf("%w: failed to export playlist: %v", shared.ErrPlaylistNotFound, errors.Join(err, playlistsErr))
	}

	var matchedID string
	for _, pl := range playlists {
		if pl.Name == idOrName {
			matchedID = pl.ID
			break
		}
	}
	if matchedID == "" {
		return nil, fmt.Errorf("%w: no playlist found with ID or name '%s'", shared.ErrPlaylistNotFound, idOrName)
	}

	export, err = svc.ExportPlaylist(ctx, matchedID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export playlist: %v", shared.ErrAPIRequest, err)
	}
	return export, nil
}

// Match fetches the source playlist and runs a match [Session] over its tracks.
func (e *TransferEngine) Match(ctx context.Context, sourceIDOrName string, progress chan<- ProgressUpdate) (*TransferRunResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	sendProgress(progress, fetchSourceUpdate(1, 1, e.source.Name()))
	srcPlaylist, err := e.resolvePlaylist(ctx, e.source, sourceIDOrName)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, foundPlaylistUpdate(srcPlaylist))

	e.logger.Info("matching playlist",
		"playlist", srcPlaylist.Playlist.Name, "tracks", len(srcPlaylist.Tracks),
		"from", e.source.Platform(), "to", e.dest.Platform())

	session := NewSession(e.searcher, e.opts, e.logger)
	sessionResult, err := session.Run(ctx, srcPlaylist.Tracks, progress)
	return &TransferRunResult{
		SourcePlaylist: srcPlaylist,
		DestPlatform:   e.dest.Platform(),
		SessionResult:  sessionResult,
	}, err
}

// Create creates the destination playlist with every matched track of run, in source order.
func (e *TransferEngine) Create(ctx context.Context, run *TransferRunResult, destName string, progress chan<- ProgressUpdate) (*models.Playlist, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if run == nil || run.SessionResult == nil {
		return nil, fmt.Errorf("%w: no match results", shared.ErrInvalidInput)
	}

	matchedTracks := models.MatchedTracks(run.Results)
	if len(matchedTracks) == 0 {
		return nil, fmt.Errorf("%w: cannot create empty playlist", shared.ErrNoTracksMatched)
	}

	srcName := run.SourcePlaylist.Playlist.Name
	if destName == "" {
		destName = srcName
	}

	sendProgress(progress, createDestinationUpdate(e.dest.Platform()))
	destExport := &models.PlaylistExport{
		Playlist: models.Playlist{
			Name:        destName,
			Description: fmt.Sprintf("Migrated from %s: %s", e.source.Name(), srcName),
			Public:      false,
			Platform:    e.dest.Platform(),
		},
		Tracks: matchedTracks,
	}

	created, err := e.dest.ImportPlaylist(ctx, destExport)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
	}

	run.DestPlaylist = created
	sendProgress(progress, createPlaylistUpdate(created))
	e.logger.Info("playlist created", "name", created.Name, "id", created.ID, "tracks", len(matchedTracks))
	return created, nil
}

// Run performs a full transfer: fetch, match, then create the destination playlist.
//
// A cancelled session or one with zero matches returns the partial result with an error
// and creates nothing.
func (e *TransferEngine) Run(ctx context.Context, sourceIDOrName, destName string, progress chan<- ProgressUpdate) (*TransferRunResult, error) {
	result, err := e.Match(ctx, sourceIDOrName, progress)
	if err != nil {
		return result, err
	}
	if _, err := e.Create(ctx, result, destName, progress); err != nil {
		return result, err
	}
	return result, nil
}

// Diff compares two playlists and identifies differences.
//
// Tracks are compared by ISRC when both sides carry one, otherwise by their title and
// artist after [matcher.NormalizeForMatching]. Tracks left over on both sides are then
// paired when their titles and artists are within [FuzzyPairThreshold] edit similarity,
// so small spelling differences do not count as missing.
func (e *TransferEngine) Diff(ctx context.Context, sourceID, destID string, progress chan<- ProgressUpdate) (*TransferDiffResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	result := &TransferDiffResult{}

	sendProgress(progress, fetchSourceUpdate(1, 2, e.source.Name()))
	sourceExport, err := e.resolvePlaylist(ctx, e.source, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to export source playlist: %w", err)
	}

	sendProgress(progress, fetchDestUpdate(2, 2, e.dest.Name()))
	destExport, err := e.resolvePlaylist(ctx, e.dest, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to export destination playlist: %w", err)
	}

	result.Comparison.SourcePlaylist = sourceExport
	result.Comparison.DestPlaylist = destExport

	sendProgress(progress, compareUpdate(1, 2))
	destIndex := newTrackIndex(destExport.Tracks)
	sourceIndex := newTrackIndex(sourceExport.Tracks)

	sendProgress(progress, compareUpdate(2, 2))
	var missing, extra []models.Track
	for _, srcTrack := range sourceExport.Tracks {
		if destIndex.contains(srcTrack) {
			result.Comparison.MatchedCount++
		} else {
			missing = append(missing, srcTrack)
		}
	}
	for _, destTrack := range destExport.Tracks {
		if !sourceIndex.contains(destTrack) {
			extra = append(extra, destTrack)
		}
	}

	paired := make([]bool, len(extra))
	for _, srcTrack := range missing {
		if j := closestTrack(srcTrack, extra, paired); j >= 0 {
			paired[j] = true
			result.Comparison.MatchedCount++
			continue
		}
		result.Comparison.MissingInDest = append(result.Comparison.MissingInDest, srcTrack)
	}
	for j, destTrack := range extra {
		if !paired[j] {
			result.Comparison.ExtraInDest = append(result.Comparison.ExtraInDest, destTrack)
		}
	}

	return result, nil
}

// FuzzyPairThreshold is the edit similarity both title and artist must reach for
// [TransferEngine.Diff] to pair two tracks whose keys differ.
const FuzzyPairThreshold = 0.85

// closestTrack returns the index of the unpaired candidate closest to t by edit
// similarity, or -1 when none clears [FuzzyPairThreshold] on both fields.
func closestTrack(t models.Track, candidates []models.Track, paired []bool) int {
	title, artist := comparableFields(t)
	best, bestScore := -1, 0.0
	for j, c := range candidates {
		if paired[j] {
			continue
		}
		ct, ca := comparableFields(c)
		ts, as := matcher.EditSimilarity(title, ct), matcher.EditSimilarity(artist, ca)
		if ts < FuzzyPairThreshold || as < FuzzyPairThreshold {
			continue
		}
		if score := ts + as; score > bestScore {
			best, bestScore = j, score
		}
	}
	return best
}

func comparableFields(t models.Track) (title, artist string) {
	title, artist = matcher.SourceFields(t)
	return title, matcher.CleanArtist(artist)
}

// TrackKey returns the platform-independent comparison key for a track.
func TrackKey(t models.Track) string {
	title, artist := comparableFields(t)
	return matcher.NormalizeForMatching(artist) + "|" + matcher.NormalizeForMatching(title)
}

type trackIndex struct {
	keys  map[string]struct{}
	isrcs map[string]struct{}
}

func newTrackIndex(tracks []models.Track) trackIndex {
	idx := trackIndex{keys: make(map[string]struct{}, len(tracks)), isrcs: make(map[string]struct{})}
	for _, t := range tracks {
		idx.keys[TrackKey(t)] = struct{}{}
		if t.ISRC != "" {
			idx.isrcs[t.ISRC] = struct{}{}
		}
	}
	return idx
}

func (idx trackIndex) contains(t models.Track) bool {
	if t.ISRC != "" {
		if _, ok := idx.isrcs[t.ISRC]; ok {
			return true
		}
	}
	_, ok := idx.keys[TrackKey(t)]
	return ok
}
