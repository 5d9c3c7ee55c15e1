// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/xfer/internal/models"
)

// ErrScripted is returned by [ScriptedSearcher] for queries registered with Fail.
var ErrScripted = errors.New("scripted search failure")

// ScriptedSearcher answers searches from a fixed query → tracks table and records every call.
//
// Unknown queries return no results. It is safe for concurrent use.
type ScriptedSearcher struct {
	mu      sync.Mutex
	results map[string][]models.Track
	fail    map[string]error
	failAll error
	queries []string
}

func NewScriptedSearcher() *ScriptedSearcher {
	return &ScriptedSearcher{results: map[string][]models.Track{}, fail: map[string]error{}}
}

// On registers the tracks returned for query.
func (s *ScriptedSearcher) On(query string, tracks ...models.Track) *ScriptedSearcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[query] = tracks
	return s
}

// Fail makes every search for query return [ErrScripted].
func (s *ScriptedSearcher) Fail(query string) *ScriptedSearcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[query] = ErrScripted
	return s
}

// FailAll makes every search return err.
func (s *ScriptedSearcher) FailAll(err error) *ScriptedSearcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = err
	return s
}

func (s *ScriptedSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)

	if s.failAll != nil {
		return nil, s.failAll
	}
	if err, ok := s.fail[query]; ok {
		return nil, err
	}
	tracks := s.results[query]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return append([]models.Track(nil), tracks...), nil
}

// Queries returns every query searched so far, in order.
func (s *ScriptedSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Calls returns how many times query was searched.
func (s *ScriptedSearcher) Calls(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.queries {
		if q == query {
			n++
		}
	}
	return n
}

// MockService is a test double for services.Service backed by a [ScriptedSearcher].
type MockService struct {
	*ScriptedSearcher

	Plat      models.Platform
	Playlists []models.Playlist
	Exports   map[string]*models.PlaylistExport
	Created   *models.Playlist

	AuthErr    error
	ExportErr  error
	ImportErr  error
	ListErr    error
	Imported   []*models.PlaylistExport
	exportSeen int
	// ExportErrOnce only fails the first ExportPlaylist call.
	ExportErrOnce bool
}

// NewMockService creates a MockService for platform with an empty search script.
func NewMockService(platform models.Platform) *MockService {
	return &MockService{
		ScriptedSearcher: NewScriptedSearcher(),
		Plat:             platform,
		Exports:          map[string]*models.PlaylistExport{},
	}
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Playlists, nil
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	m.exportSeen++
	if m.ExportErr != nil && (!m.ExportErrOnce || m.exportSeen == 1) {
		return nil, m.ExportErr
	}
	if export, ok := m.Exports[playlistID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("playlist %s not found", playlistID)
}

func (m *MockService) ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error) {
	if m.ImportErr != nil {
		return nil, m.ImportErr
	}
	m.Imported = append(m.Imported, playlist)
	if m.Created != nil {
		return m.Created, nil
	}
	created := playlist.Playlist
	created.ID = "created-" + created.Name
	created.TrackCount = len(playlist.Tracks)
	return &created, nil
}

func (m *MockService) Platform() models.Platform { return m.Plat }

func (m *MockService) Name() string { return m.Plat.DisplayName() }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
