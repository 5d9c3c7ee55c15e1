package tasks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
	tu "github.com/desertthunder/xfer/internal/testing"
)

func fastOptions() SessionOptions {
	opts := DefaultSessionOptions()
	opts.TrackDelay = 0
	return opts
}

func numberedTracks(words ...string) []models.Track {
	tracks := make([]models.Track, len(words))
	for i, w := range words {
		tracks[i] = models.NewTrack(models.YouTube, "yt-"+w, "Song "+w, "Artist "+w)
	}
	return tracks
}

func scriptExactMatches(s *tu.ScriptedSearcher, tracks []models.Track) {
	for _, tr := range tracks {
		s.On(tr.Artist+" "+tr.Title, spotify("sp-"+tr.ID, tr.Title, tr.Artist))
	}
}

func TestSession_FailureIsIsolatedToOneTrack(t *testing.T) {
	tracks := numberedTracks("One", "Two", "Three", "Four", "Five")
	searcher := tu.NewScriptedSearcher()
	scriptExactMatches(searcher, tracks)
	searcher.
		Fail("Artist Three Song Three").
		Fail("Song Three").
		Fail("Artist Three").
		Fail("song three")

	result, err := NewSession(searcher, fastOptions(), quietLogger()).Run(context.Background(), tracks, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Results) != 5 {
		t.Fatalf("Results = %d, want 5", len(result.Results))
	}
	if result.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", result.ErrorCount)
	}
	if result.Matched != 4 {
		t.Errorf("Matched = %d, want 4", result.Matched)
	}

	third := result.Results[2]
	if third.Confidence != models.ConfidenceNone || third.Matched != nil {
		t.Errorf("track 3 = %+v, want none", third)
	}
	if !errors.Is(third.Error, shared.ErrSearchFailed) {
		t.Errorf("track 3 error = %v, want ErrSearchFailed", third.Error)
	}

	for i, r := range result.Results {
		if r.Source.ID != tracks[i].ID {
			t.Errorf("Results[%d].Source = %s, want %s", i, r.Source.ID, tracks[i].ID)
		}
	}
}

func TestSession_PrimaryFailureStillRunsFallback(t *testing.T) {
	source := spotify("sp", "Bohemian Rhapsody", "Queen")
	searcher := tu.NewScriptedSearcher().
		Fail("Queen Bohemian Rhapsody").
		On("Bohemian Rhapsody", models.NewTrack(models.YouTube, "yt", "Bohemian Rhapsody", "Queen"))

	result, err := NewSession(searcher, fastOptions(), quietLogger()).Run(context.Background(), []models.Track{source}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Matched != 1 || result.ErrorCount != 1 {
		t.Errorf("Matched = %d, ErrorCount = %d, want 1 and 1", result.Matched, result.ErrorCount)
	}
}

func TestSession_EmptyQuery(t *testing.T) {
	searcher := tu.NewScriptedSearcher()
	tracks := []models.Track{models.NewTrack(models.YouTube, "blank", "[Official Video]", "")}

	result, err := NewSession(searcher, fastOptions(), quietLogger()).Run(context.Background(), tracks, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	r := result.Results[0]
	if r.Confidence != models.ConfidenceNone {
		t.Errorf("Confidence = %v, want none", r.Confidence)
	}
	if !errors.Is(r.Error, shared.ErrEmptyQuery) {
		t.Errorf("Error = %v, want ErrEmptyQuery", r.Error)
	}
	if result.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", result.ErrorCount)
	}
	if q := searcher.Queries(); len(q) != 0 {
		t.Errorf("Queries = %v, want none", q)
	}
}

func TestSession_Progress(t *testing.T) {
	tracks := numberedTracks("One", "Two", "Three")
	searcher := tu.NewScriptedSearcher()
	scriptExactMatches(searcher, tracks[:2])
	progress := make(chan ProgressUpdate, 10)

	if _, err := NewSession(searcher, fastOptions(), quietLogger()).Run(context.Background(), tracks, progress); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	close(progress)

	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	if len(updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(updates))
	}

	wantMatched := []int{1, 2, 2}
	for i, u := range updates {
		if u.Phase != MatchTracks || u.Step != i+1 || u.Total != 3 {
			t.Errorf("update %d = %+v", i, u)
		}
		if u.Matched != wantMatched[i] {
			t.Errorf("update %d Matched = %d, want %d", i, u.Matched, wantMatched[i])
		}
	}
}

func TestSession_ProgressNeverBlocks(t *testing.T) {
	tracks := numberedTracks("One", "Two", "Three")
	progress := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = NewSession(tu.NewScriptedSearcher(), fastOptions(), quietLogger()).Run(context.Background(), tracks, progress)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked on an unread progress channel")
	}
}

type cancellingSearcher struct {
	services.Searcher
	trigger string
	cancel  context.CancelFunc
}

func (c *cancellingSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == c.trigger {
		c.cancel()
	}
	return c.Searcher.SearchTracks(ctx, query, limit)
}

func TestSession_Cancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := NewSession(tu.NewScriptedSearcher(), fastOptions(), quietLogger()).Run(ctx, numberedTracks("One"), nil)

		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if !result.Cancelled || len(result.Results) != 0 {
			t.Errorf("result = %+v, want cancelled with no results", result)
		}
	})

	t.Run("between tracks", func(t *testing.T) {
		tracks := numberedTracks("One", "Two", "Three", "Four")
		scripted := tu.NewScriptedSearcher()
		scriptExactMatches(scripted, tracks)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searcher := &cancellingSearcher{Searcher: scripted, trigger: "Artist Two Song Two", cancel: cancel}

		result, err := NewSession(searcher, fastOptions(), quietLogger()).Run(ctx, tracks, nil)

		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if len(result.Results) != 2 {
			t.Fatalf("Results = %d, want 2 (the in-flight track completes)", len(result.Results))
		}
		if result.Total != 4 || !result.Cancelled {
			t.Errorf("Total = %d, Cancelled = %v", result.Total, result.Cancelled)
		}
	})
}

// contextSearcher fails every search once its context is done, like the platform clients.
type contextSearcher struct {
	services.Searcher
}

func (c *contextSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Searcher.SearchTracks(ctx, query, limit)
}

func TestSession_CancellationIsNotASearchFailure(t *testing.T) {
	t.Run("during the pause", func(t *testing.T) {
		tracks := numberedTracks("One", "Two", "Three")
		scripted := tu.NewScriptedSearcher()
		scriptExactMatches(scripted, tracks)
		opts := fastOptions()
		opts.TrackDelay = 300 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		time.AfterFunc(100*time.Millisecond, cancel)

		result, err := NewSession(&contextSearcher{Searcher: scripted}, opts, quietLogger()).Run(ctx, tracks, nil)

		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if len(result.Results) != 1 || result.Matched != 1 {
			t.Fatalf("Results = %d, Matched = %d, want 1 and 1", len(result.Results), result.Matched)
		}
		if result.ErrorCount != 0 {
			t.Errorf("ErrorCount = %d, want 0", result.ErrorCount)
		}
		if got := scripted.Calls("Artist Two Song Two"); got != 0 {
			t.Errorf("track 2 searched %d times after cancellation, want 0", got)
		}
	})

	t.Run("during a search", func(t *testing.T) {
		tracks := numberedTracks("One", "Two", "Three")
		scripted := tu.NewScriptedSearcher()
		scriptExactMatches(scripted, tracks)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searcher := &cancellingSearcher{
			Searcher: &contextSearcher{Searcher: scripted},
			trigger:  "Artist Two Song Two",
			cancel:   cancel,
		}

		result, err := NewSession(searcher, fastOptions(), quietLogger()).Run(ctx, tracks, nil)

		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if len(result.Results) != 1 {
			t.Fatalf("Results = %d, want 1 (the interrupted track is abandoned)", len(result.Results))
		}
		if result.ErrorCount != 0 {
			t.Errorf("ErrorCount = %d, want 0", result.ErrorCount)
		}
	})
}

func TestSession_TrackDelay(t *testing.T) {
	opts := fastOptions()
	opts.TrackDelay = 30 * time.Millisecond

	start := time.Now()
	_, err := NewSession(tu.NewScriptedSearcher(), opts, quietLogger()).Run(context.Background(), numberedTracks("One", "Two", "Three"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Errorf("elapsed = %v, want at least two pauses", elapsed)
	}
}

func TestSession_WarnsOnHighErrorRate(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	opts := fastOptions()
	opts.ErrorWarnThreshold = 1

	searcher := tu.NewScriptedSearcher().FailAll(tu.ErrScripted)
	result, err := NewSession(searcher, opts, logger).Run(context.Background(), numberedTracks("One", "Two", "Three"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ErrorCount != 3 || len(result.Results) != 3 {
		t.Errorf("ErrorCount = %d, Results = %d, want 3 and 3", result.ErrorCount, len(result.Results))
	}
	if got := strings.Count(buf.String(), "high search error rate"); got != 1 {
		t.Errorf("warning logged %d times, want 1", got)
	}
}

func TestSession_SuggestionsForLowConfidence(t *testing.T) {
	source := spotify("sp", "Hello There World Now", "")
	low := models.NewTrack(models.YouTube, "low", "Hello World", "")
	other := models.NewTrack(models.YouTube, "other", "Goodbye World", "")
	searcher := tu.NewScriptedSearcher().On("Hello There World Now", low, other)

	r := NewSession(searcher, fastOptions(), quietLogger()).MatchTrack(context.Background(), source)

	if r.Confidence != models.ConfidenceLow || r.Matched == nil || r.Matched.ID != "low" {
		t.Fatalf("result = %+v, want a low confidence match", r)
	}
	if len(r.Suggestions) != 1 || r.Suggestions[0].ID != "other" {
		t.Errorf("Suggestions = %v, want [other]", r.Suggestions)
	}
	for _, s := range r.Suggestions {
		if s.Key() == r.Matched.Key() {
			t.Errorf("suggestions contain the matched track %s", s.ID)
		}
	}
}

func TestSession_EnrichSuggestions(t *testing.T) {
	source := spotify("sp", "Hey Jude", "The Beatles")
	primary := models.NewTrack(models.YouTube, "cover", "Hey Jude Cover", "Beatles Revival")
	byArtist := []models.Track{
		models.NewTrack(models.YouTube, "b1", "Let It Be", "The Beatles"),
		models.NewTrack(models.YouTube, "b2", "Yesterday", "The Beatles"),
	}

	for _, enrich := range []bool{false, true} {
		searcher := tu.NewScriptedSearcher().
			On("The Beatles Hey Jude", primary).
			On("The Beatles", byArtist...)
		opts := fastOptions()
		opts.EnrichSuggestions = enrich

		r := NewSession(searcher, opts, quietLogger()).MatchTrack(context.Background(), source)

		if r.Matched == nil || r.Matched.ID != "cover" {
			t.Fatalf("enrich=%v: Matched = %v, want cover", enrich, r.Matched)
		}
		if r.Confidence != models.ConfidenceMedium {
			t.Fatalf("enrich=%v: Confidence = %v, want medium", enrich, r.Confidence)
		}

		wantCalls, wantSuggestions := 0, 0
		if enrich {
			wantCalls, wantSuggestions = 1, 2
		}
		if got := searcher.Calls("The Beatles"); got != wantCalls {
			t.Errorf("enrich=%v: artist searches = %d, want %d", enrich, got, wantCalls)
		}
		if len(r.Suggestions) != wantSuggestions {
			t.Errorf("enrich=%v: Suggestions = %d, want %d", enrich, len(r.Suggestions), wantSuggestions)
		}
	}
}

func TestSessionResult_Replace(t *testing.T) {
	src := models.NewTrack(models.YouTube, "yt1", "Song", "Artist")
	pick := spotify("sp1", "Song", "Artist")
	r := &SessionResult{Total: 2, Results: []models.MatchResult{models.NoMatch(src), models.NoMatch(src)}}

	if err := r.Replace(1, r.Results[1].Override(pick)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if r.Matched != 1 {
		t.Errorf("expected 1 matched after override, got %d", r.Matched)
	}
	if r.Results[1].Reason != models.ReasonManual {
		t.Errorf("expected manual reason, got %q", r.Results[1].Reason)
	}

	if err := r.Replace(1, r.Results[1].Clear()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if r.Matched != 0 {
		t.Errorf("expected 0 matched after clear, got %d", r.Matched)
	}

	if err := r.Replace(5, models.NoMatch(src)); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
