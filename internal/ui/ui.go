package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	MatchingView
	ReviewView
	SuggestionView
	ConfirmView
	CreatingView
	ResultView
)

// Engine is the part of [tasks.SyncEngine] the TUI drives.
type Engine interface {
	Match(ctx context.Context, sourceIDOrName string, progress chan<- tasks.ProgressUpdate) (*tasks.TransferRunResult, error)
	Create(ctx context.Context, run *tasks.TransferRunResult, destName string, progress chan<- tasks.ProgressUpdate) (*models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx            context.Context
	cancel         context.CancelFunc
	view           ViewState
	source         services.Service
	engine         Engine
	destName       string
	width          int
	height         int
	playlistList   list.Model
	reviewList     list.Model
	suggestionList list.Model
	reviewing      int
	run            *tasks.TransferRunResult
	created        *models.Playlist
	progressChan   chan tasks.ProgressUpdate
	doneChan       chan Msg
	progress       tasks.ProgressUpdate
	notice         string
	err            error
	help           help.Model
	keys           keyMap
}

func newModel(ctx context.Context, engine Engine, destName string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:            ctx,
		cancel:         cancel,
		engine:         engine,
		destName:       destName,
		playlistList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		reviewList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
		suggestionList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:           help.New(),
		keys:           newKeyMap(),
	}
	m.reviewList.SetFilteringEnabled(false)
	m.suggestionList.SetFilteringEnabled(false)
	return m
}

// NewModel creates a TUI that starts by listing the playlists of source.
func NewModel(ctx context.Context, source services.Service, engine Engine, destName string) *Model {
	m := newModel(ctx, engine, destName)
	m.source = source
	m.view = PlaylistListView
	m.playlistList.Title = fmt.Sprintf("%s Playlists", source.Name())
	return m
}

// NewReviewModel creates a TUI that opens directly on the results of an existing match run.
func NewReviewModel(ctx context.Context, engine Engine, run *tasks.TransferRunResult, destName string) *Model {
	m := newModel(ctx, engine, destName)
	m.startReview(run)
	return m
}

// Run returns the match run being reviewed, nil before matching finished.
func (m *Model) Run() *tasks.TransferRunResult { return m.run }

// Created returns the destination playlist once it has been created.
func (m *Model) Created() *models.Playlist { return m.created }

// Err returns the last error shown to the user.
func (m *Model) Err() error { return m.err }

// Init fetches the source playlists when starting from the playlist list.
func (m *Model) Init() tea.Cmd {
	if m.view == PlaylistListView {
		return m.fetchPlaylists()
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := max(0, msg.Width-4), max(0, msg.Height-8)
		m.playlistList.SetSize(w, h)
		m.reviewList.SetSize(w, h)
		m.suggestionList.SetSize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case MatchingView, CreatingView:
			if key.Matches(msg, m.keys.quit) {
				m.cancel()
				return m, tea.Quit
			}
			return m, nil
		case ReviewView:
			return m.handleReviewKeys(msg)
		case SuggestionView:
			return m.handleSuggestionKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsPayload)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		return m, m.playlistList.SetItems(items)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgMatchComplete:
		data := msg.data.(matchPayload)
		m.stopJob()
		if data.run == nil || data.run.SessionResult == nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.notice = ""
		if data.err != nil {
			m.notice = data.err.Error()
		}
		return m, m.startReview(data.run)

	case MsgCreateComplete:
		data := msg.data.(createPayload)
		m.stopJob()
		m.created = data.playlist
		m.err = data.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case MatchingView:
		return m.renderProgress("Matching Tracks")
	case ReviewView:
		return m.renderReview()
	case SuggestionView:
		return m.renderSuggestions()
	case ConfirmView:
		return m.renderConfirm()
	case CreatingView:
		return m.renderProgress("Creating Playlist")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.view = MatchingView
			return m, m.startMatch(pl.playlist.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.reviewList.SelectedItem().(resultItem); ok {
			m.reviewing = item.index
			m.view = SuggestionView
			m.suggestionList.Title = fmt.Sprintf("Replace match for '%s'", item.result.Source)
			return m, m.suggestionList.SetItems(m.candidates(item.result))
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		if item, ok := m.reviewList.SelectedItem().(resultItem); ok && item.result.IsMatched() {
			return m, m.replace(item.index, item.result.Clear())
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.selectNextUncertain(m.reviewList.Index() + 1)
		return m, nil
	case key.Matches(msg, m.keys.create):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.reviewList, cmd = m.reviewList.Update(msg)
	return m, cmd
}

func (m *Model) handleSuggestionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ReviewView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.suggestionList.SelectedItem().(suggestionItem)
		if !ok {
			return m, nil
		}
		m.view = ReviewView
		return m, m.replace(m.reviewing, m.run.Results[m.reviewing].Override(item.track))
	}

	var cmd tea.Cmd
	m.suggestionList, cmd = m.suggestionList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ReviewView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = CreatingView
		return m, m.startCreate()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.err = nil
		if m.run != nil && m.created == nil {
			m.view = ReviewView
			return m, nil
		}
		if m.source != nil {
			m.view = PlaylistListView
			m.run, m.created, m.notice = nil, nil, ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ReviewView:
		m.reviewList, cmd = m.reviewList.Update(msg)
	case SuggestionView:
		m.suggestionList, cmd = m.suggestionList.Update(msg)
	}
	return m, cmd
}

// startReview loads run into the review list and selects the first uncertain result.
func (m *Model) startReview(run *tasks.TransferRunResult) tea.Cmd {
	m.run = run
	m.view = ReviewView
	m.reviewList.Title = fmt.Sprintf("Review '%s' → %s", run.SourcePlaylist.Playlist.Name, run.DestPlatform.DisplayName())

	items := make([]list.Item, len(run.Results))
	for i, res := range run.Results {
		items[i] = resultItem{index: i, result: res}
	}
	cmd := m.reviewList.SetItems(items)
	m.selectNextUncertain(0)
	return cmd
}

func (m *Model) selectNextUncertain(from int) {
	if m.run == nil {
		return
	}
	n := len(m.run.Results)
	for off := range n {
		i := (from + off) % n
		if m.run.Results[i].Uncertain() {
			m.reviewList.Select(i)
			return
		}
	}
}

// candidates lists replacement options for res: its suggestions first, then the remaining
// primary candidates, never the current match.
func (m *Model) candidates(res models.MatchResult) []list.Item {
	tracks := lo.UniqBy(append(append([]models.Track{}, res.Suggestions...), res.AllCandidates...), models.Track.Key)
	if res.Matched != nil {
		tracks = lo.Reject(tracks, func(t models.Track, _ int) bool { return t.Key() == res.Matched.Key() })
	}
	return lo.Map(tracks, func(t models.Track, _ int) list.Item { return suggestionItem{track: t} })
}

func (m *Model) replace(i int, res models.MatchResult) tea.Cmd {
	if err := m.run.Replace(i, res); err != nil {
		m.err = err
		return nil
	}
	return m.reviewList.SetItem(i, resultItem{index: i, result: res})
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.GetPlaylists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) startMatch(playlistID string) tea.Cmd {
	progress, done := m.startJob()
	go func() {
		run, err := m.engine.Match(m.ctx, playlistID, progress)
		done <- matchCompleteMsg(run, err)
	}()
	return m.waitForProgress()
}

func (m *Model) startCreate() tea.Cmd {
	progress, done := m.startJob()
	run, name := m.run, m.destName
	go func() {
		created, err := m.engine.Create(m.ctx, run, name, progress)
		done <- createCompleteMsg(created, err)
	}()
	return m.waitForProgress()
}

func (m *Model) startJob() (chan tasks.ProgressUpdate, chan Msg) {
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan Msg, 1)
	return m.progressChan, m.doneChan
}

func (m *Model) stopJob() {
	m.progressChan = nil
	m.doneChan = nil
}

// waitForProgress relays the next progress update, or the completion message of the running job.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderProgress(heading string) string {
	title := styles.title.Render(heading)
	var status string
	switch m.progress.Phase {
	case tasks.MatchTracks:
		status = fmt.Sprintf("%d/%d tracks, %d matched", m.progress.Step, m.progress.Total, m.progress.Matched)
	default:
		status = "Working..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, status, m.progress.Message, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderReview() string {
	summary := fmt.Sprintf("%d/%d matched (%.1f%%) • %d to review",
		m.run.Matched, m.run.Total, m.run.MatchPercentage(), len(m.run.Uncertain()))
	if m.notice != "" {
		summary = fmt.Sprintf("%s\n%s", summary, styles.warn.Render(m.notice))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.clear, m.keys.create, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.reviewList.View(), summary, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSuggestions() string {
	res := m.run.Results[m.reviewing]

	current := styles.help.Render("no match")
	if res.Matched != nil {
		current = styles.confidence(res.Confidence).Render(res.Matched.String())
	}

	body := m.suggestionList.View()
	if len(m.suggestionList.Items()) == 0 {
		body = styles.warn.Render("No suggestions for this track.")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	return fmt.Sprintf("Current: %s\n\n%s\n\n%s", current, body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	name := m.destName
	if name == "" {
		name = m.run.SourcePlaylist.Playlist.Name
	}
	title := styles.title.Render(fmt.Sprintf("Create '%s' on %s?", name, m.run.DestPlatform.DisplayName()))
	info := fmt.Sprintf("\nTracks: %d of %d\nStill uncertain: %d\n", m.run.Matched, m.run.Total, len(m.run.Uncertain()))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Transfer failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.created == nil {
		return styles.err.Render("No playlist created") + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Playlist Created!")
	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nDestination: %s (%s)\nMatched: %d/%d (%.1f%%)",
		m.run.SourcePlaylist.Playlist.Name,
		m.run.Total,
		m.created.Name,
		m.created.ID,
		m.run.Matched,
		m.run.Total,
		m.run.MatchPercentage(),
	)

	var missing strings.Builder
	unmatched := lo.Filter(m.run.Results, func(r models.MatchResult, _ int) bool { return !r.IsMatched() })
	if len(unmatched) > 0 {
		missing.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("Not transferred (%d):", len(unmatched))))
		for _, r := range unmatched {
			fmt.Fprintf(&missing, "\n  • %s", r.Source)
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missing.String(), helpView)
}
