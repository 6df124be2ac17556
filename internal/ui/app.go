package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/dmx_media_trigger/internal/status"
	"github.com/jscyril/dmx_media_trigger/internal/ui/views"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewPlayer ViewType = iota
	ViewPlaylist
)

const refreshInterval = 250 * time.Millisecond

// Source provides the state shown by the dashboard
type Source interface {
	Snapshot() status.Snapshot
}

// ProgressFunc reports the position in and length of the playing media
type ProgressFunc func() (position, length time.Duration)

// Model is the main bubbletea model. The dashboard is read-only: the
// lighting desk is the only controller.
type Model struct {
	// Dimensions
	width  int
	height int

	// Current view
	activeView ViewType

	// Views
	playerView   views.PlayerView
	playlistView views.PlaylistView

	source   Source
	progress ProgressFunc

	// Styles
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
}

// TickMsg is sent periodically to refresh the dashboard
type TickMsg time.Time

// NewModel creates a new dashboard model
func NewModel(source Source, progress ProgressFunc) Model {
	if progress == nil {
		progress = func() (time.Duration, time.Duration) { return 0, 0 }
	}
	m := Model{
		width:      80,
		height:     24,
		activeView: ViewPlayer,
		source:     source,
		progress:   progress,
		tabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("240")),
		activeTabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("236")),
	}

	m.playerView = views.NewPlayerView(m.width, m.height-4)
	m.playlistView = views.NewPlaylistView(m.width, m.height-4)
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) refresh() {
	snap := m.source.Snapshot()
	pos, length := m.progress()
	m.playerView.SetSnapshot(snap, pos, length)
	m.playlistView.SetEntries(snap.Media)
	m.playlistView.SetPlaying(snap.Playing)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playerView.SetWidth(m.width)
		m.playlistView.SetSize(m.width, m.height-4)

	case TickMsg:
		m.refresh()
		return m, tickCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.activeView = ViewPlayer
		case "2":
			m.activeView = ViewPlaylist
		case "tab":
			m.activeView = (m.activeView + 1) % 2
		default:
			if m.activeView == ViewPlaylist {
				m.playlistView, _ = m.playlistView.Update(msg)
			}
		}
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var sb string
	sb += m.renderTabs()
	sb += "\n"

	switch m.activeView {
	case ViewPlayer:
		sb += m.playerView.View()
	case ViewPlaylist:
		sb += m.playlistView.View()
	}
	return sb
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Trigger", "[2] Media"}

	var rendered []string
	for i, tab := range tabs {
		if ViewType(i) == m.activeView {
			rendered = append(rendered, m.activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, m.tabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the bubbletea program and blocks until the user quits or ctx
// is cancelled
func Run(ctx context.Context, source Source, progress ProgressFunc) error {
	p := tea.NewProgram(NewModel(source, progress), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
