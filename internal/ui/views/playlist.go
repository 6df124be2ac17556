package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/ui/components"
)

// PlaylistView displays the media list with the playing entry marked
type PlaylistView struct {
	Width       int
	Height      int
	List        components.MediaList
	BorderStyle lipgloss.Style
	HelpStyle   lipgloss.Style
}

// NewPlaylistView creates a new playlist view
func NewPlaylistView(width, height int) PlaylistView {
	list := components.NewMediaList(height-6, width-6)
	list.Title = "Media list"

	return PlaylistView{
		Width:  width,
		Height: height,
		List:   list,
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		HelpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetEntries sets the listed entries
func (v *PlaylistView) SetEntries(entries []api.PlaylistEntry) {
	v.List.SetItems(entries)
}

// SetPlaying marks the playing entry, nil for none
func (v *PlaylistView) SetPlaying(entry *api.PlaylistEntry) {
	if entry == nil {
		v.List.SetPlaying(-1)
		return
	}
	v.List.SetPlaying(entry.Position)
}

// SetSize resizes the view
func (v *PlaylistView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.List.Width = width - 6
	v.List.Height = height - 6
}

// Update handles messages
func (v PlaylistView) Update(msg tea.Msg) (PlaylistView, tea.Cmd) {
	var cmd tea.Cmd
	v.List, cmd = v.List.Update(msg)
	return v, cmd
}

// View renders the playlist view
func (v PlaylistView) View() string {
	var sb strings.Builder
	sb.WriteString(v.List.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.HelpStyle.Render("key     mode    title"))
	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
