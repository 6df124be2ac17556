package components

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/dmx_media_trigger/api"
)

// MediaList is a scrollable view of the media list. The playing entry is
// marked; the cursor only scrolls, nothing is selected for playback.
type MediaList struct {
	Items        []api.PlaylistEntry
	Cursor       int
	Playing      int
	Height       int
	Width        int
	Offset       int
	Title        string
	PlayingStyle lipgloss.Style
	CursorStyle  lipgloss.Style
	NormalStyle  lipgloss.Style
	TitleStyle   lipgloss.Style
}

// NewMediaList creates an empty media list
func NewMediaList(height, width int) MediaList {
	return MediaList{
		Playing: -1,
		Height:  height,
		Width:   width,
		PlayingStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		CursorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetItems replaces the list content, keeping the cursor in range
func (l *MediaList) SetItems(items []api.PlaylistEntry) {
	l.Items = items
	if l.Cursor >= len(items) {
		l.Cursor = 0
		l.Offset = 0
	}
}

// SetPlaying marks the entry at position as playing, -1 for none
func (l *MediaList) SetPlaying(position int) {
	l.Playing = position
}

// Update handles scrolling keys
func (l MediaList) Update(msg tea.Msg) (MediaList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if l.Cursor > 0 {
				l.Cursor--
			}
		case "down", "j":
			if l.Cursor < len(l.Items)-1 {
				l.Cursor++
			}
		case "home":
			l.Cursor = 0
		case "end":
			if len(l.Items) > 0 {
				l.Cursor = len(l.Items) - 1
			}
		case "p":
			if l.Playing >= 0 && l.Playing < len(l.Items) {
				l.Cursor = l.Playing
			}
		}
		l.ensureVisible()
	}
	return l, nil
}

func (l *MediaList) visibleHeight() int {
	h := l.Height - 2 // title and footer
	if h < 1 {
		h = 1
	}
	return h
}

func (l *MediaList) ensureVisible() {
	h := l.visibleHeight()
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	} else if l.Cursor >= l.Offset+h {
		l.Offset = l.Cursor - h + 1
	}
}

// View renders the list
func (l MediaList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}
	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("No media"))
		return sb.String()
	}

	h := l.visibleHeight()
	end := l.Offset + h
	if end > len(l.Items) {
		end = len(l.Items)
	}

	for i := l.Offset; i < end; i++ {
		line := EntryLine(l.Items[i])
		if l.Width > 8 && len(line) > l.Width-2 {
			line = line[:l.Width-5] + "..."
		}

		switch {
		case l.Items[i].Position == l.Playing:
			sb.WriteString(l.PlayingStyle.Render("▶ " + line))
		case i == l.Cursor:
			sb.WriteString(l.CursorStyle.Render("› " + line))
		default:
			sb.WriteString(l.NormalStyle.Render("  " + line))
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > h {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Cursor+1, len(l.Items))))
	}
	return sb.String()
}

// EntryLine formats one entry as "key  mode  title"
func EntryLine(e api.PlaylistEntry) string {
	title := e.Title
	if title == "" {
		title = filepath.Base(e.Path)
	}
	return fmt.Sprintf("%-7s %-7s %s", e.Key.String(), string(e.Mode), truncate(title, 40))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
