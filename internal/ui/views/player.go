package views

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/dmx_media_trigger/internal/status"
	"github.com/jscyril/dmx_media_trigger/internal/ui/components"
)

// MaxRate is the top of the rate meter scale
const MaxRate = 4.0

// PlayerView displays the controller and engine state
type PlayerView struct {
	Width    int
	Height   int
	Snapshot status.Snapshot
	Progress components.Meter
	Rate     components.Meter

	// Styles
	TitleStyle    lipgloss.Style
	KeyStyle      lipgloss.Style
	DimStyle      lipgloss.Style
	StatusStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	return PlayerView{
		Width:    width,
		Height:   height,
		Progress: components.NewMeter(width - 30),
		Rate:     components.NewMeter(width - 30),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		KeyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		DimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetSnapshot updates the view from a status snapshot and the engine's
// position in the current media
func (v *PlayerView) SetSnapshot(snap status.Snapshot, position, length time.Duration) {
	v.Snapshot = snap
	v.Progress.SetProgress(position, length)
	v.Rate.SetRate(snap.State.EngineRate, MaxRate)
}

// SetWidth resizes the view and its meters
func (v *PlayerView) SetWidth(width int) {
	v.Width = width
	v.Progress.Width = width - 30
	v.Rate.Width = width - 30
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder
	s := v.Snapshot.State

	statusIcon := "⏹"
	if s.Playing {
		statusIcon = "▶"
	} else if s.Loaded {
		statusIcon = "⏸"
	}
	sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
	if p := v.Snapshot.Playing; p != nil {
		title := p.Title
		if title == "" {
			title = filepath.Base(p.Path)
		}
		sb.WriteString(v.TitleStyle.Render(title))
		sb.WriteString(v.DimStyle.Render("  " + p.Key.String() + " " + string(p.Mode)))
	} else {
		sb.WriteString(v.TitleStyle.Render("Nothing playing"))
	}
	sb.WriteString("\n\n")

	current := "-"
	if s.Loaded {
		current = s.Current.String()
	}
	sb.WriteString(fmt.Sprintf("Program  %s  requested %s",
		v.KeyStyle.Render(current), v.KeyStyle.Render(s.Requested.String())))
	if s.Gated {
		gate := "closed"
		if s.Released {
			gate = "open"
		}
		sb.WriteString(v.DimStyle.Render(fmt.Sprintf("  gate %s (%d)", gate, s.RequestedRelease)))
	}
	sb.WriteString("\n")

	sb.WriteString("Position ")
	sb.WriteString(v.Progress.View())
	sb.WriteString("\n")
	sb.WriteString("Rate     ")
	sb.WriteString(v.Rate.View())
	sb.WriteString(v.DimStyle.Render(fmt.Sprintf("  signal %d", s.RequestedRate)))
	sb.WriteString("\n")

	var flags []string
	if s.RewindRequested {
		flags = append(flags, "rewind pending")
	}
	if s.RateResetPending {
		flags = append(flags, "rate reset pending")
	}
	if len(flags) > 0 {
		sb.WriteString(v.StatusStyle.Render(strings.Join(flags, " | ")))
		sb.WriteString("\n")
	}

	if last := v.Snapshot.LastResolve; last != nil {
		line := fmt.Sprintf("Last     %s %s at %s", last.Action, last.Key.String(), last.Time.Format("15:04:05"))
		if last.OK {
			sb.WriteString(v.DimStyle.Render(line))
		} else {
			sb.WriteString(v.ErrorStyle.Render(line + ": " + last.Error))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(v.renderChannels())

	sb.WriteString("\n")
	sb.WriteString(v.ControlsStyle.Render("[Tab] Switch view  [↑↓] Scroll  [p] Find playing  [q] Quit"))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

func (v PlayerView) renderChannels() string {
	cells := make([]string, 0, len(v.Snapshot.Channels))
	for _, c := range v.Snapshot.Channels {
		value := "---"
		if c.Value >= 0 {
			value = fmt.Sprintf("%3d", c.Value)
		}
		cell := lipgloss.JoinVertical(lipgloss.Center,
			v.DimStyle.Render(fmt.Sprintf("%d:%s", c.Channel, c.Command)),
			v.KeyStyle.Render(value),
		)
		cells = append(cells, lipgloss.NewStyle().Width(14).Render(cell))
	}

	perRow := (v.Width - 8) / 14
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for len(cells) > 0 {
		n := perRow
		if n > len(cells) {
			n = len(cells)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells[:n]...))
		cells = cells[n:]
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
