package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Meter renders a fraction as a horizontal bar followed by a label
type Meter struct {
	Width       int
	Fraction    float64
	Label       string
	BarChar     string
	EmptyChar   string
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewMeter creates a meter of the given total width
func NewMeter(width int) Meter {
	return Meter{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetProgress shows position within length as MM:SS/MM:SS
func (m *Meter) SetProgress(position, length time.Duration) {
	m.Fraction = 0
	if length > 0 {
		m.Fraction = float64(position) / float64(length)
	}
	m.Label = formatDuration(position) + "/" + formatDuration(length)
}

// SetRate shows rate on a scale from 0 to limit
func (m *Meter) SetRate(rate, limit float64) {
	m.Fraction = 0
	if limit > 0 {
		m.Fraction = rate / limit
	}
	m.Label = fmt.Sprintf("x%.2f", rate)
}

// View renders the meter
func (m Meter) View() string {
	f := m.Fraction
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}

	barWidth := m.Width - len(m.Label) - 1
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(float64(barWidth) * f)

	var sb strings.Builder
	sb.WriteString(m.FilledStyle.Render(strings.Repeat(m.BarChar, filled)))
	sb.WriteString(m.EmptyStyle.Render(strings.Repeat(m.EmptyChar, barWidth-filled)))
	if m.Label != "" {
		sb.WriteString(" ")
		sb.WriteString(m.Label)
	}
	return sb.String()
}

// formatDuration formats a duration as MM:SS
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d", m, s)
}
