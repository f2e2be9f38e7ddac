package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette colors (Dracula).
const (
	colorText    = "#f8f8f2"
	colorMuted   = "#6272a4"
	colorAccent  = "#bd93f9"
	colorSuccess = "#50fa7b"
	colorWarning = "#f1fa8c"
	colorDanger  = "#ff5555"
	colorSelect  = "#44475a"
)

// Styles are the Lipgloss styles the frame renders with.
type Styles struct {
	Title    lipgloss.Style
	Page     lipgloss.Style
	Label    lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Danger   lipgloss.Style
	Selected lipgloss.Style
	Footer   lipgloss.Style
}

// DefaultStyles returns the frame styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent)),
		Page: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			Width(10),
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorText)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)),
		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDanger)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(colorSelect)).
			Foreground(lipgloss.Color(colorText)),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			MarginTop(1),
	}
}

// statusStyle picks a style for a session or job status line.
func (s Styles) statusStyle(status string) lipgloss.Style {
	switch {
	case status == "connected" || status == "done":
		return s.Success
	case status == "connecting" || status == " ":
		return s.Warning
	case strings.HasPrefix(status, "error:"):
		return s.Danger
	default:
		return s.Text
	}
}
