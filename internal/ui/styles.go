package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // cyan: headings
	colorAccent     = lipgloss.Color("#FFD700") // gold: warnings, limits
	colorSuccess    = lipgloss.Color("#00E676") // green: satisfied, passed
	colorDanger     = lipgloss.Color("#FF5252") // red: infeasible, failed
	colorMuted      = lipgloss.Color("#636363") // gray: de-emphasized
	colorMutedLight = lipgloss.Color("#8C8C8C") // light gray: normal text
	colorPast       = lipgloss.Color("#5B8DEF") // blue: past plan rows
)

// Status icons.
const (
	iconDone   = "✓"
	iconFailed = "✗"
	iconLimit  = "◎"
	iconWatch  = "↻"
	iconItem   = "•"
)

// styles are bound to the renderer of one output writer so color
// detection follows that writer, not stdout.
type styles struct {
	banner  lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	danger  lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	past    lipgloss.Style
	cell    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner: r.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2),
		heading: r.NewStyle().Foreground(colorPrimary).Bold(true),
		label:   r.NewStyle().Foreground(colorMutedLight),
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		danger:  r.NewStyle().Foreground(colorDanger).Bold(true),
		warn:    r.NewStyle().Foreground(colorAccent).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		past:    r.NewStyle().Foreground(colorPast),
		cell:    r.NewStyle().PaddingRight(2),
	}
}
