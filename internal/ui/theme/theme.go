package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillscope/internal/mastery"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Steady = lipgloss.NewStyle().
		Foreground(TextDim)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	Badge = lipgloss.NewStyle().
		Background(Accent).
		Foreground(Text).
		Bold(true).
		Padding(0, 1)
)

// ForTrend returns the style a skill trend is drawn in.
func ForTrend(t mastery.Trend) lipgloss.Style {
	switch t {
	case mastery.TrendImproving:
		return Correct
	case mastery.TrendDeclining:
		return Incorrect
	default:
		return Steady
	}
}

// TrendGlyph returns a one-character arrow for t.
func TrendGlyph(t mastery.Trend) string {
	switch t {
	case mastery.TrendImproving:
		return "▲"
	case mastery.TrendDeclining:
		return "▼"
	default:
		return "■"
	}
}
