package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used across commands. They are built
// against the actual output writer so colors degrade to plain text when
// the output is not a terminal.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style

	// Status glyphs, pre-rendered via SetString.
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

func newStyles(w io.Writer) *Styles {
	re := lipgloss.NewRenderer(w)
	return &Styles{
		Header1:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Bold:      re.NewStyle().Bold(true),
		Muted:     re.NewStyle().Foreground(lipgloss.Color("8")),
		Highlight: re.NewStyle().Foreground(lipgloss.Color("13")),
		Success:   re.NewStyle().Foreground(lipgloss.Color("2")),
		Warning:   re.NewStyle().Foreground(lipgloss.Color("3")),
		Error:     re.NewStyle().Foreground(lipgloss.Color("1")),

		StatusSuccess: re.NewStyle().Foreground(lipgloss.Color("2")).SetString("✓"),
		StatusFailed:  re.NewStyle().Foreground(lipgloss.Color("1")).SetString("✗"),
	}
}
