package chatui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type styles struct {
	title    lipgloss.Style
	question lipgloss.Style
	answer   lipgloss.Style
	err      lipgloss.Style
	status   lipgloss.Style
	spinner  lipgloss.Style
	send     lipgloss.Style
	disabled lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1F2937")).
			Background(lipgloss.Color("#DBEAFE")).
			Padding(0, 1),
		question: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3B82F6")).
			Padding(0, 1),
		answer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1F2937")).
			Background(lipgloss.Color("#E5E7EB")).
			Padding(0, 1),
		err: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Background(lipgloss.Color("#FEE2E2")).
			Padding(0, 1),
		status:   lipgloss.NewStyle().Faint(true),
		spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")),
		send:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9")),
		disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")),
	}
}

// DetectStyle picks the dark or light glamour style from the terminal background.
func DetectStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
