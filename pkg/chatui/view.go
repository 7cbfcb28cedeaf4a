package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.styles.title.Render("AI Chatbox")))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.inputLine())
	b.WriteString("\n")

	if m.state.LastError != "" {
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.styles.err.Render(m.state.LastError)))
	}
	b.WriteString("\n")
	b.WriteString(m.footer())

	return b.String()
}

func (m Model) loading() bool {
	return m.submitting || m.state.IsLoading
}

func (m Model) inputLine() string {
	indicator := m.styles.send.Render("↑")
	if m.loading() {
		indicator = m.styles.disabled.Render(m.spinner.View())
	}
	return m.input.View() + " " + indicator
}

func (m Model) footer() string {
	parts := []string{fmt.Sprintf("turns: %d", len(m.state.History))}
	if m.status != "" {
		parts = append([]string{m.status}, parts...)
	}
	if m.loading() {
		parts = append(parts, "waiting for answer")
	}
	parts = append(parts, "enter send", "esc quit")

	return m.styles.status.Render(ansi.Truncate(strings.Join(parts, " · "), m.width, "…"))
}

// bubbleWidth is the widest a question or answer bubble may grow.
func (m Model) bubbleWidth() int {
	return max(m.viewport.Width*3/4, 20)
}

// renderHistory draws every turn: the question right-aligned, the answer
// left-aligned below it.
func (m Model) renderHistory() string {
	width := m.viewport.Width
	var b strings.Builder

	for i, turn := range m.state.History {
		if i > 0 {
			b.WriteString("\n")
		}

		q := m.styles.question.Width(min(lipgloss.Width(turn.Question)+2, m.bubbleWidth())).Render(turn.Question)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, q))
		b.WriteString("\n")
		b.WriteString(m.renderAnswer(turn.ID, turn.Answer))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderAnswer(id, answer string) string {
	if cached, ok := m.answers[id]; ok {
		return cached
	}

	out := m.styles.answer.Width(min(lipgloss.Width(answer)+2, m.bubbleWidth())).Render(answer)
	if m.renderer != nil {
		if md, err := m.renderer.Render(answer); err == nil {
			out = strings.Trim(md, "\n")
		}
	}

	m.answers[id] = out
	return out
}
