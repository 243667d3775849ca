package tracker

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Faint(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	branchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Symbol returns the styled marker for a status.
func Symbol(s Status) string {
	switch s {
	case StatusDone:
		return doneStyle.Render("●")
	case StatusRunning:
		return runningStyle.Render("○")
	case StatusError:
		return errorStyle.Render("●")
	case StatusSkipped:
		return skippedStyle.Render("○")
	default:
		return pendingStyle.Render("○")
	}
}

// Render draws the tracker as a tree under its title.
func (t *Tracker) Render() string {
	steps := t.Steps()

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.title))
	for i, s := range steps {
		b.WriteString("\n")
		branch := "├── "
		if i == len(steps)-1 {
			branch = "└── "
		}
		b.WriteString(branchStyle.Render(branch))
		b.WriteString(Symbol(s.Status))
		b.WriteString(" ")
		b.WriteString(renderLabel(s))
	}
	return b.String()
}

func renderLabel(s Step) string {
	text := s.Label
	if s.Status == StatusPending {
		// Steps that have not started are dimmed as a whole.
		if s.Detail != "" {
			text += " (" + s.Detail + ")"
		}
		return dimStyle.Render(text)
	}
	if s.Detail != "" {
		text += " " + dimStyle.Render("("+s.Detail+")")
	}
	return text
}
