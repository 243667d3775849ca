package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
)

var (
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(colorInfo)
)

func warnText(s string) string    { return warnStyle.Render(s) }
func successText(s string) string { return successStyle.Render(s) }

// keyValues aligns label/value pairs in two columns.
func keyValues(pairs [][2]string) []string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = keyStyle.Render(fmt.Sprintf("%-*s", width, p[0])) + "  " + p[1]
	}
	return lines
}

func printSetup(w io.Writer, target initTarget, agent agents.Agent, script agents.ScriptType) {
	mode := "new directory"
	if target.merge {
		mode = "merge into current directory"
	}
	lines := keyValues([][2]string{
		{"Project", target.name},
		{"Path", target.root},
		{"AI assistant", fmt.Sprintf("%s (%s)", agent.Name, agent.Key)},
		{"Script type", fmt.Sprintf("%s (%s)", script.Key, script.Description)},
		{"Mode", mode},
	})
	fmt.Fprintln(w, panel(branding.DisplayName()+" Project Setup", lines, colorInfo))
}

func securityNotice(agent agents.Agent) string {
	return panel("Agent Folder Security", []string{
		"Some agents may store credentials, auth tokens, or other identifying and",
		"private artifacts in the agent folder within your project.",
		fmt.Sprintf("Consider adding %s (or parts of it) to .gitignore to prevent", agent.Folder),
		"accidental credential leakage.",
	}, colorWarning)
}

func nextSteps(target initTarget, agent agents.Agent, goos string) string {
	var lines []string
	n := 1
	if target.merge {
		lines = append(lines, fmt.Sprintf("%d. You're already in the project directory!", n))
	} else {
		lines = append(lines, fmt.Sprintf("%d. Go to the project folder: cd %s", n, target.name))
	}
	n++

	if agent.Key == "codex" {
		codexHome := filepath.Join(target.root, ".codex")
		cmd := fmt.Sprintf("export CODEX_HOME=%q", codexHome)
		if goos == "windows" {
			cmd = fmt.Sprintf("setx CODEX_HOME %q", codexHome)
		}
		lines = append(lines, fmt.Sprintf("%d. Set CODEX_HOME before running Codex: %s", n, cmd))
		n++
	}

	lines = append(lines, fmt.Sprintf("%d. Start using slash commands with your AI agent:", n))
	for i, c := range [][2]string{
		{"constitution", "Establish project principles"},
		{"specify", "Create baseline specification"},
		{"plan", "Create implementation plan"},
		{"tasks", "Generate actionable tasks"},
		{"implement", "Execute implementation"},
	} {
		lines = append(lines, fmt.Sprintf("   %d.%d /speckit.%s - %s", n, i+1, c[0], c[1]))
	}
	return panel("Next Steps", lines, colorInfo)
}

func enhancementCommands() string {
	lines := []string{
		"Optional commands that you can use for your specs (improve quality & confidence)",
		"",
		"/speckit.clarify (optional) - Ask structured questions to de-risk ambiguous areas",
		"  before planning (run before /speckit.plan if used)",
		"/speckit.analyze (optional) - Cross-artifact consistency & alignment report",
		"  (after /speckit.tasks, before /speckit.implement)",
		"/speckit.checklist (optional) - Generate quality checklists to validate",
		"  requirements completeness, clarity, and consistency (after /speckit.plan)",
	}
	return panel("Enhancement Commands", lines, colorMuted)
}
