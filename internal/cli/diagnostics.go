package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/specify-labs/specify/internal/materialize"
	"github.com/specify-labs/specify/internal/release"
)

var (
	colorError   = lipgloss.Color("1")
	colorWarning = lipgloss.Color("3")
	colorInfo    = lipgloss.Color("6")
	colorMuted   = lipgloss.Color("8")

	panelTitleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// panel renders a bordered block with a bold title line.
func panel(title string, lines []string, color lipgloss.Color) string {
	body := panelTitleStyle.Foreground(color).Render(title)
	if len(lines) > 0 {
		body += "\n\n" + strings.Join(lines, "\n")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(body)
}

// diagnostic is the user-facing rendering of a failure.
type diagnostic struct {
	title string
	lines []string
	color lipgloss.Color
}

// missingToolError reports a CLI-based agent whose tool is not installed.
type missingToolError struct {
	agent      string
	tool       string
	installURL string
}

func (e *missingToolError) Error() string {
	return fmt.Sprintf("%s is required for %s but was not found", e.tool, e.agent)
}

func diagnose(err error) diagnostic {
	var (
		rateLimited *release.RateLimitError
		notFound    *release.AssetNotFoundError
		network     *release.NetworkError
		status      *release.HTTPStatusError
		archive     *materialize.ArchiveError
		missing     *missingToolError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return diagnostic{
			title: "Operation cancelled",
			lines: []string{"Interrupted before the project was finished."},
			color: colorWarning,
		}
	case errors.As(err, &rateLimited):
		return diagnostic{
			title: fmt.Sprintf("GitHub API request failed (HTTP %d)", rateLimited.StatusCode),
			lines: strings.Split(strings.TrimRight(rateLimited.Message, "\n"), "\n"),
			color: colorError,
		}
	case errors.As(err, &notFound):
		lines := []string{
			fmt.Sprintf("No release asset contains %q.", notFound.Pattern),
			"",
			"Available assets:",
		}
		if len(notFound.Available) == 0 {
			lines = append(lines, "  (none)")
		}
		for _, name := range notFound.Available {
			lines = append(lines, "  - "+name)
		}
		lines = append(lines, "", "Check the --ai and --script values.")
		return diagnostic{title: "Template asset not found", lines: lines, color: colorError}
	case errors.As(err, &network):
		return diagnostic{
			title: "Network error",
			lines: []string{
				network.Error(),
				"",
				"Check your connection and proxy settings.",
				"Use --skip-tls only behind a proxy you trust.",
			},
			color: colorError,
		}
	case errors.As(err, &status):
		return diagnostic{title: "GitHub API request failed", lines: []string{status.Error()}, color: colorError}
	case errors.As(err, &archive):
		return diagnostic{
			title: "Template archive is invalid",
			lines: []string{archive.Error(), "", "Run the command again to download a fresh copy."},
			color: colorError,
		}
	case errors.As(err, &missing):
		return diagnostic{
			title: fmt.Sprintf("%s not found", missing.tool),
			lines: []string{
				missing.Error() + ".",
				"",
				"Install it from: " + missing.installURL,
				"Or re-run with --ignore-agent-tools to skip this check.",
			},
			color: colorError,
		}
	default:
		return diagnostic{title: "Error", lines: []string{err.Error()}, color: colorError}
	}
}

// renderError writes the diagnostic for err. With debug set the full
// wrapped chain follows.
func renderError(w io.Writer, err error, debug bool) {
	d := diagnose(err)
	fmt.Fprintln(w, panel(d.title, d.lines, d.color))
	if !debug {
		return
	}
	fmt.Fprintln(w, mutedStyle.Render("error chain:"))
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  %T: %v", e, e)))
	}
}
