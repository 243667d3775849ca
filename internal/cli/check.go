package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/toolcheck"
	"github.com/specify-labs/specify/internal/tracker"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that all required tools are installed",
	Long: `Check for git, the command-line AI assistants and VS Code.

IDE-based assistants have no CLI to look for and are listed as skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := agents.Load()
		if err != nil {
			return err
		}
		runCheck(cmd.OutOrStdout(), toolcheck.New(), table)
		return nil
	},
}

// runCheck renders the tool tracker and returns it for inspection.
func runCheck(w io.Writer, tools *toolcheck.Checker, table *agents.Table) *tracker.Tracker {
	t := tracker.New("Check Available Tools")

	mark := func(key, label string) bool {
		t.Add(key, label)
		if _, ok := tools.Find(key); ok {
			t.Complete(key, "available")
			return true
		}
		t.Error(key, "not found")
		return false
	}

	gitOK := mark("git", "Git version control")
	agentOK := false
	for _, a := range table.Agents {
		if !a.RequiresCLI {
			t.Add(a.Key, a.Name)
			t.Skip(a.Key, "IDE-based, no CLI check")
			continue
		}
		if mark(a.Key, a.Name) {
			agentOK = true
		}
	}
	mark("code", "Visual Studio Code")
	mark("code-insiders", "Visual Studio Code Insiders")

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
	fmt.Fprintln(w, successText(branding.DisplayName()+" CLI is ready to use!"))
	if !gitOK {
		fmt.Fprintln(w, mutedStyle.Render("Tip: install git for repository management"))
	}
	if !agentOK {
		fmt.Fprintln(w, mutedStyle.Render("Tip: install an AI assistant for the best experience"))
	}
	return t
}
