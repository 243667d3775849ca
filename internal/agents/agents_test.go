package agents

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad_EmbeddedTable(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Agents) != 15 {
		t.Errorf("agent count = %d, want 15", len(table.Agents))
	}
	if table.DefaultAgent != "copilot" {
		t.Errorf("DefaultAgent = %q, want %q", table.DefaultAgent, "copilot")
	}
}

func TestLookup(t *testing.T) {
	table := MustLoad()

	tests := []struct {
		key         string
		name        string
		folder      string
		installURL  string
		requiresCLI bool
	}{
		{"copilot", "GitHub Copilot", ".github/", "", false},
		{"claude", "Claude Code", ".claude/", "https://docs.anthropic.com/en/docs/claude-code/setup", true},
		{"gemini", "Gemini CLI", ".gemini/", "https://github.com/google-gemini/gemini-cli", true},
		{"cursor-agent", "Cursor", ".cursor/", "", false},
		{"qwen", "Qwen Code", ".qwen/", "https://github.com/QwenLM/qwen-code", true},
		{"opencode", "opencode", ".opencode/", "https://opencode.ai", true},
		{"codex", "Codex CLI", ".codex/", "https://github.com/openai/codex", true},
		{"windsurf", "Windsurf", ".windsurf/", "", false},
		{"kilocode", "Kilo Code", ".kilocode/", "", false},
		{"auggie", "Auggie CLI", ".augment/", "https://docs.augmentcode.com/cli/setup-auggie/install-auggie-cli", true},
		{"codebuddy", "CodeBuddy", ".codebuddy/", "https://www.codebuddy.ai/cli", true},
		{"roo", "Roo Code", ".roo/", "", false},
		{"q", "Amazon Q Developer CLI", ".amazonq/", "https://aws.amazon.com/developer/learning/q-developer-cli/", true},
		{"amp", "Amp", ".agents/", "https://ampcode.com/manual#install", true},
		{"shai", "SHAI", ".shai/", "https://github.com/ovh/shai", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			a, ok := table.Lookup(tt.key)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.key)
			}
			if a.Name != tt.name || a.Folder != tt.folder || a.InstallURL != tt.installURL || a.RequiresCLI != tt.requiresCLI {
				t.Errorf("Lookup(%q) = %+v", tt.key, a)
			}
		})
	}

	if _, ok := table.Lookup("vim"); ok {
		t.Error("Lookup(vim) should not be found")
	}
}

func TestFoldersAreDotDirectories(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range MustLoad().Agents {
		if !strings.HasPrefix(a.Folder, ".") || !strings.HasSuffix(a.Folder, "/") {
			t.Errorf("%s folder %q must start with '.' and end with '/'", a.Key, a.Folder)
		}
		if seen[a.Folder] {
			t.Errorf("folder %q used twice", a.Folder)
		}
		seen[a.Folder] = true
	}
}

func TestCLIAgents(t *testing.T) {
	for _, a := range MustLoad().CLIAgents() {
		if !a.RequiresCLI || a.InstallURL == "" {
			t.Errorf("CLIAgents returned %+v", a)
		}
	}
}

func TestScriptTypes(t *testing.T) {
	table := MustLoad()
	sh, ok := table.LookupScript("sh")
	if !ok || sh.Description != "POSIX Shell (bash/zsh)" {
		t.Errorf("sh = %+v, %v", sh, ok)
	}
	ps, ok := table.LookupScript("ps")
	if !ok || ps.Description != "PowerShell" {
		t.Errorf("ps = %+v, %v", ps, ok)
	}
	if got := strings.Join(table.ScriptKeys(), ","); got != "ps,sh" {
		t.Errorf("ScriptKeys() = %q", got)
	}
}

func TestDefaultScript(t *testing.T) {
	if got := DefaultScript("windows"); got != "ps" {
		t.Errorf("DefaultScript(windows) = %q, want ps", got)
	}
	for _, goos := range []string{"linux", "darwin", "freebsd"} {
		if got := DefaultScript(goos); got != "sh" {
			t.Errorf("DefaultScript(%s) = %q, want sh", goos, got)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "folder without trailing slash",
			yaml: `default_agent: a
agents:
  - {key: a, name: A, folder: .a, requires_cli: false}
script_types:
  - {key: sh, description: shell}
`,
			want: "/agents/0/folder",
		},
		{
			name: "duplicate folder",
			yaml: `default_agent: a
agents:
  - {key: a, name: A, folder: .a/, requires_cli: false}
  - {key: b, name: B, folder: .a/, requires_cli: false}
script_types:
  - {key: sh, description: shell}
`,
			want: "duplicate agent folder",
		},
		{
			name: "cli agent without install url",
			yaml: `default_agent: a
agents:
  - {key: a, name: A, folder: .a/, requires_cli: true}
script_types:
  - {key: sh, description: shell}
`,
			want: "install_url",
		},
		{
			name: "unknown default",
			yaml: `default_agent: z
agents:
  - {key: a, name: A, folder: .a/, requires_cli: false}
script_types:
  - {key: sh, description: shell}
`,
			want: "default agent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			var invalid *InvalidTableError
			if !errors.As(err, &invalid) {
				t.Fatalf("error type = %T, want *InvalidTableError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
