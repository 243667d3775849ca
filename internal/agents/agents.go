package agents

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed agents.yaml
var tableBytes []byte

// Agent describes one supported AI assistant.
type Agent struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Folder      string `yaml:"folder"`
	InstallURL  string `yaml:"install_url"`
	RequiresCLI bool   `yaml:"requires_cli"`
}

// ScriptType is a flavour of helper scripts shipped in the template.
type ScriptType struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

// Table is the validated agent catalogue.
type Table struct {
	DefaultAgent string       `yaml:"default_agent"`
	Agents       []Agent      `yaml:"agents"`
	ScriptTypes  []ScriptType `yaml:"script_types"`
}

var (
	loadOnce sync.Once
	loaded   *Table
	loadErr  error
)

// Load returns the embedded table, parsing and validating it once.
func Load() (*Table, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(tableBytes)
	})
	return loaded, loadErr
}

// MustLoad is Load for callers that treat a broken embedded table as a
// programming error.
func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Parse validates raw YAML against the schema and the table rules and
// decodes it.
func Parse(data []byte) (*Table, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &InvalidTableError{Issues: result.Issues}
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing agent table: %w", err)
	}
	if issues := t.check(); len(issues) > 0 {
		return nil, &InvalidTableError{Issues: issues}
	}
	return &t, nil
}

// check enforces the rules the schema cannot express.
func (t *Table) check() []ValidationIssue {
	var issues []ValidationIssue
	keys := make(map[string]bool)
	folders := make(map[string]bool)
	for i, a := range t.Agents {
		path := fmt.Sprintf("/agents/%d", i)
		if keys[a.Key] {
			issues = append(issues, ValidationIssue{Path: path + "/key", Keyword: "unique", Message: fmt.Sprintf("duplicate agent key %q", a.Key)})
		}
		keys[a.Key] = true
		if folders[a.Folder] {
			issues = append(issues, ValidationIssue{Path: path + "/folder", Keyword: "unique", Message: fmt.Sprintf("duplicate agent folder %q", a.Folder)})
		}
		folders[a.Folder] = true
		if a.RequiresCLI && a.InstallURL == "" {
			issues = append(issues, ValidationIssue{Path: path + "/install_url", Keyword: "required", Message: "agents that require a CLI need an install_url"})
		}
	}
	if !keys[t.DefaultAgent] {
		issues = append(issues, ValidationIssue{Path: "/default_agent", Keyword: "enum", Message: fmt.Sprintf("default agent %q is not in the table", t.DefaultAgent)})
	}
	scripts := make(map[string]bool)
	for i, s := range t.ScriptTypes {
		if scripts[s.Key] {
			issues = append(issues, ValidationIssue{Path: fmt.Sprintf("/script_types/%d/key", i), Keyword: "unique", Message: fmt.Sprintf("duplicate script type %q", s.Key)})
		}
		scripts[s.Key] = true
	}
	return issues
}

// Lookup returns the agent with the given key.
func (t *Table) Lookup(key string) (Agent, bool) {
	for _, a := range t.Agents {
		if a.Key == key {
			return a, true
		}
	}
	return Agent{}, false
}

// Keys returns agent keys in table order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.Agents))
	for i, a := range t.Agents {
		keys[i] = a.Key
	}
	return keys
}

// CLIAgents returns the agents whose tooling must be installed locally.
func (t *Table) CLIAgents() []Agent {
	var out []Agent
	for _, a := range t.Agents {
		if a.RequiresCLI {
			out = append(out, a)
		}
	}
	return out
}

// LookupScript returns the script type with the given key.
func (t *Table) LookupScript(key string) (ScriptType, bool) {
	for _, s := range t.ScriptTypes {
		if s.Key == key {
			return s, true
		}
	}
	return ScriptType{}, false
}

// ScriptKeys returns the script type keys, sorted.
func (t *Table) ScriptKeys() []string {
	keys := make([]string, len(t.ScriptTypes))
	for i, s := range t.ScriptTypes {
		keys[i] = s.Key
	}
	sort.Strings(keys)
	return keys
}

// DefaultScript picks the script flavour for an operating system.
func DefaultScript(goos string) string {
	if goos == "windows" {
		return "ps"
	}
	return "sh"
}

// InvalidTableError reports why an agent table was rejected.
type InvalidTableError struct {
	Issues []ValidationIssue
}

func (e *InvalidTableError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid agent table: " + strings.Join(parts, "; ")
}
