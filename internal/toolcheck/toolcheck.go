// Package toolcheck finds the command-line tools an agent or the project
// setup depends on.
package toolcheck

import (
	"os"
	"os/exec"
	"path/filepath"
)

// Checker resolves tools on the PATH. Fields are swappable for tests.
type Checker struct {
	LookPath func(string) (string, error)
	HomeDir  func() (string, error)
}

// New returns a Checker backed by the real environment.
func New() *Checker {
	return &Checker{LookPath: exec.LookPath, HomeDir: os.UserHomeDir}
}

// Find returns the path of tool and whether it was found.
//
// Claude Code's migrate-installer moves the binary to ~/.claude/local/claude
// and leaves nothing on the PATH, so that location is tried first.
func (c *Checker) Find(tool string) (string, bool) {
	if tool == "claude" && c.HomeDir != nil {
		if home, err := c.HomeDir(); err == nil {
			local := filepath.Join(home, ".claude", "local", "claude")
			if info, err := os.Stat(local); err == nil && info.Mode().IsRegular() {
				return local, true
			}
		}
	}
	path, err := c.LookPath(tool)
	if err != nil {
		return "", false
	}
	return path, true
}

// Has reports whether tool is available.
func (c *Checker) Has(tool string) bool {
	_, ok := c.Find(tool)
	return ok
}
