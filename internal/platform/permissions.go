package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ScriptsDir is where template helper scripts live, relative to the
// project root.
var ScriptsDir = filepath.Join(".specify", "scripts")

// PermissionReport tallies a normalization pass.
type PermissionReport struct {
	Updated  int
	Skipped  int
	Failed   int
	Failures []string // "<relative path>: <error>"
}

// ScriptPermissions makes template shell scripts executable.
type ScriptPermissions interface {
	// Normalize processes every script under root's scripts directory.
	// Per-file failures are tallied in the report; the error return is
	// reserved for failures to walk the tree at all.
	Normalize(root string) (*PermissionReport, error)
}

// NewScriptPermissions returns the implementation for the running OS.
func NewScriptPermissions() ScriptPermissions {
	return newScriptPermissions(runtime.GOOS)
}

func newScriptPermissions(goos string) ScriptPermissions {
	if goos == "windows" {
		return noopPermissions{}
	}
	return posixPermissions{}
}

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

type noopPermissions struct{}

func (noopPermissions) Normalize(string) (*PermissionReport, error) {
	return &PermissionReport{}, nil
}

type posixPermissions struct{}

func (posixPermissions) Normalize(root string) (*PermissionReport, error) {
	report := &PermissionReport{}
	dir := filepath.Join(root, ScriptsDir)

	info, err := os.Lstat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("inspecting %s: %w", dir, err)
	}
	if !info.IsDir() {
		return report, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			report.fail(root, path, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		// WalkDir does not follow symlinks; a linked script belongs to
		// whatever it points at.
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 || !strings.HasSuffix(d.Name(), ".sh") {
			return nil
		}

		changed, err := makeExecutable(path)
		switch {
		case err != nil:
			report.fail(root, path, err)
		case changed:
			report.Updated++
		default:
			report.Skipped++
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walking %s: %w", dir, err)
	}
	return report, nil
}

func (r *PermissionReport) fail(root, path string, err error) {
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		rel = path
	}
	r.Failed++
	r.Failures = append(r.Failures, fmt.Sprintf("%s: %v", filepath.ToSlash(rel), err))
}

// makeExecutable adds execute bits mirroring the read bits of a shebang
// script that has no execute bit yet. It reports whether the mode changed.
func makeExecutable(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	mode := info.Mode().Perm()
	if mode&0o111 != 0 {
		return false, nil
	}

	ok, err := hasShebang(path)
	if err != nil || !ok {
		return false, err
	}

	newMode := ExecutableMode(mode)
	if err := Chmod(path, newMode); err != nil {
		return false, err
	}
	return true, nil
}

// ExecutableMode returns mode with an execute bit added for every read bit,
// and always for the owner.
func ExecutableMode(mode os.FileMode) os.FileMode {
	if mode&0o400 != 0 {
		mode |= 0o100
	}
	if mode&0o040 != 0 {
		mode |= 0o010
	}
	if mode&0o004 != 0 {
		mode |= 0o001
	}
	return mode | 0o100
}

func hasShebang(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return readShebang(f)
}

func readShebang(r io.Reader) (bool, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(r, head); err != nil {
		// Empty or one-byte files cannot carry a shebang.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return string(head) == "#!", nil
}
