package materialize

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Mode selects how entries reach the destination.
type Mode int

const (
	// ModeFresh writes into a directory the caller just created.
	ModeFresh Mode = iota
	// ModeMerge overlays an existing directory through a staging area.
	ModeMerge
)

func (m Mode) String() string {
	if m == ModeMerge {
		return "merge"
	}
	return "fresh"
}

// Policy decides what happens when an entry's target already exists.
type Policy int

const (
	// PolicyOverwrite replaces the existing file.
	PolicyOverwrite Policy = iota
	// PolicyMergeJSON deep-merges the entry into the existing JSON file.
	PolicyMergeJSON
)

// MergedSettingsPath is the one file merged instead of overwritten.
const MergedSettingsPath = ".vscode/settings.json"

// ControlDir marks a directory as initialized. Its entries are applied last.
const ControlDir = ".specify"

// PlannedEntry is one archive member after prefix stripping.
type PlannedEntry struct {
	Name   string // name inside the archive
	Path   string // slash-separated path relative to the destination
	Dir    bool
	Skip   bool // symlinks and other non-regular members
	Policy Policy
	Mode   fs.FileMode

	index int // position in the archive's central directory
}

// ExtractionPlan is a validated, ordered list of writes.
type ExtractionPlan struct {
	Archive string
	Root    string
	Mode    Mode
	// StrippedPrefix is the wrapping directory removed from every entry,
	// or "" when names are used as-is.
	StrippedPrefix string
	Entries        []PlannedEntry
}

// Plan reads archivePath and validates every entry against root. Nothing is
// written. The returned plan must be passed to Apply.
func Plan(archivePath, root string, mode Mode) (*ExtractionPlan, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ArchiveError{Archive: archivePath, Reason: "not a readable zip archive", Err: err}
	}
	// Apply reopens the archive; plans only keep entry indexes.
	defer r.Close()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = normalizeName(f.Name)
	}
	if len(names) == 0 {
		return nil, &ArchiveError{Archive: archivePath, Reason: "archive is empty"}
	}

	plan := &ExtractionPlan{
		Archive:        archivePath,
		Root:           absRoot,
		Mode:           mode,
		StrippedPrefix: wrappingDir(names),
	}

	for i, f := range r.File {
		rel := names[i]
		if plan.StrippedPrefix != "" {
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, plan.StrippedPrefix), "/")
		}
		rel = strings.TrimSuffix(rel, "/")
		if rel == "" || rel == "." {
			continue
		}

		clean, err := safeRelPath(absRoot, rel)
		if err != nil {
			return nil, &ArchiveError{Archive: archivePath, Entry: f.Name, Reason: err.Error()}
		}

		fm := f.Mode()
		entry := PlannedEntry{
			Name:   f.Name,
			Path:   clean,
			Dir:    fm.IsDir() || strings.HasSuffix(names[i], "/"),
			Mode:   fm.Perm(),
			Policy: PolicyOverwrite,
			index:  i,
		}
		if !entry.Dir && !fm.IsRegular() {
			entry.Skip = true
		}
		if clean == MergedSettingsPath {
			entry.Policy = PolicyMergeJSON
		}
		plan.Entries = append(plan.Entries, entry)
	}

	// Control files go last so an interrupted merge never leaves the
	// marker directory behind without the rest of the template.
	sort.SliceStable(plan.Entries, func(i, j int) bool {
		return !isControl(plan.Entries[i].Path) && isControl(plan.Entries[j].Path)
	})
	return plan, nil
}

// Files returns the number of regular files the plan will write.
func (p *ExtractionPlan) Files() int {
	n := 0
	for _, e := range p.Entries {
		if !e.Dir && !e.Skip {
			n++
		}
	}
	return n
}

// TopLevel lists the distinct first path segments, sorted.
func (p *ExtractionPlan) TopLevel() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range p.Entries {
		first, _, _ := strings.Cut(e.Path, "/")
		if !seen[first] {
			seen[first] = true
			out = append(out, first)
		}
	}
	sort.Strings(out)
	return out
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	return strings.TrimPrefix(name, "./")
}

// wrappingDir returns the single top-level directory shared by every entry,
// or "" if there is none. A lone top-level file is never a wrapper.
func wrappingDir(names []string) string {
	var top string
	isDir := false
	for i, n := range names {
		first, _, hasSlash := strings.Cut(n, "/")
		if i == 0 {
			top = first
		} else if first != top {
			return ""
		}
		if hasSlash {
			isDir = true
		}
	}
	if !isDir || top == "" || top == "." || top == ".." {
		return ""
	}
	return top + "/"
}

// safeRelPath cleans rel and makes sure it stays under root.
func safeRelPath(root, rel string) (string, error) {
	if path.IsAbs(rel) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("absolute path not allowed")
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path escapes the destination")
	}

	target := filepath.Join(root, filepath.FromSlash(clean))
	if !strings.HasPrefix(target, filepath.Clean(root)+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the destination")
	}
	return clean, nil
}

func isControl(p string) bool {
	return p == ControlDir || strings.HasPrefix(p, ControlDir+"/")
}
