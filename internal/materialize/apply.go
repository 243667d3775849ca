package materialize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	"github.com/specify-labs/specify/internal/jsonmerge"
	"github.com/specify-labs/specify/internal/logging"
)

// Options tunes Apply.
type Options struct {
	Logger *log.Logger
	// StagingParent is where merge mode creates its staging directory.
	// Empty means the system temp directory.
	StagingParent string
}

// Result summarizes what Apply did.
type Result struct {
	Root           string
	Mode           Mode
	StrippedPrefix string
	Written        int
	Merged         int
	Skipped        int
	Dirs           int
	Files          []string // slash paths relative to Root, in write order
}

// Extract plans and applies archivePath onto root.
func Extract(ctx context.Context, archivePath, root string, mode Mode, opts Options) (*Result, error) {
	plan, err := Plan(archivePath, root, mode)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, plan, opts)
}

// Apply writes a plan to its root. On error the destination may hold a
// partial result; cleaning it up is the caller's decision.
func Apply(ctx context.Context, plan *ExtractionPlan, opts Options) (*Result, error) {
	logger := logging.OrDiscard(opts.Logger)

	r, err := zip.OpenReader(plan.Archive)
	if err != nil {
		return nil, &ArchiveError{Archive: plan.Archive, Reason: "not a readable zip archive", Err: err}
	}
	defer r.Close()

	for _, e := range plan.Entries {
		if e.index >= len(r.File) || normalizeName(r.File[e.index].Name) != normalizeName(e.Name) {
			return nil, &ArchiveError{Archive: plan.Archive, Entry: e.Name, Reason: "archive changed after planning"}
		}
	}

	res := &Result{Root: plan.Root, Mode: plan.Mode, StrippedPrefix: plan.StrippedPrefix}
	if err := os.MkdirAll(plan.Root, 0755); err != nil {
		return res, fmt.Errorf("creating %s: %w", plan.Root, err)
	}
	// Every write goes through an os.Root so that symlinks already present
	// in the destination cannot redirect entries outside of it.
	dest, err := os.OpenRoot(plan.Root)
	if err != nil {
		return res, fmt.Errorf("opening %s: %w", plan.Root, err)
	}
	defer dest.Close()

	if plan.Mode == ModeFresh {
		for _, e := range plan.Entries {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			f := r.File[e.index]
			if err := install(dest, e, f.Open, res, logger); err != nil {
				return res, err
			}
		}
		return res, nil
	}

	// Merge: unpack everything into staging first so a corrupt member is
	// found before the project is touched.
	stagingDir, err := os.MkdirTemp(opts.StagingParent, "specify-stage-*")
	if err != nil {
		return res, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)
	staging, err := os.OpenRoot(stagingDir)
	if err != nil {
		return res, fmt.Errorf("opening staging directory: %w", err)
	}
	defer staging.Close()
	logger.Debug("staging archive", "dir", stagingDir)

	scratch := &Result{}
	for _, e := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		f := r.File[e.index]
		staged := e
		staged.Policy = PolicyOverwrite
		if err := install(staging, staged, f.Open, scratch, logger); err != nil {
			return res, err
		}
	}

	for _, e := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := filepath.FromSlash(e.Path)
		open := func() (io.ReadCloser, error) { return staging.Open(name) }
		if err := install(dest, e, open, res, logger); err != nil {
			return res, err
		}
	}
	return res, nil
}

// install places one entry under dest, reading content from open.
func install(dest *os.Root, e PlannedEntry, open func() (io.ReadCloser, error), res *Result, logger *log.Logger) error {
	name := filepath.FromSlash(e.Path)

	switch {
	case e.Skip:
		logger.Debug("skipping non-regular entry", "entry", e.Name)
		res.Skipped++
		return nil
	case e.Dir:
		if err := dest.MkdirAll(name, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", e.Path, err)
		}
		res.Dirs++
		return nil
	}

	if parent := filepath.Dir(name); parent != "." {
		if err := dest.MkdirAll(parent, 0755); err != nil {
			return fmt.Errorf("creating parent of %s: %w", e.Path, err)
		}
	}

	if e.Policy == PolicyMergeJSON && fileExists(dest, name) {
		if err := mergeJSON(dest, name, e, open); err != nil {
			return err
		}
		logger.Debug("merged settings", "path", e.Path)
		res.Merged++
		res.Files = append(res.Files, e.Path)
		return nil
	}

	if err := writeFile(dest, name, e, open); err != nil {
		return err
	}
	res.Written++
	res.Files = append(res.Files, e.Path)
	return nil
}

func writeFile(dest *os.Root, name string, e PlannedEntry, open func() (io.ReadCloser, error)) error {
	rc, err := open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", e.Name, err)
	}
	defer rc.Close()

	perm := e.Mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := dest.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.Path, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", e.Path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", e.Path, err)
	}
	return nil
}

func mergeJSON(dest *os.Root, name string, e PlannedEntry, open func() (io.ReadCloser, error)) error {
	rc, err := open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", e.Name, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("reading entry %s: %w", e.Name, err)
	}

	update, err := jsonmerge.Decode(data)
	if err != nil {
		return fmt.Errorf("template %s: %w", e.Path, err)
	}
	info, err := dest.Stat(name)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", e.Path, err)
	}
	merged := jsonmerge.MergeFile(dest, name, update)
	return jsonmerge.WriteFile(dest, name, merged, info.Mode().Perm())
}

func fileExists(dest *os.Root, name string) bool {
	info, err := dest.Stat(name)
	return err == nil && info.Mode().IsRegular()
}
