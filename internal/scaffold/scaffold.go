package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/specify-labs/specify/internal/logging"
	"github.com/specify-labs/specify/internal/materialize"
	"github.com/specify-labs/specify/internal/platform"
	"github.com/specify-labs/specify/internal/release"
)

var printer = message.NewPrinter(language.English)

// TemplateSource provides releases and their assets. *release.Client
// satisfies it.
type TemplateSource interface {
	FetchLatest(ctx context.Context) (*release.Release, error)
	Download(ctx context.Context, rel *release.Release, asset *release.Asset, destDir string, progress release.ProgressFunc) (*release.DownloadResult, error)
}

// Options configures a pipeline run.
type Options struct {
	Root   string // absolute destination directory
	Mode   materialize.Mode
	Agent  string
	Script string
	Source TemplateSource

	// Permissions defaults to the implementation for the running OS.
	Permissions platform.ScriptPermissions
	Logger      *log.Logger
	// TempDir is the parent of the download directory. Empty means the
	// system temp directory.
	TempDir string
}

// Outcome describes a run. It is returned alongside errors so callers can
// report how far the pipeline got.
type Outcome struct {
	Root        string
	Mode        materialize.Mode
	Release     *release.Release
	Asset       *release.Asset
	Download    *release.DownloadResult
	Extraction  *materialize.Result
	Permissions *platform.PermissionReport
	RolledBack  bool
}

// Run executes the pipeline. In fresh mode a failure after the root has been
// created removes it again; merge mode never deletes anything.
func Run(ctx context.Context, opts Options, rep Reporter) (out *Outcome, err error) {
	if opts.Source == nil {
		return nil, errors.New("no template source configured")
	}
	logger := logging.OrDiscard(opts.Logger)
	r := safeReporter{r: rep}
	perms := opts.Permissions
	if perms == nil {
		perms = platform.NewScriptPermissions()
	}

	// rollbackDir is the outermost directory a fresh run creates, so that
	// missing parents of Root are removed along with it.
	rollbackDir := ""
	if opts.Mode == materialize.ModeFresh {
		if _, statErr := os.Lstat(opts.Root); statErr == nil {
			return nil, fmt.Errorf("%w: %s", ErrRootExists, opts.Root)
		}
		rollbackDir = missingAncestor(opts.Root)
	}

	out = &Outcome{Root: opts.Root, Mode: opts.Mode}

	downloadDir, err := os.MkdirTemp(opts.TempDir, "specify-template-*")
	if err != nil {
		return out, fmt.Errorf("creating download directory: %w", err)
	}

	createdRoot := false
	defer func() {
		if rmErr := os.RemoveAll(downloadDir); rmErr != nil {
			logger.Warn("could not remove temporary files", "dir", downloadDir, "err", rmErr)
			r.Error(StepCleanup, rmErr.Error())
		} else {
			r.Complete(StepCleanup, "temporary archive removed")
		}
		if err != nil && createdRoot && rollbackDir != "" {
			if rmErr := os.RemoveAll(rollbackDir); rmErr != nil {
				logger.Warn("rollback failed", "root", opts.Root, "dir", rollbackDir, "err", rmErr)
				return
			}
			out.RolledBack = true
			logger.Info("removed partially created project", "root", opts.Root, "dir", rollbackDir)
		}
	}()

	// fetch
	r.Start(StepFetch, "contacting GitHub API")
	rel, err := opts.Source.FetchLatest(ctx)
	if err != nil {
		return out, fail(r, StepFetch, err)
	}
	out.Release = rel
	asset, err := release.LocateAsset(rel, opts.Agent, opts.Script)
	if err != nil {
		return out, fail(r, StepFetch, err)
	}
	if n := len(release.MatchingAssets(rel, opts.Agent, opts.Script)); n > 1 {
		logger.Debug("several assets match; using the first",
			"pattern", release.AssetPattern(opts.Agent, opts.Script), "matches", n, "asset", asset.Name)
	}
	out.Asset = asset
	r.Complete(StepFetch, fmt.Sprintf("release %s (%s)", rel.TagName, formatBytes(asset.Size)))

	// download
	r.Start(StepDownload, asset.Name)
	dl, err := opts.Source.Download(ctx, rel, asset, downloadDir, progressTo(r))
	if err != nil {
		return out, fail(r, StepDownload, err)
	}
	out.Download = dl
	r.Complete(StepDownload, fmt.Sprintf("%s (%s)", dl.Filename, formatBytes(dl.Size)))

	// extract
	if err = ctx.Err(); err != nil {
		return out, fail(r, StepExtract, err)
	}
	r.Start(StepExtract, opts.Mode.String())
	plan, err := materialize.Plan(dl.LocalPath, opts.Root, opts.Mode)
	if err != nil {
		return out, fail(r, StepExtract, err)
	}
	r.Complete(StepZipList, printer.Sprintf("%d entries", len(plan.Entries)))

	createdRoot = opts.Mode == materialize.ModeFresh
	res, err := materialize.Apply(ctx, plan, materialize.Options{Logger: logger, StagingParent: downloadDir})
	out.Extraction = res
	if err != nil {
		return out, fail(r, StepExtract, err)
	}
	r.Complete(StepExtract, extractDetail(res))
	r.Complete(StepExtractedSummary, summaryDetail(res, plan))

	// chmod
	r.Start(StepChmod, "")
	report, permErr := perms.Normalize(opts.Root)
	out.Permissions = report
	switch {
	case permErr != nil:
		logger.Warn("could not scan scripts", "err", permErr)
		r.Error(StepChmod, permErr.Error())
	case report.Failed > 0:
		for _, f := range report.Failures {
			logger.Warn("could not make script executable", "failure", f)
		}
		r.Error(StepChmod, fmt.Sprintf("%d updated, %d failed", report.Updated, report.Failed))
	default:
		r.Complete(StepChmod, fmt.Sprintf("%d updated", report.Updated))
	}

	return out, nil
}

// missingAncestor returns the outermost directory on the way to path that
// does not exist yet. It is path itself when the parent exists.
func missingAncestor(path string) string {
	missing := filepath.Clean(path)
	for dir := filepath.Dir(missing); dir != missing; dir = filepath.Dir(dir) {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		missing = dir
	}
	return missing
}

func fail(r Reporter, step string, err error) error {
	r.Error(step, shortError(err))
	return &StepError{Step: step, Err: err}
}

// shortError keeps the first line of err for the tracker detail.
func shortError(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

// progressTo turns download progress into tracker updates, at most one per
// percent when the size is known and one per MiB otherwise.
func progressTo(r Reporter) release.ProgressFunc {
	last := int64(-1)
	return func(downloaded, total int64) {
		var mark int64
		var detail string
		if total > 0 {
			mark = downloaded * 100 / total
			detail = fmt.Sprintf("%d%% of %s", mark, formatBytes(total))
		} else {
			mark = downloaded >> 20
			detail = formatBytes(downloaded)
		}
		if mark == last {
			return
		}
		last = mark
		r.Start(StepDownload, detail)
	}
}

func extractDetail(res *materialize.Result) string {
	if res.StrippedPrefix != "" {
		return fmt.Sprintf("%s, flattened %s/", res.Mode, res.StrippedPrefix)
	}
	return res.Mode.String()
}

func summaryDetail(res *materialize.Result, plan *materialize.ExtractionPlan) string {
	parts := []string{printer.Sprintf("%d files", res.Written)}
	if res.Merged > 0 {
		parts = append(parts, printer.Sprintf("%d merged", res.Merged))
	}
	if res.Skipped > 0 {
		parts = append(parts, printer.Sprintf("%d skipped", res.Skipped))
	}
	parts = append(parts, printer.Sprintf("%d top-level items", len(plan.TopLevel())))
	return strings.Join(parts, ", ")
}

func formatBytes(n int64) string {
	switch {
	case n < 0:
		return "unknown size"
	case n < 1<<10:
		return printer.Sprintf("%d bytes", n)
	case n < 1<<20:
		return printer.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return printer.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}
