package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/config"
	"github.com/specify-labs/specify/internal/release"
)

var (
	versionShort bool
	versionJSON  bool
)

const templateLookupTimeout = 10 * time.Second

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

// versionInfo is what "version" reports.
type versionInfo struct {
	CLIVersion       string `json:"cli_version"`
	Commit           string `json:"commit"`
	Built            string `json:"built"`
	TemplateVersion  string `json:"template_version"`
	TemplateReleased string `json:"template_released"`
	Platform         string `json:"platform"`
	Architecture     string `json:"architecture"`
	GoVersion        string `json:"go_version"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print CLI and template version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		settings := config.Current()
		client := newReleaseClient(settings, resolveToken("", settings, os.Getenv), false)
		info := collectVersionInfo(cmd.Context(), client, config.Dir(), client.Repo())
		return printVersion(out, info, versionJSON)
	},
}

// latestFetcher is the part of *release.Client that version needs.
type latestFetcher interface {
	FetchLatest(ctx context.Context) (*release.Release, error)
}

func collectVersionInfo(ctx context.Context, f latestFetcher, cacheDir, repo string) versionInfo {
	info := versionInfo{
		CLIVersion:       buildVersion,
		Commit:           buildCommit,
		Built:            buildDate,
		TemplateVersion:  "unknown",
		TemplateReleased: "unknown",
		Platform:         runtime.GOOS,
		Architecture:     runtime.GOARCH,
		GoVersion:        runtime.Version(),
	}
	if rel := latestTemplate(ctx, f, cacheDir, repo); rel != nil {
		info.TemplateVersion = release.TemplateVersion(rel.TagName)
		info.TemplateReleased = rel.PublishedDate()
	}
	return info
}

// latestTemplate serves the release from the version cache while it is
// fresh and asks GitHub otherwise. It returns nil when neither works.
func latestTemplate(ctx context.Context, f latestFetcher, cacheDir, repo string) *release.Release {
	cache, err := release.LoadCache(cacheDir)
	if err != nil {
		logger.Debug("ignoring unreadable version cache", "err", err)
	}
	if !release.IsCacheStale(cache, repo, release.DefaultCacheMaxAge) {
		logger.Debug("using cached template version", "tag", cache.TagName, "checked", cache.CheckedAt)
		return cache.Release()
	}

	ctx, cancel := context.WithTimeout(ctx, templateLookupTimeout)
	defer cancel()
	rel, err := f.FetchLatest(ctx)
	if err != nil {
		logger.Debug("template version lookup failed", "err", err)
		return nil
	}
	if err := release.SaveCache(cacheDir, release.CacheFromRelease(repo, rel)); err != nil {
		logger.Debug("could not save version cache", "err", err)
	}
	return rel
}

func printVersion(w io.Writer, info versionInfo, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling version info: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	lines := keyValues([][2]string{
		{"CLI Version", info.CLIVersion},
		{"Commit", info.Commit},
		{"Built", info.Built},
		{"Template Version", info.TemplateVersion},
		{"Released", info.TemplateReleased},
		{"Platform", info.Platform},
		{"Architecture", info.Architecture},
		{"Go", info.GoVersion},
	})
	fmt.Fprintln(w, panel(branding.DisplayName()+" CLI Information", lines, colorInfo))
	return nil
}
