package release

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TemplateVersion renders a release tag for display. Semver tags are
// normalized ("v0.0.8" and "0.0.8" both give "0.0.8"); anything else is
// shown with only a leading "v" removed.
func TemplateVersion(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "unknown"
	}
	if v, err := parseSemver(tag); err == nil {
		return v.String()
	}
	return strings.TrimPrefix(tag, "v")
}

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
