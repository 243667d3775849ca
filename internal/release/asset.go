package release

import (
	"strings"

	"github.com/specify-labs/specify/internal/branding"
)

// AssetPattern is the name fragment that identifies a template archive for
// an agent and script flavour, e.g. "spec-kit-template-claude-sh".
func AssetPattern(agent, script string) string {
	return branding.TemplateAssetPrefix() + "-" + agent + "-" + script
}

// MatchingAssets returns every zip asset whose name contains the pattern.
func MatchingAssets(rel *Release, agent, script string) []Asset {
	pattern := AssetPattern(agent, script)
	var out []Asset
	for _, a := range rel.Assets {
		if strings.Contains(a.Name, pattern) && strings.HasSuffix(a.Name, ".zip") {
			out = append(out, a)
		}
	}
	return out
}

// LocateAsset picks the first matching asset in release order.
func LocateAsset(rel *Release, agent, script string) (*Asset, error) {
	matches := MatchingAssets(rel, agent, script)
	if len(matches) == 0 {
		return nil, &AssetNotFoundError{
			Pattern:   AssetPattern(agent, script),
			Available: rel.AssetNames(),
		}
	}
	return &matches[0], nil
}
