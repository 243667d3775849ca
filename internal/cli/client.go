package cli

import (
	"strings"

	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/config"
	"github.com/specify-labs/specify/internal/release"
)

// resolveToken applies flag > GH_TOKEN > GITHUB_TOKEN, then falls back to
// the github_token config key.
func resolveToken(flag string, settings config.Settings, getenv func(string) string) string {
	if token := release.ResolveToken(flag, getenv); token != "" {
		return token
	}
	return strings.TrimSpace(settings.GitHubToken)
}

func newReleaseClient(settings config.Settings, token string, skipTLS bool) *release.Client {
	return release.New(
		release.WithBaseURL(settings.APIBase),
		release.WithRepo(settings.TemplateRepo),
		release.WithToken(token),
		release.WithInsecureSkipVerify(skipTLS),
		release.WithUserAgent(branding.CLIName()+"-cli/"+buildVersion),
		release.WithLogger(logger),
	)
}
