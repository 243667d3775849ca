package release

import (
	"net/http"
	"strings"
)

// Environment variables consulted for a token, in order.
var TokenEnvVars = []string{"GH_TOKEN", "GITHUB_TOKEN"}

// ResolveToken picks the credential to send: the explicit value first, then
// GH_TOKEN, then GITHUB_TOKEN. Values are trimmed and blank values are
// skipped. An empty result means unauthenticated.
func ResolveToken(explicit string, getenv func(string) string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if getenv == nil {
		return ""
	}
	for _, name := range TokenEnvVars {
		if t := strings.TrimSpace(getenv(name)); t != "" {
			return t
		}
	}
	return ""
}

// AuthHeaders returns the headers to attach for token. It is empty when
// token is empty.
func AuthHeaders(token string) http.Header {
	h := make(http.Header)
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
