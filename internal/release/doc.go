// Package release acquires template archives from GitHub Releases.
//
// It resolves the credential to send, fetches the latest release metadata,
// picks the asset matching an agent and script flavour, and streams it to
// disk with progress reporting. Authentication and rate-limit failures are
// turned into errors that carry a ready-to-print diagnostic built from the
// X-RateLimit-* and Retry-After response headers.
package release
