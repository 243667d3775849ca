package release

import (
	"fmt"
	"strings"
)

// RateLimitError is returned for 401, 403 and 429 responses. Message holds
// the full diagnostic from FormatRateLimitError.
type RateLimitError struct {
	StatusCode int
	URL        string
	RateLimit  RateLimitSnapshot
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API returned status %d for %s", e.StatusCode, e.URL)
}

// HTTPStatusError is any other non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// NetworkError wraps connection, TLS, timeout and mid-stream failures.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AssetNotFoundError is returned when no release asset matches the agent
// and script combination.
type AssetNotFoundError struct {
	Pattern   string
	Available []string
}

func (e *AssetNotFoundError) Error() string {
	avail := "none"
	if len(e.Available) > 0 {
		avail = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no release asset matches %q (available: %s)", e.Pattern, avail)
}
