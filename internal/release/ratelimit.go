package release

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	unauthenticatedHourlyLimit = 60
	authenticatedHourlyLimit   = 5000
)

var printer = message.NewPrinter(language.English)

// RateLimitSnapshot is what the response headers said about quota. Every
// field is optional; the zero value means no rate-limit headers were sent.
type RateLimitSnapshot struct {
	Limit     string // X-RateLimit-Limit, verbatim
	Remaining string // X-RateLimit-Remaining, verbatim

	HasReset       bool
	ResetEpoch     int64
	ResetTimeUTC   time.Time
	ResetTimeLocal time.Time

	// Retry-After is either a number of seconds or an opaque value such as
	// an HTTP date. Exactly one of the two is set when the header exists.
	HasRetryAfterSeconds bool
	RetryAfterSeconds    int
	RetryAfterRaw        string
}

// Empty reports whether no rate-limit header was present.
func (s RateLimitSnapshot) Empty() bool {
	return s.Limit == "" && s.Remaining == "" && !s.HasReset &&
		!s.HasRetryAfterSeconds && s.RetryAfterRaw == ""
}

// ParseRateLimit extracts a snapshot from response headers. Header lookup is
// case-insensitive. It never fails: malformed values are dropped or kept raw.
func ParseRateLimit(h http.Header) RateLimitSnapshot {
	var s RateLimitSnapshot
	if h == nil {
		return s
	}

	s.Limit = strings.TrimSpace(h.Get("X-RateLimit-Limit"))
	s.Remaining = strings.TrimSpace(h.Get("X-RateLimit-Remaining"))

	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil && epoch != 0 {
			t := time.Unix(epoch, 0)
			s.HasReset = true
			s.ResetEpoch = epoch
			s.ResetTimeUTC = t.UTC()
			s.ResetTimeLocal = t.Local()
		}
	}

	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			s.HasRetryAfterSeconds = true
			s.RetryAfterSeconds = secs
		} else {
			s.RetryAfterRaw = v
		}
	}
	return s
}

// FormatRateLimitError builds the multi-line diagnostic shown when GitHub
// refuses a request with 401, 403 or 429.
func FormatRateLimitError(status int, h http.Header, url string) string {
	return formatRateLimit(status, ParseRateLimit(h), url)
}

func formatRateLimit(status int, s RateLimitSnapshot, url string) string {
	var b strings.Builder
	printer.Fprintf(&b, "GitHub API returned status %d for %s\n", status, url)

	if !s.Empty() {
		b.WriteString("\nRate Limit Information:\n")
		if s.Limit != "" {
			printer.Fprintf(&b, "  - Rate Limit: %s requests/hour\n", s.Limit)
		}
		if s.Remaining != "" {
			printer.Fprintf(&b, "  - Remaining: %s\n", s.Remaining)
		}
		if s.HasReset {
			printer.Fprintf(&b, "  - Resets at: %s\n", s.ResetTimeLocal.Format("2006-01-02 15:04:05 MST"))
		}
		if s.HasRetryAfterSeconds {
			printer.Fprintf(&b, "  - Retry after: %d seconds\n", s.RetryAfterSeconds)
		} else if s.RetryAfterRaw != "" {
			printer.Fprintf(&b, "  - Retry after: %s\n", s.RetryAfterRaw)
		}
	}

	b.WriteString("\nTroubleshooting Tips:\n")
	b.WriteString("  - If you're on a shared CI or corporate network, the quota may be used up by other users.\n")
	b.WriteString("  - Pass a GitHub token with --github-token or set the GH_TOKEN or GITHUB_TOKEN\n")
	b.WriteString("    environment variable to raise the limit.\n")
	printer.Fprintf(&b, "  - Authenticated requests get %d/hour instead of %d/hour for unauthenticated ones.\n",
		authenticatedHourlyLimit, unauthenticatedHourlyLimit)
	return b.String()
}
