package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LatestURL returns the releases/latest endpoint for the configured repo.
func (c *Client) LatestURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
}

// FetchLatest fetches the latest published release of the template repo.
func (c *Client) FetchLatest(ctx context.Context) (*Release, error) {
	url := c.LatestURL()
	c.logger.Debug("fetching release metadata", "url", url, "authenticated", c.token != "")

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	resp, err := c.doRequest(ctx, url, "application/vnd.github+json")
	if err != nil {
		return nil, &NetworkError{Op: "fetching release metadata from", URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, url); err != nil {
		return nil, err
	}

	idle := time.AfterFunc(c.idleTimeout, func() { cancel(errStreamIdle) })
	defer idle.Stop()
	body := &idleReader{r: io.LimitReader(resp.Body, maxJSONResponseBytes), timer: idle, timeout: c.idleTimeout}

	var rel Release
	if err := json.NewDecoder(body).Decode(&rel); err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errStreamIdle) {
			err = fmt.Errorf("%w (%s)", errStreamIdle, c.idleTimeout)
			return nil, &NetworkError{Op: "reading release metadata from", URL: url, Err: err}
		}
		return nil, fmt.Errorf("parsing release JSON: %w", err)
	}
	c.logger.Debug("release metadata received", "tag", rel.TagName, "assets", len(rel.Assets))
	return &rel, nil
}

// Version returns the release tag with a leading "v" removed.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// PublishedDate formats the publish date as YYYY-MM-DD, or "unknown".
func (r *Release) PublishedDate() string {
	if r == nil || r.PublishedAt.IsZero() {
		return "unknown"
	}
	return r.PublishedAt.Format("2006-01-02")
}

// AssetNames lists every asset name in release order.
func (r *Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}

// idleReader re-arms timer whenever a read returns data.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.timeout)
	}
	return n, err
}

func (c *Client) doRequest(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range AuthHeaders(c.token) {
		req.Header[k] = v
	}
	return c.httpClient.Do(req)
}

// checkStatus classifies a non-2xx response. The body is left for the
// caller to close.
func checkStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests:
		snap := ParseRateLimit(resp.Header)
		return &RateLimitError{
			StatusCode: resp.StatusCode,
			URL:        url,
			RateLimit:  snap,
			Message:    formatRateLimit(resp.StatusCode, snap, url),
		}
	default:
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url}
	}
}
