package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

var errStreamIdle = errors.New("no data received within the stream timeout")

// ProgressFunc observes a download. total is -1 when the server did not
// send Content-Length.
type ProgressFunc func(downloaded, total int64)

// DownloadResult describes a completed download.
type DownloadResult struct {
	LocalPath  string
	Filename   string
	Size       int64
	ReleaseTag string
	AssetURL   string
}

// Download streams asset into destDir/<asset name>. The partial file is
// removed on any failure.
func (c *Client) Download(ctx context.Context, rel *Release, asset *Asset, destDir string, progress ProgressFunc) (*DownloadResult, error) {
	url := asset.DownloadURL
	destPath := filepath.Join(destDir, filepath.Base(asset.Name))
	c.logger.Debug("downloading asset", "name", asset.Name, "url", url, "dest", destPath)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	resp, err := c.doRequest(ctx, url, "application/octet-stream")
	if err != nil {
		return nil, &NetworkError{Op: "downloading", URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, url); err != nil {
		return nil, err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("creating download file: %w", err)
	}
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			_ = f.Close()
			_ = os.Remove(destPath)
		}
	}()

	total := resp.ContentLength
	if total < 0 {
		total = -1
	}

	// Each chunk re-arms the idle timer; if it fires the request context is
	// cancelled and the pending Read returns.
	idle := time.AfterFunc(c.idleTimeout, func() { cancel(errStreamIdle) })
	defer idle.Stop()

	var downloaded int64
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			idle.Reset(c.idleTimeout)
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return nil, fmt.Errorf("writing download: %w", writeErr)
			}
			downloaded += int64(n)
			notify(progress, downloaded, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if cause := context.Cause(ctx); errors.Is(cause, errStreamIdle) {
				readErr = fmt.Errorf("%w (%s)", errStreamIdle, c.idleTimeout)
			}
			return nil, &NetworkError{Op: "reading download stream from", URL: url, Err: readErr}
		}
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing download file: %w", err)
	}
	cleanupNeeded = false

	result := &DownloadResult{
		LocalPath: destPath,
		Filename:  asset.Name,
		Size:      downloaded,
		AssetURL:  url,
	}
	if rel != nil {
		result.ReleaseTag = rel.TagName
	}
	c.logger.Debug("download complete", "bytes", downloaded)
	return result, nil
}

// notify calls progress, discarding any panic it raises.
func notify(progress ProgressFunc, downloaded, total int64) {
	if progress == nil {
		return
	}
	defer func() { _ = recover() }()
	progress(downloaded, total)
}
