package strain

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/warplab/gwstrain/internal/errors"
	"github.com/warplab/gwstrain/internal/httpclient"
)

// downloadChunkSize is the copy buffer size for streaming transfers.
const downloadChunkSize = 64 * 1024

// DefaultDownloadTimeout bounds a whole transfer when none is configured.
const DefaultDownloadTimeout = 120 * time.Second

// Downloader streams remote strain files into scratch storage.
type Downloader struct {
	client     *httpclient.Client
	scratchDir string
	timeout    time.Duration
}

// NewDownloader creates a downloader writing scratch files under
// scratchDir. An empty scratchDir means the OS temp directory.
func NewDownloader(scratchDir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Downloader{
		client: httpclient.New(&httpclient.Config{
			DefaultTimeout: timeout,
		}),
		scratchDir: scratchDir,
		timeout:    timeout,
	}
}

// Download streams the resource at url into a freshly created scratch
// file and returns its path. The caller owns deletion of the returned
// file. On any failure the partial scratch file is removed before the
// error is returned.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	tmp, err := os.CreateTemp(d.scratchDir, "gwstrain-*.hdf5")
	if err != nil {
		return "", errors.Newf("failed to create scratch file: %w", err).
			Category(errors.CategoryFileIO).
			Component("strain").
			Build()
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if closeErr := tmp.Close(); closeErr != nil {
			logger.Debug("Failed to close scratch file", "path", tmpPath, "error", closeErr)
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove scratch file", "path", tmpPath, "error", rmErr)
		}
	}

	start := time.Now()

	resp, err := d.client.Get(reqCtx, url)
	if err != nil {
		cleanup()
		return "", errors.Newf("download failed: %w", err).
			Category(errors.CategoryDownload).
			NetworkContext(url, d.timeout).
			Component("strain").
			Build()
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		cleanup()
		return "", errors.Newf("download failed: unexpected status %d", resp.StatusCode).
			Category(errors.CategoryDownload).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Component("strain").
			Build()
	}

	written, err := io.CopyBuffer(tmp, resp.Body, make([]byte, downloadChunkSize))
	if err != nil {
		cleanup()
		return "", errors.Newf("download failed after %d bytes: %w", written, err).
			Category(errors.CategoryDownload).
			NetworkContext(url, d.timeout).
			Component("strain").
			Build()
	}

	if err := tmp.Close(); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			logger.Warn("Failed to remove scratch file", "path", tmpPath, "error", rmErr)
		}
		return "", errors.Newf("failed to finalize scratch file: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(tmpPath, written).
			Component("strain").
			Build()
	}

	logger.Debug("download complete",
		"url", url,
		"bytes", written,
		"duration_ms", time.Since(start).Milliseconds())

	return tmpPath, nil
}

// Close releases the downloader's connection pool.
func (d *Downloader) Close() {
	d.client.Close()
}
