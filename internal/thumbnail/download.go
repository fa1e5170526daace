package thumbnail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultDownloadTimeout = 2 * time.Minute

// HTTPDownloader fetches remote videos over HTTP
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader with a bounded request timeout
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &HTTPDownloader{
		client: &http.Client{Timeout: timeout},
	}
}

// Download streams the response body to destPath
func (d *HTTPDownloader) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid video url: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write video file: %w", err)
	}
	return f.Close()
}
