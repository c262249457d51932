package pdftext

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Downloader fetches source PDFs over HTTP and caches them on disk keyed by
// the URL's trailing filename. A cached file is reused as-is; the published
// budget documents are immutable once posted.
type Downloader struct {
	cacheDir string
	client   *http.Client
}

// NewDownloader creates a Downloader caching into cacheDir.
func NewDownloader(cacheDir string) *Downloader {
	return &Downloader{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Fetch returns the local path of the PDF at rawURL, downloading it on a
// cache miss.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "pdftext: parse url %s", rawURL)
	}
	filename := filepath.Base(u.Path)
	cachePath := filepath.Join(d.cacheDir, filename)

	if _, statErr := os.Stat(cachePath); statErr == nil {
		zap.L().Debug("pdf cache hit", zap.String("file", filename))
		return cachePath, nil
	}

	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return "", eris.Wrap(err, "pdftext: create cache dir")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "pdftext: build request")
	}

	zap.L().Info("downloading pdf", zap.String("url", rawURL))
	resp, err := d.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "pdftext: download %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("pdftext: download %s returned status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.cacheDir, filename+".part*")
	if err != nil {
		return "", eris.Wrap(err, "pdftext: create temp file")
	}
	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", eris.Wrapf(err, "pdftext: write %s", cachePath)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return "", eris.Wrap(err, "pdftext: move into cache")
	}

	zap.L().Info("pdf downloaded",
		zap.String("file", filename),
		zap.Int64("bytes", size),
	)
	return cachePath, nil
}
