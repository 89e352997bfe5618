package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bagait/capcheck/internal/model"
)

// SampleImageName is the filename of the bundled sample image inside the
// assets directory.
const SampleImageName = "dogs.jpg"

// SamplePath returns the on-disk path of the sample image for an assets dir.
func SamplePath(dir string) string {
	return filepath.Join(dir, SampleImageName)
}

// Fetcher downloads fixed assets (sample image, detector weights) on first
// run. Downloads are idempotent: an existing file is left untouched.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewFetcher creates a fetcher with the given per-download timeout and size cap.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Ensure downloads url to destPath unless the file already exists.
func (f *Fetcher) Ensure(ctx context.Context, url, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download %s: %v", model.ErrNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: download %s: unexpected status %d", model.ErrNetwork, url, resp.StatusCode)
	}

	// Stream to a temp file, then rename, so an interrupted download never
	// leaves a half-written asset that would short-circuit the next Ensure.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Read one byte past the cap so an oversized body fails instead of being
	// silently truncated and installed as a valid-looking asset.
	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	written, err := io.Copy(tmp, reader)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: download %s: %v", model.ErrNetwork, url, err)
	}
	if f.maxBytes > 0 && written > f.maxBytes {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: download %s: response exceeds %d byte limit", model.ErrNetwork, url, f.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move asset into place: %w", err)
	}

	return nil
}

// EnsureSampleImage downloads the bundled sample image if absent and
// returns its path.
func (f *Fetcher) EnsureSampleImage(ctx context.Context, cfg model.AssetsConfig) (string, error) {
	path := SamplePath(cfg.Dir)
	if err := f.Ensure(ctx, cfg.SampleImageURL, path); err != nil {
		return "", err
	}
	return path, nil
}

// EnsureDetectorModel downloads the detector weights and network config if
// absent.
func (f *Fetcher) EnsureDetectorModel(ctx context.Context, assets model.AssetsConfig, detector model.DetectorConfig) error {
	if err := f.Ensure(ctx, assets.WeightsURL, detector.WeightsPath); err != nil {
		return err
	}
	return f.Ensure(ctx, assets.ConfigURL, detector.ConfigPath)
}
