// Package fetch downloads remote images into a local cache so the rest
// of the tool only ever sees file paths.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spectral-tools/paleta/internal/version"
)

// DefaultTimeout bounds a single image download.
const DefaultTimeout = 30 * time.Second

// Options configures remote image fetching.
type Options struct {
	// CacheDir is where downloaded images are stored. Empty means
	// ~/.cache/paleta/images.
	CacheDir string

	// Timeout bounds the download. Zero means DefaultTimeout.
	Timeout time.Duration

	// Overwrite re-downloads even when a cached copy exists.
	Overwrite bool
}

// IsRemote reports whether s is an http(s) URL rather than a file path.
func IsRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DefaultCacheDir returns the directory used for cached downloads.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "paleta", "images"), nil
	}
	return filepath.Join(cacheDir, "paleta", "images"), nil
}

// CachedImage downloads url into the cache and returns the local path.
// An already-cached image is reused without touching the network.
func CachedImage(ctx context.Context, url string, opts Options) (string, error) {
	if !IsRemote(url) {
		return "", fmt.Errorf("not a remote URL: %s", url)
	}

	dir := opts.CacheDir
	if dir == "" {
		var err error
		dir, err = DefaultCacheDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, cacheFilename(url))
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	data, err := download(ctx, url, opts.Timeout)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - cached images need standard read permissions
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	return path, nil
}

// cacheFilename derives a deterministic filename from the URL: a hash
// plus the URL's extension, so the image decoder can sniff by suffix too.
func cacheFilename(url string) string {
	hash := sha256.Sum256([]byte(url))
	name := fmt.Sprintf("%x", hash[:16])

	ext := filepath.Ext(url)
	if idx := strings.IndexByte(ext, '?'); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	return name + ext
}

func download(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "paleta/"+version.Version)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
