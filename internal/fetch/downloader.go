// Package fetch downloads remote source media into the local working directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultFileName = "source.mp4"

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Downloader fetches http(s) sources with exponential backoff between attempts
type Downloader struct {
	workDir       string
	client        *http.Client
	logger        *zap.Logger
	maxRetries    int
	baseBackoffMs int
}

// NewDownloader creates a Downloader with a no-op logger
func NewDownloader(workDir string) *Downloader {
	return NewDownloaderWithLogger(workDir, zap.NewNop())
}

// NewDownloaderWithLogger creates a Downloader with a custom logger
func NewDownloaderWithLogger(workDir string, logger *zap.Logger) *Downloader {
	return &Downloader{
		workDir:       workDir,
		client:        createDownloadHTTPClient(),
		logger:        logger,
		maxRetries:    5,
		baseBackoffMs: 1000,
	}
}

// WithRetry overrides the attempt budget and base backoff
func (d *Downloader) WithRetry(maxRetries, baseBackoffMs int) *Downloader {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseBackoffMs < 0 {
		baseBackoffMs = 0
	}
	d.maxRetries = maxRetries
	d.baseBackoffMs = baseBackoffMs
	return d
}

// createDownloadHTTPClient bounds connection setup but not the body transfer, which can be long
func createDownloadHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

// IsRemote reports whether source is an http or https URL
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve returns a local path for source, downloading it first when it is a URL
func (d *Downloader) Resolve(ctx context.Context, source string) (string, error) {
	if !IsRemote(source) {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("source media not accessible: %w", err)
		}
		return source, nil
	}
	return d.FetchWithRetry(ctx, source)
}

// FetchWithRetry downloads rawURL, retrying transient failures with exponential backoff
func (d *Downloader) FetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		d.logger.Info("attempting download",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt))

		dest, err := d.Fetch(ctx, rawURL)
		if err == nil {
			return dest, nil
		}
		lastErr = err

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("download cancelled: %w", ctx.Err())
		}

		d.logger.Warn("download attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == d.maxRetries {
			break
		}

		backoff := time.Duration(d.baseBackoffMs*(1<<(attempt-1))) * time.Millisecond
		d.logger.Info("waiting before retry",
			zap.Duration("backoff", backoff),
			zap.Int("next_attempt", attempt+1))

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("download cancelled: %w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
	}

	d.logger.Error("maximum download attempts exceeded",
		zap.String("url", rawURL),
		zap.Int("max_retries", d.maxRetries))
	return "", fmt.Errorf("maximum retry attempts exceeded after %d failures: %w", d.maxRetries, lastErr)
}

// Fetch makes a single download attempt into the working directory
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &permanentError{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", "footech (Go HTTP Client)")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("failed to download %s: status %d", rawURL, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", &permanentError{err}
		}
		return "", err
	}

	if err := os.MkdirAll(d.workDir, 0755); err != nil {
		return "", &permanentError{fmt.Errorf("failed to create download directory: %w", err)}
	}
	dest := filepath.Join(d.workDir, fileNameFor(rawURL))
	tmp := dest + ".part"
	defer os.Remove(tmp)

	out, err := os.Create(tmp)
	if err != nil {
		return "", &permanentError{fmt.Errorf("failed to create output file: %w", err)}
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write download: %w", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return "", fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	d.logger.Info("download completed",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", written))
	return dest, nil
}

// fileNameFor derives a local file name from the URL path
func fileNameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFileName
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" || strings.HasPrefix(name, ".") {
		return defaultFileName
	}
	if path.Ext(name) == "" {
		name += ".mp4"
	}
	return name
}
