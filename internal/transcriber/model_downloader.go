package transcriber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultModelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// knownModels lists the ggml whisper models and their approximate sizes
var knownModels = []struct {
	name string
	size string
}{
	{"tiny.en", "39 MB"},
	{"tiny", "39 MB"},
	{"base.en", "142 MB"},
	{"base", "142 MB"},
	{"small.en", "466 MB"},
	{"small", "466 MB"},
	{"medium.en", "1.5 GB"},
	{"medium", "1.5 GB"},
	{"large-v2", "2.9 GB"},
	{"large-v3", "2.9 GB"},
	{"large-v3-turbo", "1.6 GB"},
}

// ModelDownloader fetches ggml whisper models into a local directory
type ModelDownloader struct {
	logger      *zap.Logger
	modelsDir   string
	client      *http.Client
	baseURL     string
	logInterval time.Duration
}

// NewModelDownloader creates a new model downloader instance
func NewModelDownloader(logger *zap.Logger, modelsDir string) *ModelDownloader {
	return &ModelDownloader{
		logger:      logger,
		modelsDir:   modelsDir,
		client:      &http.Client{Timeout: 30 * time.Minute},
		baseURL:     defaultModelBaseURL,
		logInterval: 10 * time.Second,
	}
}

// WithBaseURL points the downloader at a different model host
func (d *ModelDownloader) WithBaseURL(baseURL string) *ModelDownloader {
	d.baseURL = strings.TrimSuffix(baseURL, "/")
	return d
}

// AvailableModels returns the names of the known whisper models
func (d *ModelDownloader) AvailableModels() []string {
	names := make([]string, 0, len(knownModels))
	for _, m := range knownModels {
		names = append(names, m.name)
	}
	return names
}

// ModelSize returns the approximate download size of a model, or "unknown"
func (d *ModelDownloader) ModelSize(modelName string) string {
	for _, m := range knownModels {
		if strings.EqualFold(m.name, modelName) {
			return m.size
		}
	}
	return "unknown"
}

// IsValidModelName checks if a model name is in the list of known models
func (d *ModelDownloader) IsValidModelName(modelName string) bool {
	for _, m := range knownModels {
		if strings.EqualFold(m.name, modelName) {
			return true
		}
	}
	return false
}

// ModelPath returns the local path of a model
func (d *ModelDownloader) ModelPath(modelName string) string {
	return filepath.Join(d.modelsDir, fmt.Sprintf("ggml-%s.bin", modelName))
}

// EnsureModel returns the local path of modelName, downloading it first when missing
func (d *ModelDownloader) EnsureModel(ctx context.Context, modelName string) (string, error) {
	modelPath := d.ModelPath(modelName)
	if _, err := os.Stat(modelPath); err == nil {
		d.logger.Debug("model already present",
			zap.String("model", modelName),
			zap.String("path", modelPath))
		return modelPath, nil
	}

	if !d.IsValidModelName(modelName) {
		return "", fmt.Errorf("unknown whisper model %q", modelName)
	}

	if err := os.MkdirAll(d.modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	if err := d.download(ctx, modelName, modelPath); err != nil {
		return "", err
	}
	return modelPath, nil
}

// download streams the model into a temporary file and renames it into place
func (d *ModelDownloader) download(ctx context.Context, modelName, modelPath string) error {
	url := fmt.Sprintf("%s/ggml-%s.bin", d.baseURL, modelName)
	d.logger.Info("downloading whisper model",
		zap.String("model", modelName),
		zap.String("size", d.ModelSize(modelName)),
		zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", "footech (Go HTTP Client)")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	tempFile := modelPath + ".tmp"
	defer os.Remove(tempFile)

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	progress := &progressWriter{
		logger:   d.logger.With(zap.String("model", modelName)),
		total:    resp.ContentLength,
		interval: d.logInterval,
		last:     time.Now(),
	}
	written, err := io.Copy(io.MultiWriter(out, progress), resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to download model data: %w", err)
	}

	if err := os.Rename(tempFile, modelPath); err != nil {
		return fmt.Errorf("failed to move downloaded model to final location: %w", err)
	}

	d.logger.Info("model download completed",
		zap.String("model", modelName),
		zap.String("path", modelPath),
		zap.Int64("bytes", written))
	return nil
}

// progressWriter logs download progress at most once per interval
type progressWriter struct {
	logger   *zap.Logger
	total    int64
	written  int64
	interval time.Duration
	last     time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if now := time.Now(); now.Sub(p.last) >= p.interval {
		fields := []zap.Field{zap.Int64("downloaded", p.written)}
		if p.total > 0 {
			fields = append(fields,
				zap.Int64("total", p.total),
				zap.Float64("percentage", float64(p.written)/float64(p.total)*100))
		}
		p.logger.Info("download progress", fields...)
		p.last = now
	}
	return len(b), nil
}
