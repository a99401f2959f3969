package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestModelDownloader(t *testing.T) {
	t.Run("should download a missing model through a temp file", func(t *testing.T) {
		// Arrange
		var requested string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = r.URL.Path
			w.Write([]byte("ggml model bytes"))
		}))
		defer server.Close()

		modelsDir := filepath.Join(t.TempDir(), "models")
		downloader := NewModelDownloader(zaptest.NewLogger(t), modelsDir).WithBaseURL(server.URL + "/")

		// Act
		path, err := downloader.EnsureModel(context.Background(), "base.en")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "/ggml-base.en.bin", requested)
		assert.Equal(t, filepath.Join(modelsDir, "ggml-base.en.bin"), path)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "ggml model bytes", string(content))
		_, err = os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("should not download when model already exists", func(t *testing.T) {
		// Arrange
		modelsDir := t.TempDir()
		downloader := NewModelDownloader(zap.NewNop(), modelsDir).WithBaseURL("http://127.0.0.1:1")
		modelPath := downloader.ModelPath("small")
		require.NoError(t, os.WriteFile(modelPath, []byte("dummy model content"), 0644))

		// Act
		path, err := downloader.EnsureModel(context.Background(), "small")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, modelPath, path)
		content, err := os.ReadFile(modelPath)
		require.NoError(t, err)
		assert.Equal(t, "dummy model content", string(content))
	})

	t.Run("should report HTTP failures", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		downloader := NewModelDownloader(zap.NewNop(), t.TempDir()).WithBaseURL(server.URL)

		// Act
		_, err := downloader.EnsureModel(context.Background(), "tiny")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("should refuse unknown model names", func(t *testing.T) {
		// Arrange
		downloader := NewModelDownloader(zap.NewNop(), t.TempDir())

		// Act
		_, err := downloader.EnsureModel(context.Background(), "invalid-model-name")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown whisper model")
	})

	t.Run("should describe the known models", func(t *testing.T) {
		downloader := NewModelDownloader(zap.NewNop(), t.TempDir())

		assert.Contains(t, downloader.AvailableModels(), "small")
		assert.Contains(t, downloader.AvailableModels(), "large-v3")
		assert.True(t, downloader.IsValidModelName("BASE.EN"))
		assert.Equal(t, "142 MB", downloader.ModelSize("base"))
		assert.Equal(t, "unknown", downloader.ModelSize("nope"))
	})
}
