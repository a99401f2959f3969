package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://cdn.example.com/match.mp4"))
	assert.True(t, IsRemote("http://localhost:8080/match"))
	assert.False(t, IsRemote("/data/match.mp4"))
	assert.False(t, IsRemote("match.mp4"))
	assert.False(t, IsRemote("ftp://example.com/match.mp4"))
}

func TestFileNameFor(t *testing.T) {
	assert.Equal(t, "match.mp4", fileNameFor("https://cdn.example.com/videos/match.mp4?token=abc"))
	assert.Equal(t, "final.mp4", fileNameFor("https://cdn.example.com/final"))
	assert.Equal(t, defaultFileName, fileNameFor("https://cdn.example.com/"))
}

func TestDownloader_FetchWithRetry(t *testing.T) {
	t.Run("should download into the working directory", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("video bytes"))
		}))
		defer server.Close()
		dir := t.TempDir()
		downloader := NewDownloaderWithLogger(dir, zaptest.NewLogger(t)).WithRetry(3, 1)

		// Act
		dest, err := downloader.FetchWithRetry(context.Background(), server.URL+"/match.mp4")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "match.mp4"), dest)
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "video bytes", string(data))
		assert.NoFileExists(t, dest+".part")
	})

	t.Run("should retry transient failures", func(t *testing.T) {
		// Arrange
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("ok"))
		}))
		defer server.Close()
		core, logs := observer.New(zap.WarnLevel)
		downloader := NewDownloaderWithLogger(t.TempDir(), zap.New(core)).WithRetry(5, 1)

		// Act
		_, err := downloader.FetchWithRetry(context.Background(), server.URL+"/match.mp4")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
		assert.Equal(t, 2, logs.FilterMessage("download attempt failed").Len())
	})

	t.Run("should not retry client errors", func(t *testing.T) {
		// Arrange
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		downloader := NewDownloader(t.TempDir()).WithRetry(5, 1)

		// Act
		_, err := downloader.FetchWithRetry(context.Background(), server.URL+"/missing.mp4")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("should give up after the retry budget", func(t *testing.T) {
		// Arrange
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()
		downloader := NewDownloader(t.TempDir()).WithRetry(3, 1)

		// Act
		_, err := downloader.FetchWithRetry(context.Background(), server.URL+"/match.mp4")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maximum retry attempts exceeded after 3 failures")
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("should stop waiting when cancelled", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		downloader := NewDownloader(t.TempDir()).WithRetry(5, 60000)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		// Act
		started := time.Now()
		_, err := downloader.FetchWithRetry(ctx, server.URL+"/match.mp4")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(started), 5*time.Second)
	})
}

func TestDownloader_Resolve(t *testing.T) {
	t.Run("should pass local files through", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "match.mp4")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		resolved, err := NewDownloader(t.TempDir()).Resolve(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, path, resolved)
	})

	t.Run("should fail for a missing local file", func(t *testing.T) {
		_, err := NewDownloader(t.TempDir()).Resolve(context.Background(), "/no/such/match.mp4")

		assert.Error(t, err)
	})
}
