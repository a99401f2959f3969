package transcriber

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestParseTranscript(t *testing.T) {
	logger := zap.NewNop()

	t.Run("should parse a JSON array and skip undecodable entries", func(t *testing.T) {
		// Arrange
		data := `[
			{"start": 1.0, "end": 3.5, "text": "Corner kick."},
			{"start": "oops", "end": 4, "text": "bad"},
			{"start": "10.00s", "end": "12.00s", "sentence": "Goal!"}
		]`

		// Act
		segments, err := ParseTranscript([]byte(data), logger)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []Segment{
			{Start: 1, End: 3.5, Text: "Corner kick."},
			{Start: 10, End: 12, Text: "Goal!"},
		}, segments)
	})

	t.Run("should parse bracketed timestamp lines", func(t *testing.T) {
		// Arrange
		data := "[12.00s - 15.00s]: He shoots and scores.\n\nnot a segment\n[20s - 22.5s]: Replay.\n"

		// Act
		segments, err := ParseTranscript([]byte(data), logger)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []Segment{
			{Start: 12, End: 15, Text: "He shoots and scores."},
			{Start: 20, End: 22.5, Text: "Replay."},
		}, segments)
	})

	t.Run("should parse whisper.cpp JSON output", func(t *testing.T) {
		// Arrange
		data := `{"transcription":[{"timestamps":{"from":"00:00:01,000","to":"00:00:02,500"},"offsets":{"from":1000,"to":2500},"text":" What a strike!"}]}`

		// Act
		segments, err := ParseTranscript([]byte(data), logger)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []Segment{{Start: 1, End: 2.5, Text: "What a strike!"}}, segments)
	})

	t.Run("should return no segments for an empty file", func(t *testing.T) {
		segments, err := ParseTranscript([]byte("  \n"), logger)

		require.NoError(t, err)
		assert.Empty(t, segments)
	})
}

func TestFileTranscriber(t *testing.T) {
	t.Run("should serve segments from the configured file", func(t *testing.T) {
		// Arrange
		path := filepath.Join(t.TempDir(), "transcript.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"start":90,"end":100,"text":"GOAL!"}]`), 0644))
		transcriber := NewFileTranscriberWithLogger(path, zaptest.NewLogger(t))

		// Act
		segments, err := transcriber.Transcribe(context.Background(), "ignored.wav")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []Segment{{Start: 90, End: 100, Text: "GOAL!"}}, segments)
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		// Act
		_, err := NewFileTranscriber(filepath.Join(t.TempDir(), "none.json")).Transcribe(context.Background(), "")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read transcript")
	})
}
