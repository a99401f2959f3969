package transcriber

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Transcriber produces commentary segments for an audio file
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

var timestampedLine = regexp.MustCompile(`^\[\s*([0-9]*\.?[0-9]+)\s*s?\s*-\s*([0-9]*\.?[0-9]+)\s*s?\s*\]\s*:?\s*(.*)$`)

// LoadTranscript reads a transcript file. JSON arrays of segments, whisper.cpp JSON
// output and "[12.00s - 15.00s]: text" lines are accepted; entries that cannot be
// decoded are skipped with a warning.
func LoadTranscript(path string, logger *zap.Logger) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	return ParseTranscript(data, logger)
}

// ParseTranscript decodes transcript bytes in any of the formats LoadTranscript accepts
func ParseTranscript(data []byte, logger *zap.Logger) ([]Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Segment{}, nil
	}

	switch trimmed[0] {
	case '[':
		if segments, ok := parseSegmentArray(trimmed, logger); ok {
			return segments, nil
		}
	case '{':
		return parseWhisperJSON(trimmed)
	}
	return parseTimestampedLines(trimmed, logger)
}

// parseSegmentArray decodes entries one at a time so a single bad entry does not sink the file
func parseSegmentArray(data []byte, logger *zap.Logger) ([]Segment, bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}

	segments := make([]Segment, 0, len(entries))
	for i, entry := range entries {
		var segment Segment
		if err := json.Unmarshal(entry, &segment); err != nil {
			logger.Warn("skipping undecodable transcript entry",
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		segments = append(segments, segment)
	}
	return segments, true
}

func parseTimestampedLines(data []byte, logger *zap.Logger) ([]Segment, error) {
	var segments []Segment
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		match := timestampedLine.FindStringSubmatch(text)
		if match == nil {
			logger.Warn("skipping transcript line without timestamps", zap.Int("line", line))
			continue
		}
		start, err := ParseSeconds(match[1])
		if err != nil {
			logger.Warn("skipping transcript line", zap.Int("line", line), zap.Error(err))
			continue
		}
		end, err := ParseSeconds(match[2])
		if err != nil {
			logger.Warn("skipping transcript line", zap.Int("line", line), zap.Error(err))
			continue
		}
		segments = append(segments, Segment{Start: start, End: end, Text: strings.TrimSpace(match[3])})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan transcript: %w", err)
	}
	return segments, nil
}

// FileTranscriber serves a transcript that already exists on disk
type FileTranscriber struct {
	path   string
	logger *zap.Logger
}

// NewFileTranscriber creates a FileTranscriber with a no-op logger
func NewFileTranscriber(path string) *FileTranscriber {
	return NewFileTranscriberWithLogger(path, zap.NewNop())
}

// NewFileTranscriberWithLogger creates a FileTranscriber with a custom logger
func NewFileTranscriberWithLogger(path string, logger *zap.Logger) *FileTranscriber {
	return &FileTranscriber{path: path, logger: logger}
}

// Transcribe ignores the audio and returns the segments of the configured file
func (f *FileTranscriber) Transcribe(ctx context.Context, _ string) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segments, err := LoadTranscript(f.path, f.logger)
	if err != nil {
		return nil, err
	}
	f.logger.Info("transcript loaded from file",
		zap.String("path", f.path),
		zap.Int("segments", len(segments)))
	return segments, nil
}
