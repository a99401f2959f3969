package media

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// DefaultSampleRate is the rate whisper.cpp expects
const DefaultSampleRate = 16000

// ExtractAudio writes the audio track of video as mono 16-bit PCM WAV at sampleRate
func (e *Executor) ExtractAudio(ctx context.Context, video, wavPath string, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	e.logger.Info("extracting audio",
		zap.String("input", video),
		zap.String("output", wavPath),
		zap.Int("sample_rate", sampleRate))

	err := e.ffmpeg(ctx,
		"-i", video,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		wavPath)
	if err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}
