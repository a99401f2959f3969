package acoustic

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// IntensityExtractor computes a per-hop RMS loudness series from PCM WAV audio
type IntensityExtractor struct {
	hopSeconds float64
	logger     *zap.Logger
}

// NewIntensityExtractor creates an extractor with a no-op logger
func NewIntensityExtractor(hopSeconds float64) *IntensityExtractor {
	return NewIntensityExtractorWithLogger(hopSeconds, zap.NewNop())
}

// NewIntensityExtractorWithLogger creates an extractor with a custom logger
func NewIntensityExtractorWithLogger(hopSeconds float64, logger *zap.Logger) *IntensityExtractor {
	return &IntensityExtractor{hopSeconds: hopSeconds, logger: logger}
}

// Frames reads the WAV file at audioPath and returns its loudness series
func (e *IntensityExtractor) Frames(ctx context.Context, audioPath string) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	frames, err := e.FramesFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to extract intensity from %s: %w", audioPath, err)
	}
	return frames, nil
}

// FramesFromReader decodes a WAV stream, mixes it down to mono and emits one RMS frame per hop
func (e *IntensityExtractor) FramesFromReader(r io.ReadSeeker) ([]Frame, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("WAV file has no usable format")
	}

	mono := mixDown(buf)
	sampleRate := buf.Format.SampleRate
	hop := int(math.Round(e.hopSeconds * float64(sampleRate)))
	if hop < 1 {
		hop = 1
	}

	count := (len(mono) + hop - 1) / hop
	frames := make([]Frame, 0, count)
	for i := 0; i < count; i++ {
		start := i * hop
		end := start + hop
		if end > len(mono) {
			end = len(mono)
		}
		frames = append(frames, Frame{
			Time:      float64(start) / float64(sampleRate),
			Intensity: rms(mono[start:end]),
		})
	}

	e.logger.Debug("intensity frames extracted",
		zap.Int("sample_rate", sampleRate),
		zap.Int("channels", buf.Format.NumChannels),
		zap.Int("bit_depth", buf.SourceBitDepth),
		zap.Int("hop_samples", hop),
		zap.Int("frames", len(frames)))

	return frames, nil
}

// mixDown averages interleaved channels and scales samples to [-1, 1]
func mixDown(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned
		offset = 128
	}

	mono := make([]float64, len(buf.Data)/channels)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c] - offset)
		}
		mono[i] = sum / float64(channels) / scale
	}
	return mono
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sq float64
	for _, s := range samples {
		sq += s * s
	}
	return math.Sqrt(sq / float64(len(samples)))
}
