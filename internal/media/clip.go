package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// TrimOptions selects the encoders used when cutting a clip
type TrimOptions struct {
	VideoCodec string
	AudioCodec string
}

// TrimClip re-encodes duration seconds of input starting at start into output
func (e *Executor) TrimClip(ctx context.Context, input string, start, duration float64, output string, opts TrimOptions) error {
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration %v", duration)
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "aac"
	}

	e.logger.Info("extracting clip",
		zap.String("input", input),
		zap.String("output", output),
		zap.Float64("start", start),
		zap.Float64("duration", duration),
		zap.String("video_codec", opts.VideoCodec))

	err := e.ffmpeg(ctx,
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(duration),
		"-c:v", opts.VideoCodec,
		"-c:a", opts.AudioCodec,
		output)
	if err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}
	return nil
}

// Concat joins inputs in order into output without re-encoding
func (e *Executor) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	listFile, err := writeConcatList(filepath.Dir(output), inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(listFile)

	e.logger.Info("concatenating clips",
		zap.Int("inputs", len(inputs)),
		zap.String("output", output))

	if err := e.ffmpeg(ctx, "-f", "concat", "-safe", "0", "-i", listFile, "-c", "copy", output); err != nil {
		return fmt.Errorf("concatenation failed: %w", err)
	}
	return nil
}

// writeConcatList writes an ffmpeg concat demuxer list of absolute paths
func writeConcatList(dir string, inputs []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			os.Remove(f.Name())
			return "", err
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapeConcatPath(abs)); err != nil {
			os.Remove(f.Name())
			return "", err
		}
	}
	return f.Name(), nil
}

// escapeConcatPath quotes single quotes the way the concat demuxer expects
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
