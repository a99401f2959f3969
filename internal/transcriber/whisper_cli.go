package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// WhisperCLI transcribes audio by running the whisper.cpp command-line tool with JSON output
type WhisperCLI struct {
	binary    string
	modelPath string
	language  string
	useGPU    bool
	workDir   string
	logger    *zap.Logger
	run       commandRunner
}

// WhisperOptions configures a WhisperCLI
type WhisperOptions struct {
	Binary    string
	ModelPath string
	Language  string
	UseGPU    bool
	WorkDir   string
}

// NewWhisperCLI creates a WhisperCLI with a no-op logger
func NewWhisperCLI(opts WhisperOptions) *WhisperCLI {
	return NewWhisperCLIWithLogger(opts, zap.NewNop())
}

// NewWhisperCLIWithLogger creates a WhisperCLI with a custom logger
func NewWhisperCLIWithLogger(opts WhisperOptions, logger *zap.Logger) *WhisperCLI {
	binary := opts.Binary
	if binary == "" {
		binary = "whisper-cli"
	}
	return &WhisperCLI{
		binary:    binary,
		modelPath: opts.ModelPath,
		language:  opts.Language,
		useGPU:    opts.UseGPU,
		workDir:   opts.WorkDir,
		logger:    logger,
		run:       runCommand,
	}
}

// Args returns the command-line arguments used for audioPath and the JSON output prefix
func (w *WhisperCLI) Args(audioPath, outputPrefix string) []string {
	args := []string{
		"-m", w.modelPath,
		"-f", audioPath,
		"-oj",
		"-of", outputPrefix,
	}
	if w.language != "" {
		args = append(args, "-l", w.language)
	}
	if !w.useGPU {
		args = append(args, "-ng")
	}
	return args
}

// Transcribe runs whisper.cpp on a 16 kHz mono WAV file and returns its segments
func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	workDir := w.workDir
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	prefix := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)))

	w.logger.Info("starting whisper transcription",
		zap.String("audio", audioPath),
		zap.String("model", w.modelPath),
		zap.Bool("gpu", w.useGPU))

	started := time.Now()
	if output, err := w.run(ctx, w.binary, w.Args(audioPath, prefix)...); err != nil {
		w.logger.Error("whisper transcription failed",
			zap.String("output", tail(string(output), 2000)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to run %s: %w", w.binary, err)
	}

	data, err := os.ReadFile(prefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}
	segments, err := parseWhisperJSON(data)
	if err != nil {
		return nil, err
	}

	w.logger.Info("whisper transcription completed",
		zap.Int("segments", len(segments)),
		zap.Duration("elapsed", time.Since(started)))
	return segments, nil
}

type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper.cpp -oj output, whose offsets are milliseconds
func parseWhisperJSON(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode whisper output: %w", err)
	}
	segments := make([]Segment, 0, len(out.Transcription))
	for _, item := range out.Transcription {
		segments = append(segments, Segment{
			Start: float64(item.Offsets.From) / 1000,
			End:   float64(item.Offsets.To) / 1000,
			Text:  strings.TrimSpace(item.Text),
		})
	}
	return segments, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
