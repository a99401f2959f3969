package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"footech/internal/clips"
)

// ErrNoClipsExtracted is returned when every window failed to trim
var ErrNoClipsExtracted = errors.New("no clips could be extracted")

// clipCutter is the part of Executor the Assembler needs
type clipCutter interface {
	TrimClip(ctx context.Context, input string, start, duration float64, output string, opts TrimOptions) error
	Concat(ctx context.Context, inputs []string, output string) error
}

// AssemblerOptions configures clip extraction and cleanup
type AssemblerOptions struct {
	// WorkDir holds per-window clips; defaults to the destination directory
	WorkDir    string
	VideoCodec string
	AudioCodec string
	KeepClips  bool
}

// AssemblyResult describes the produced highlight
type AssemblyResult struct {
	Output string         `json:"output,omitempty"`
	Clips  []string       `json:"clips,omitempty"`
	Failed []clips.Window `json:"failed,omitempty"`
}

// Assembler cuts one clip per window and concatenates them in window order
type Assembler struct {
	cutter clipCutter
	opts   AssemblerOptions
	logger *zap.Logger
}

// NewAssembler creates an Assembler with a no-op logger
func NewAssembler(executor *Executor, opts AssemblerOptions) *Assembler {
	return NewAssemblerWithLogger(executor, opts, zap.NewNop())
}

// NewAssemblerWithLogger creates an Assembler with a custom logger
func NewAssemblerWithLogger(executor *Executor, opts AssemblerOptions, logger *zap.Logger) *Assembler {
	return &Assembler{cutter: executor, opts: opts, logger: logger}
}

// Assemble extracts every window from source and joins the clips into destination.
// A window that fails to trim is logged and skipped. No windows means no output.
func (a *Assembler) Assemble(ctx context.Context, source string, windows []clips.Window, destination string) (AssemblyResult, error) {
	var result AssemblyResult
	if len(windows) == 0 {
		a.logger.Info("no clip windows, skipping assembly", zap.String("source", source))
		return result, nil
	}

	workDir := a.opts.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(destination)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create clip directory: %w", err)
	}

	trimOpts := TrimOptions{VideoCodec: a.opts.VideoCodec, AudioCodec: a.opts.AudioCodec}
	for i, w := range windows {
		clipPath := filepath.Join(workDir, w.Name(i+1))
		if err := a.cutter.TrimClip(ctx, source, w.Start, w.Duration(), clipPath, trimOpts); err != nil {
			if ctx.Err() != nil {
				a.cleanup(result.Clips)
				return AssemblyResult{}, ctx.Err()
			}
			a.logger.Error("failed to extract clip, skipping",
				zap.Int("clip", i+1),
				zap.Float64("start", w.Start),
				zap.Float64("end", w.End),
				zap.Error(err))
			result.Failed = append(result.Failed, w)
			continue
		}
		result.Clips = append(result.Clips, clipPath)
	}

	if len(result.Clips) == 0 {
		return result, ErrNoClipsExtracted
	}

	if err := a.cutter.Concat(ctx, result.Clips, destination); err != nil {
		if !a.opts.KeepClips {
			a.cleanup(result.Clips)
			result.Clips = nil
		}
		return result, fmt.Errorf("failed to concatenate clips: %w", err)
	}
	result.Output = destination

	if !a.opts.KeepClips {
		a.cleanup(result.Clips)
		result.Clips = nil
	}

	a.logger.Info("highlight assembled",
		zap.String("output", destination),
		zap.Int("windows", len(windows)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (a *Assembler) cleanup(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove intermediate clip", zap.String("path", p), zap.Error(err))
		}
	}
}
