// Package media wraps ffmpeg and ffprobe for probing, audio extraction, trimming and concatenation.
package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// commandRunner runs a binary and returns its stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Executor runs ffmpeg and ffprobe subprocesses
type Executor struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
	run         commandRunner
}

// NewExecutor creates an Executor with a no-op logger
func NewExecutor(ffmpegPath, ffprobePath string) *Executor {
	return NewExecutorWithLogger(ffmpegPath, ffprobePath, zap.NewNop())
}

// NewExecutorWithLogger creates an Executor with a custom logger
func NewExecutorWithLogger(ffmpegPath, ffprobePath string, logger *zap.Logger) *Executor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	e := &Executor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
	}
	e.run = e.runCommand
	return e
}

// ffmpeg runs ffmpeg with overwrite and quiet banner flags prepended
func (e *Executor) ffmpeg(ctx context.Context, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	e.logger.Debug("executing ffmpeg", zap.Strings("args", full))
	if _, err := e.run(ctx, e.ffmpegPath, full...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// runCommand starts the process, drains stderr into the log and returns stdout
func (e *Executor) runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	// stderr must be drained before Wait closes the pipe
	lastLine := e.handleStderr(name, stderr)

	if err := cmd.Wait(); err != nil {
		if lastLine != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, lastLine)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// handleStderr logs each stderr line, as a warning when it looks like an error, and returns the last one
func (e *Executor) handleStderr(name string, r io.Reader) string {
	var last string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		last = line
		if containsFFmpegError(line) {
			e.logger.Warn("subprocess stderr", zap.String("cmd", name), zap.String("output", line))
		} else {
			e.logger.Debug("subprocess stderr", zap.String("cmd", name), zap.String("output", line))
		}
	}
	return last
}

var errorIndicators = []string{
	"Error",
	"Invalid data",
	"No such file",
	"Permission denied",
	"does not contain any stream",
	"Unknown encoder",
}

// containsFFmpegError checks if stderr output contains actual errors vs info
func containsFFmpegError(output string) bool {
	for _, indicator := range errorIndicators {
		if strings.Contains(output, indicator) {
			return true
		}
	}
	return false
}
