package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ProbeDuration returns the container duration of path in seconds
func (e *Executor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, fmt.Errorf("file path is required")
	}
	out, err := e.run(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", raw, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %v", duration)
	}
	return duration, nil
}
