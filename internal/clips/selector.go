// Package clips turns correlated moments into fixed-length, non-overlapping clip windows.
package clips

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"footech/internal/correlator"
)

// DefaultDuration is the fixed clip length in seconds
const DefaultDuration = 20.0

// Window is a time range to cut from the source media
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the window length in seconds
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Name returns the file name used for the n-th extracted clip, counted from 1
func (w Window) Name(n int) string {
	return fmt.Sprintf("goal_clip_%d_%.2f-%.2f.mp4", n, w.Start, w.End)
}

// Bounds describes the media duration, which may be unknown
type Bounds struct {
	Duration float64 `json:"duration"`
	Known    bool    `json:"known"`
}

// KnownDuration returns bounds for media of the given length
func KnownDuration(seconds float64) Bounds {
	return Bounds{Duration: seconds, Known: true}
}

// UnknownDuration returns bounds for media whose length could not be determined
func UnknownDuration() Bounds {
	return Bounds{}
}

// Result carries the selected windows
type Result struct {
	Windows []Window `json:"windows"`
	// Degraded is set when windows could not be clamped to the end of the media
	Degraded bool `json:"degraded"`
	Dropped  int  `json:"dropped"`
}

// Selector builds clip windows of a fixed duration
type Selector struct {
	duration float64
	logger   *zap.Logger
}

// NewSelector creates a Selector with a no-op logger
func NewSelector(duration float64) *Selector {
	return NewSelectorWithLogger(duration, zap.NewNop())
}

// NewSelectorWithLogger creates a Selector with a custom logger
func NewSelectorWithLogger(duration float64, logger *zap.Logger) *Selector {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Selector{duration: duration, logger: logger}
}

// Duration returns the clip length in seconds
func (s *Selector) Duration() float64 {
	return s.duration
}

// Select converts correlated events, in order, into windows centred on each event.
// Windows start no earlier than 0 and, when the media length is known, end no later
// than it. A window starting before the end of the last kept window is dropped.
func (s *Selector) Select(events []correlator.Event, bounds Bounds) Result {
	result := Result{
		Windows:  make([]Window, 0, len(events)),
		Degraded: !bounds.Known,
	}
	if !bounds.Known && len(events) > 0 {
		s.logger.Warn("media duration unknown, clip windows are not clamped to the end of the media")
	}

	lastEnd := -1.0
	for _, e := range events {
		w := s.window(e.Center, bounds)
		if w.Start < lastEnd {
			result.Dropped++
			s.logger.Debug("dropping overlapping clip window",
				zap.Float64("start", w.Start),
				zap.Float64("end", w.End),
				zap.Float64("last_end", lastEnd))
			continue
		}
		result.Windows = append(result.Windows, w)
		lastEnd = w.End
	}

	s.logger.Info("clip selection complete",
		zap.Int("correlated_events", len(events)),
		zap.Int("windows", len(result.Windows)),
		zap.Int("dropped", result.Dropped),
		zap.Bool("degraded", result.Degraded))
	return result
}

func (s *Selector) window(center float64, bounds Bounds) Window {
	start := math.Max(center-s.duration/2, 0)
	end := start + s.duration
	if bounds.Known && end > bounds.Duration {
		start = math.Max(bounds.Duration-s.duration, 0)
		end = start + s.duration
	}
	return Window{Start: start, End: end}
}
