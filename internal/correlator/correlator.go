// Package correlator fuses acoustic peaks with semantic events into correlated moments.
package correlator

import (
	"go.uber.org/zap"

	"footech/internal/acoustic"
	"footech/internal/semantic"
)

// DefaultTolerance is the allowed offset in seconds between an acoustic peak and a semantic event
const DefaultTolerance = 12.0

// Event is a moment where an acoustic peak and a semantic event agree
type Event struct {
	Center float64 `json:"center"`
}

// Correlate matches each acoustic event, in order, against the first semantic event whose
// span widened by tolerance contains it. The emitted center is the semantic midpoint.
// Unmatched acoustic events produce nothing.
func Correlate(acousticEvents []acoustic.Event, semanticEvents []semantic.Event, tolerance float64) []Event {
	correlated := make([]Event, 0, len(acousticEvents))
	for _, a := range acousticEvents {
		if s, ok := firstMatch(a.Timestamp, semanticEvents, tolerance); ok {
			correlated = append(correlated, Event{Center: (s.Start + s.End) / 2})
		}
	}
	return correlated
}

func firstMatch(ts float64, semanticEvents []semantic.Event, tolerance float64) (semantic.Event, bool) {
	for _, s := range semanticEvents {
		if s.Start-tolerance <= ts && ts <= s.End+tolerance {
			return s, true
		}
	}
	return semantic.Event{}, false
}

// Correlator runs Correlate with a fixed tolerance and logs the outcome
type Correlator struct {
	tolerance float64
	logger    *zap.Logger
}

// NewCorrelator creates a Correlator with a no-op logger
func NewCorrelator(tolerance float64) *Correlator {
	return NewCorrelatorWithLogger(tolerance, zap.NewNop())
}

// NewCorrelatorWithLogger creates a Correlator with a custom logger
func NewCorrelatorWithLogger(tolerance float64, logger *zap.Logger) *Correlator {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Correlator{tolerance: tolerance, logger: logger}
}

// Tolerance returns the matching tolerance in seconds
func (c *Correlator) Tolerance() float64 {
	return c.tolerance
}

// Correlate matches acoustic events against semantic events
func (c *Correlator) Correlate(acousticEvents []acoustic.Event, semanticEvents []semantic.Event) []Event {
	correlated := Correlate(acousticEvents, semanticEvents, c.tolerance)

	for _, e := range correlated {
		c.logger.Debug("correlated event", zap.Float64("center", e.Center))
	}
	c.logger.Info("correlation complete",
		zap.Int("acoustic_events", len(acousticEvents)),
		zap.Int("semantic_events", len(semanticEvents)),
		zap.Int("correlated_events", len(correlated)),
		zap.Float64("tolerance", c.tolerance))
	return correlated
}
