package acoustic

import (
	"math"

	"go.uber.org/zap"
)

// neighborFactor scales the threshold a neighbouring frame must exceed to keep a run alive
const neighborFactor = 0.8

// DetectorConfig holds the acoustic detection parameters, all in seconds except K
type DetectorConfig struct {
	TimeInterval  float64
	MinDuration   float64
	MinSeparation float64
	K             float64
}

// DefaultDetectorConfig returns the standard detection parameters
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		TimeInterval:  0.5,
		MinDuration:   2.0,
		MinSeparation: 10.0,
		K:             2.5,
	}
}

// Detector turns an intensity series into separated acoustic events
type Detector struct {
	config DetectorConfig
	logger *zap.Logger
}

// NewDetector creates a Detector with a no-op logger
func NewDetector(config DetectorConfig) *Detector {
	return NewDetectorWithLogger(config, zap.NewNop())
}

// NewDetectorWithLogger creates a Detector with a custom logger
func NewDetectorWithLogger(config DetectorConfig, logger *zap.Logger) *Detector {
	return &Detector{config: config, logger: logger}
}

// Detect scans the series at the configured interval and emits an event whenever
// enough consecutive samples are loud. A series with no positive intensity yields
// an empty result flagged NoSignal.
func (d *Detector) Detect(frames []Frame) Result {
	intensities := make([]float64, len(frames))
	for i, f := range frames {
		if f.Intensity > 0 && !math.IsNaN(f.Intensity) {
			intensities[i] = f.Intensity
		}
	}

	threshold, ok := DynamicThreshold(intensities, d.config.K)
	if !ok {
		d.logger.Warn("no positive intensity samples, skipping acoustic detection",
			zap.Int("frames", len(frames)))
		return Result{Events: []Event{}, NoSignal: true}
	}

	d.logger.Debug("dynamic threshold computed",
		zap.Float64("threshold", threshold.Value),
		zap.Float64("mean", threshold.Mean),
		zap.Float64("std_dev", threshold.StdDev),
		zap.Float64("ratio", threshold.Ratio),
		zap.Float64("percentile", threshold.Percentile))

	step := frameStep(frames, d.config.TimeInterval)
	stride := int(math.Max(1, math.Round(d.config.TimeInterval/step)))
	required := d.config.MinDuration / d.config.TimeInterval
	neighbor := neighborFactor * threshold.Value

	var candidates []Event
	run := 0
	runMax := 0.0
	for i := 0; i < len(frames); i += stride {
		v := intensities[i]
		high := v > threshold.Value ||
			(i > 0 && intensities[i-1] > neighbor) ||
			(i+1 < len(frames) && intensities[i+1] > neighbor)
		if !high {
			run = 0
			runMax = 0
			continue
		}

		run++
		runMax = math.Max(runMax, v)
		if float64(run) >= required {
			candidates = append(candidates, Event{
				Timestamp: math.RoundToEven(frames[i].Time),
				Intensity: math.Round(runMax*100) / 100,
			})
			run = 0
			runMax = 0
		}
	}

	events := EnforceSeparation(candidates, d.config.MinSeparation)

	d.logger.Info("acoustic detection completed",
		zap.Int("frames", len(frames)),
		zap.Int("stride", stride),
		zap.Int("candidates", len(candidates)),
		zap.Int("events", len(events)),
		zap.Float64("threshold", threshold.Value))

	return Result{
		Events:     events,
		Threshold:  threshold,
		Candidates: len(candidates),
	}
}

// EnforceSeparation keeps the first event and every later event that starts at least
// minSeparation seconds after the last kept one. Input must be in ascending time order.
func EnforceSeparation(events []Event, minSeparation float64) []Event {
	kept := make([]Event, 0, len(events))
	for _, e := range events {
		if len(kept) == 0 || e.Timestamp-kept[len(kept)-1].Timestamp >= minSeparation {
			kept = append(kept, e)
		}
	}
	return kept
}

// frameStep returns the fixed spacing of the series, falling back when it cannot be derived
func frameStep(frames []Frame, fallback float64) float64 {
	if len(frames) < 2 {
		return fallback
	}
	step := (frames[len(frames)-1].Time - frames[0].Time) / float64(len(frames)-1)
	if step <= 0 || math.IsNaN(step) {
		return fallback
	}
	return step
}
