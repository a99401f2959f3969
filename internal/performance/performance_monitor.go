// Package performance times pipeline stages.
package performance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics accumulates timings for one named stage
type StageMetrics struct {
	Name     string        `json:"name"`
	Runs     int64         `json:"runs"`
	Total    time.Duration `json:"total"`
	Min      time.Duration `json:"min"`
	Max      time.Duration `json:"max"`
	Last     time.Duration `json:"last"`
	Failures int64         `json:"failures"`
}

// Avg returns the mean duration of the stage
func (s StageMetrics) Avg() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return time.Duration(int64(s.Total) / s.Runs)
}

// StageTimer tracks one running stage
type StageTimer struct {
	Stage     string
	StartTime time.Time
}

// Monitor records stage timings; safe for concurrent use
type Monitor struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	stages    map[string]*StageMetrics
	order     []string
	benchmark bool
}

// NewMonitor creates a new stage monitor
func NewMonitor(logger *zap.Logger) *Monitor {
	return NewMonitorWithBenchmark(logger, false)
}

// NewMonitorWithBenchmark creates a monitor that logs every completed stage when benchmark is set
func NewMonitorWithBenchmark(logger *zap.Logger, benchmark bool) *Monitor {
	return &Monitor{
		logger:    logger,
		stages:    make(map[string]*StageMetrics),
		benchmark: benchmark,
	}
}

// Start begins timing a stage
func (m *Monitor) Start(stage string) *StageTimer {
	return &StageTimer{Stage: stage, StartTime: time.Now()}
}

// End completes timing; a non-nil err counts the run as a failure
func (m *Monitor) End(timer *StageTimer, err error) time.Duration {
	elapsed := time.Since(timer.StartTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stages[timer.Stage]
	if !ok {
		s = &StageMetrics{Name: timer.Stage, Min: elapsed}
		m.stages[timer.Stage] = s
		m.order = append(m.order, timer.Stage)
	}
	s.Runs++
	s.Total += elapsed
	s.Last = elapsed
	if elapsed < s.Min {
		s.Min = elapsed
	}
	if elapsed > s.Max {
		s.Max = elapsed
	}
	if err != nil {
		s.Failures++
	}

	if m.benchmark {
		m.logger.Info("stage performance",
			zap.String("stage", timer.Stage),
			zap.Duration("elapsed", elapsed),
			zap.Bool("failed", err != nil))
	}
	return elapsed
}

// Track times fn as stage
func (m *Monitor) Track(stage string, fn func() error) error {
	timer := m.Start(stage)
	err := fn()
	m.End(timer, err)
	return err
}

// Stages returns a copy of the metrics in first-completed order
func (m *Monitor) Stages() []StageMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StageMetrics, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.stages[name])
	}
	return out
}

// Timings returns the most recent duration of every stage in seconds
func (m *Monitor) Timings() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.stages))
	for name, s := range m.stages {
		out[name] = s.Last.Seconds()
	}
	return out
}

// GetPerformanceSummary returns a formatted summary of stage timings
func (m *Monitor) GetPerformanceSummary() string {
	stages := m.Stages()
	if len(stages) == 0 {
		return "No stage metrics available"
	}

	var b strings.Builder
	b.WriteString("Performance Summary:\n")
	for _, s := range stages {
		fmt.Fprintf(&b, "  %s: %d run(s), avg %v, min/max %v / %v, failures %d\n",
			s.Name, s.Runs, s.Avg(), s.Min, s.Max, s.Failures)
	}
	return b.String()
}

// LogCurrentMetrics logs every stage at info level
func (m *Monitor) LogCurrentMetrics() {
	for _, s := range m.Stages() {
		m.logger.Info("stage metrics",
			zap.String("stage", s.Name),
			zap.Int64("runs", s.Runs),
			zap.Duration("avg", s.Avg()),
			zap.Duration("last", s.Last),
			zap.Int64("failures", s.Failures))
	}
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = make(map[string]*StageMetrics)
	m.order = nil
}
