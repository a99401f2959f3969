package performance

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMonitor_End(t *testing.T) {
	t.Run("should accumulate runs per stage", func(t *testing.T) {
		// Arrange
		monitor := NewMonitor(zap.NewNop())

		// Act
		for i := 0; i < 3; i++ {
			timer := monitor.Start("detect")
			time.Sleep(time.Millisecond)
			monitor.End(timer, nil)
		}
		monitor.End(monitor.Start("transcribe"), errors.New("whisper failed"))

		// Assert
		stages := monitor.Stages()
		require.Len(t, stages, 2)
		assert.Equal(t, "detect", stages[0].Name)
		assert.Equal(t, int64(3), stages[0].Runs)
		assert.GreaterOrEqual(t, stages[0].Max, stages[0].Min)
		assert.GreaterOrEqual(t, stages[0].Min, time.Millisecond)
		assert.Equal(t, stages[0].Total/3, stages[0].Avg())
		assert.Equal(t, int64(1), stages[1].Failures)
	})

	t.Run("should be safe for concurrent stages", func(t *testing.T) {
		monitor := NewMonitor(zap.NewNop())

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				monitor.End(monitor.Start("score"), nil)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(20), monitor.Stages()[0].Runs)
	})
}

func TestMonitor_Track(t *testing.T) {
	monitor := NewMonitor(zap.NewNop())

	err := monitor.Track("assemble", func() error { return assert.AnError })

	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, monitor.Timings(), "assemble")
	assert.Equal(t, int64(1), monitor.Stages()[0].Failures)
}

func TestMonitor_Benchmark(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	monitor := NewMonitorWithBenchmark(zap.New(core), true)

	monitor.End(monitor.Start("detect"), nil)

	require.Equal(t, 1, logs.FilterMessage("stage performance").Len())
	assert.Equal(t, "detect", logs.All()[0].ContextMap()["stage"])
}

func TestMonitor_Summary(t *testing.T) {
	monitor := NewMonitor(zap.NewNop())
	assert.Equal(t, "No stage metrics available", monitor.GetPerformanceSummary())

	monitor.End(monitor.Start("correlate"), nil)
	summary := monitor.GetPerformanceSummary()

	assert.Contains(t, summary, "Performance Summary:")
	assert.Contains(t, summary, "correlate: 1 run(s)")

	monitor.Reset()
	assert.Empty(t, monitor.Stages())
}

func TestMonitor_LogCurrentMetrics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	monitor := NewMonitor(zap.New(core))
	monitor.End(monitor.Start("detect"), nil)
	monitor.End(monitor.Start("score"), nil)

	monitor.LogCurrentMetrics()

	assert.Equal(t, 2, logs.FilterMessage("stage metrics").Len())
}
