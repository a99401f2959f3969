package acoustic

import (
	"math"
	"sort"
)

// Threshold is the adaptive loudness threshold with the statistics it was derived from
type Threshold struct {
	Value           float64 `json:"value"`
	Mean            float64 `json:"mean"`
	StdDev          float64 `json:"std_dev"`
	Q1              float64 `json:"q1"`
	Q3              float64 `json:"q3"`
	IQR             float64 `json:"iqr"`
	Ratio           float64 `json:"ratio"`
	AdaptiveK       float64 `json:"adaptive_k"`
	Percentile      float64 `json:"percentile"`
	PercentileValue float64 `json:"percentile_value"`
	Samples         int     `json:"samples"`
}

// DynamicThreshold derives a loudness threshold from the positive samples of a series.
// Noisier series (high std/mean ratio) get a lower percentile ceiling and a larger
// IQR multiplier. ok is false when there are no positive samples.
func DynamicThreshold(intensities []float64, k float64) (Threshold, bool) {
	positive := make([]float64, 0, len(intensities))
	for _, v := range intensities {
		if v > 0 && !math.IsInf(v, 0) {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return Threshold{}, false
	}
	sort.Float64s(positive)

	mean, std := meanStdDev(positive)
	ratio := 0.0
	if mean > 0 {
		ratio = std / mean
	}

	pct := 75.0
	switch {
	case ratio > 0.5:
		pct = 65
	case ratio < 0.2:
		pct = 80
	}

	q1 := percentile(positive, 25)
	q3 := percentile(positive, 75)
	iqr := q3 - q1
	adaptiveK := k * (1 + ratio)
	pctValue := percentile(positive, pct)

	return Threshold{
		Value:           math.Min(q3+adaptiveK*iqr, pctValue),
		Mean:            mean,
		StdDev:          std,
		Q1:              q1,
		Q3:              q3,
		IQR:             iqr,
		Ratio:           ratio,
		AdaptiveK:       adaptiveK,
		Percentile:      pct,
		PercentileValue: pctValue,
		Samples:         len(positive),
	}, true
}

// meanStdDev returns the mean and the population standard deviation
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// percentile interpolates linearly between the closest ranks of an ascending slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
