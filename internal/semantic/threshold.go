package semantic

const (
	thresholdStep    = 0.05
	highMean         = 0.85
	lowMean          = 0.55
	minimumThreshold = 0.5
	maximumThreshold = 1.0
)

// SuggestThreshold nudges the initial threshold toward the observed similarity mean.
// It is advisory only; scoring always uses the configured threshold.
func SuggestThreshold(scores []float64, initial float64) float64 {
	if len(scores) == 0 {
		return initial
	}
	mean := Mean(scores)

	suggested := initial
	switch {
	case mean > highMean:
		suggested += thresholdStep
	case mean < lowMean:
		suggested -= thresholdStep
	}

	if suggested < minimumThreshold {
		return minimumThreshold
	}
	if suggested > maximumThreshold {
		return maximumThreshold
	}
	return suggested
}

// Mean returns the arithmetic mean, or 0 for no values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
