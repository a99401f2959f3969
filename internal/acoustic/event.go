// Package acoustic finds sustained loudness peaks in a per-frame intensity series.
package acoustic

// Frame is one sample of the loudness series of the source audio
type Frame struct {
	Time      float64 `json:"time"`
	Intensity float64 `json:"intensity"`
}

// Event is a moment of sustained loudness
type Event struct {
	Timestamp float64 `json:"timestamp"`
	Intensity float64 `json:"intensity"`
}

// Result carries the detected events along with the statistics that produced them
type Result struct {
	Events     []Event   `json:"events"`
	Threshold  Threshold `json:"threshold"`
	Candidates int       `json:"candidates"`
	NoSignal   bool      `json:"no_signal"`
}
