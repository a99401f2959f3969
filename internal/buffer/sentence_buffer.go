// Package buffer combines consecutive transcription segments into sentences.
package buffer

import (
	"strings"

	"footech/internal/transcriber"
)

// SentenceBuffer accumulates segments until one closes a sentence or the
// buffered span grows past maxSpan seconds
type SentenceBuffer struct {
	maxSpan float64
	parts   []string
	start   float64
	end     float64
}

// NewSentenceBuffer creates a SentenceBuffer; maxSpan <= 0 disables the span limit
func NewSentenceBuffer(maxSpan float64) *SentenceBuffer {
	return &SentenceBuffer{maxSpan: maxSpan}
}

// Add appends a segment and returns the completed sentence, if this segment finished one
func (sb *SentenceBuffer) Add(segment transcriber.Segment) (transcriber.Segment, bool) {
	text := strings.TrimSpace(segment.Text)
	if text == "" {
		return transcriber.Segment{}, false
	}

	if len(sb.parts) == 0 {
		sb.start = segment.Start
	}
	sb.parts = append(sb.parts, text)
	sb.end = segment.End

	if endsSentence(text) || (sb.maxSpan > 0 && sb.end-sb.start >= sb.maxSpan) {
		return sb.Flush()
	}
	return transcriber.Segment{}, false
}

// Flush returns whatever is buffered as a sentence and empties the buffer
func (sb *SentenceBuffer) Flush() (transcriber.Segment, bool) {
	if len(sb.parts) == 0 {
		return transcriber.Segment{}, false
	}
	sentence := transcriber.Segment{
		Start: sb.start,
		End:   sb.end,
		Text:  strings.Join(sb.parts, " "),
	}
	sb.parts = sb.parts[:0]
	return sentence, true
}

// Pending reports how many segments are waiting for a sentence end
func (sb *SentenceBuffer) Pending() int {
	return len(sb.parts)
}

// MergeSentences joins raw STT segments into sentence-level segments, keeping
// the earliest start and latest end of each group
func MergeSentences(segments []transcriber.Segment, maxSpan float64) []transcriber.Segment {
	sb := NewSentenceBuffer(maxSpan)
	merged := make([]transcriber.Segment, 0, len(segments))
	for _, segment := range segments {
		if sentence, ok := sb.Add(segment); ok {
			merged = append(merged, sentence)
		}
	}
	if sentence, ok := sb.Flush(); ok {
		merged = append(merged, sentence)
	}
	return merged
}

func endsSentence(text string) bool {
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
