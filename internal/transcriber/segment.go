package transcriber

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Segment is a timestamped span of commentary text, times in seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks if the Segment has usable values
func (s *Segment) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if math.IsNaN(s.Start) || math.IsNaN(s.End) {
		return fmt.Errorf("timestamps must be numbers")
	}

	if s.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}

	if s.End < s.Start {
		return fmt.Errorf("end must not be before start")
	}

	return nil
}

// UnmarshalJSON accepts numeric seconds or "12.34s" strings, and "sentence" in place of "text"
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start    json.RawMessage `json:"start"`
		End      json.RawMessage `json:"end"`
		Text     *string         `json:"text"`
		Sentence *string         `json:"sentence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	start, err := decodeSeconds(raw.Start)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	end, err := decodeSeconds(raw.End)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}

	text := ""
	switch {
	case raw.Text != nil:
		text = *raw.Text
	case raw.Sentence != nil:
		text = *raw.Sentence
	}

	*s = Segment{Start: start, End: end, Text: text}
	return nil
}

func decodeSeconds(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing timestamp")
	}
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err == nil {
		return seconds, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("unsupported timestamp %s", raw)
	}
	return ParseSeconds(text)
}

// ParseSeconds parses "12.34", "12.34s" or " 12.34 s "
func ParseSeconds(value string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "s"))
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds value %q", value)
	}
	return seconds, nil
}

// Sanitize drops segments that fail validation, logging each one, and trims text
func Sanitize(segments []Segment, logger *zap.Logger) ([]Segment, int) {
	valid := make([]Segment, 0, len(segments))
	skipped := 0
	for i, segment := range segments {
		segment.Text = strings.TrimSpace(segment.Text)
		if err := segment.Validate(); err != nil {
			skipped++
			logger.Warn("skipping malformed transcript segment",
				zap.Int("index", i),
				zap.Float64("start", segment.Start),
				zap.Float64("end", segment.End),
				zap.Error(err))
			continue
		}
		valid = append(valid, segment)
	}
	return valid, skipped
}
