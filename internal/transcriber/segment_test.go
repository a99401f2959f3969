package transcriber

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSegment_JSON(t *testing.T) {
	t.Run("should encode the canonical field names", func(t *testing.T) {
		// Arrange
		segment := Segment{Start: 12.5, End: 15, Text: "What a goal!"}

		// Act
		data, err := json.Marshal(segment)

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"start":12.5,"end":15,"text":"What a goal!"}`, string(data))
	})

	t.Run("should decode second-suffixed timestamps and the sentence key", func(t *testing.T) {
		// Arrange
		data := `{"start":"12.34s","end":"15.00s","sentence":"He scores!"}`

		// Act
		var segment Segment
		err := json.Unmarshal([]byte(data), &segment)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, Segment{Start: 12.34, End: 15, Text: "He scores!"}, segment)
	})

	t.Run("should reject a missing timestamp", func(t *testing.T) {
		var segment Segment
		err := json.Unmarshal([]byte(`{"end":3,"text":"x"}`), &segment)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid start")
	})
}

func TestSegment_Validate(t *testing.T) {
	tests := []struct {
		name          string
		segment       Segment
		expectedError string
	}{
		{name: "valid segment", segment: Segment{Start: 1, End: 2, Text: "goal"}},
		{name: "zero length segment", segment: Segment{Start: 2, End: 2, Text: "goal"}},
		{name: "empty text", segment: Segment{Start: 1, End: 2, Text: "  "}, expectedError: "text cannot be empty"},
		{name: "negative start", segment: Segment{Start: -1, End: 2, Text: "goal"}, expectedError: "start cannot be negative"},
		{name: "end before start", segment: Segment{Start: 5, End: 2, Text: "goal"}, expectedError: "end must not be before start"},
		{name: "NaN start", segment: Segment{Start: math.NaN(), End: 2, Text: "goal"}, expectedError: "timestamps must be numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Run("should drop malformed segments and log each one", func(t *testing.T) {
		// Arrange
		core, logs := observer.New(zapcore.WarnLevel)
		segments := []Segment{
			{Start: 0, End: 3, Text: " Kick-off. "},
			{Start: 5, End: 4, Text: "backwards"},
			{Start: 6, End: 8, Text: ""},
			{Start: 9, End: 12, Text: "Goal!"},
		}

		// Act
		valid, skipped := Sanitize(segments, zap.New(core))

		// Assert
		assert.Equal(t, 2, skipped)
		assert.Equal(t, []Segment{{Start: 0, End: 3, Text: "Kick-off."}, {Start: 9, End: 12, Text: "Goal!"}}, valid)
		assert.Equal(t, 2, logs.FilterMessage("skipping malformed transcript segment").Len())
	})
}

func TestParseSeconds(t *testing.T) {
	for input, expected := range map[string]float64{"12.34s": 12.34, "7": 7, " 3.5 s ": 3.5} {
		seconds, err := ParseSeconds(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, seconds, input)
	}

	_, err := ParseSeconds("soon")
	assert.Error(t, err)
}
