package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNegated(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"no goal was given", true},
		{"NO GOAL! The flag is up", true},
		{"that's a disallowed goal for offside", true},
		{"he missed chance after chance", true},
		{"not given goal by the referee", true},
		{"not a goal", false},
		{"what a goal!", false},
		{"he scores, no doubt about it", false},
		{"nobody could stop that strike", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNegated(tt.text))
		})
	}
}
