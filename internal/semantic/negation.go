package semantic

import (
	"regexp"
	"strings"
)

var negationPattern = regexp.MustCompile(`\b(?:not|no|missed|disallowed|not\s+given)\s+(?:goal|score|strike|header|chance)\b`)

// IsNegated reports whether text explicitly denies a goal, e.g. "no goal" or "disallowed goal"
func IsNegated(text string) bool {
	return negationPattern.MatchString(strings.ToLower(text))
}
