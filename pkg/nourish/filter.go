package nourish

import (
	"strings"
	"unicode/utf8"
)

// DenyList holds phrases that mark a low-value answer. Matching is
// case-insensitive.
var DenyList = []string{
	"error",
	"no result",
	"sin resultado",
	"see more on",
	"ver más en",
	"ver mas en",
}

// ExtendedMarker separates the summary from the appended excerpt.
const ExtendedMarker = "\n\n[Extended content:]\n"

// extendedMinRunes is the shortest extended text worth appending.
const extendedMinRunes = 100

// acceptable reports whether summary is long enough and free of deny-list
// phrases.
func acceptable(summary string, minRunes int) bool {
	if utf8.RuneCountInString(summary) <= minRunes {
		return false
	}
	lower := strings.ToLower(summary)
	for _, phrase := range DenyList {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// compose appends a bounded excerpt of extended to summary.
func compose(summary, extended string, excerptRunes int) string {
	if utf8.RuneCountInString(extended) <= extendedMinRunes {
		return summary
	}
	runes := []rune(extended)
	if len(runes) > excerptRunes {
		runes = runes[:excerptRunes]
	}
	return summary + ExtendedMarker + string(runes) + "..."
}
