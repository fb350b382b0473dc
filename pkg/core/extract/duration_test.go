package extract_test

import (
	"testing"

	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/stretchr/testify/assert"
)

func TestParseHours(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  float64
	}{
		{"Hours and minutes", "25h 30m", 25.5},
		{"Half glyph with word", "8½ Hours", 8.5},
		{"Half glyph alone", "26½", 26.5},
		{"Below lower bound", "0.3h", 0},
		{"Above upper bound", "250h", 0},
		{"Identifier-like", "123456", 0},
		{"Empty", "", 0},
		{"Bare decimal", "12.5", 12.5},
		{"Abbreviated hours", "40 hrs", 40},
		{"Spelled out", "2 Hours 30 Mins", 2.5},
		{"Minutes only", "45 Mins", 0},
		{"Minute letter only", "30m", 0},
		{"Lower bound inclusive", "0.5 Hours", 0.5},
		{"Long decimal", "12.50000 hours", 12.5},
		{"Identifier inside text", "Game 123456 Main Story 14 Hours", 14},
		{"Five digit hours out of range", "12345 hours", 0},
		{"Upper bound inclusive", "200 Hours", 200},
		{"Punctuation stripped", "~ 15 Hours --", 15},
		{"No number", "Hours", 0},
		{"Four digit bare number", "1000", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, extract.ParseHours(tc.input), 0.0001)
		})
	}
}
