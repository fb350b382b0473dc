package titles

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	ptn "github.com/razsteinmetz/go-ptn"
)

var (
	yearHintRegex   = regexp.MustCompile(`\(\s*(\d{4})\s*\)`)
	yearRemoveRegex = regexp.MustCompile(`\s*\(\s*\d{4}\s*\)`)
)

const earliestReleaseYear = 1950

// YearHint returns the 4-digit parenthesized year in a title, or 0.
func YearHint(title string) int {
	m := yearHintRegex.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || !PlausibleYear(year) {
		return 0
	}
	return year
}

// StripYear removes a parenthesized 4-digit year from a display title.
func StripYear(title string) string {
	return tidy(yearRemoveRegex.ReplaceAllString(title, " "))
}

// CandidateYear extracts a release year from a search result title. A parenthesized year
// wins; otherwise the release-name parser gets a chance at a trailing bare year.
func CandidateYear(title string) int {
	if year := YearHint(title); year != 0 {
		return year
	}
	if strings.TrimSpace(title) == "" {
		return 0
	}
	parsed, err := ptn.Parse(title)
	if err != nil || parsed == nil {
		return 0
	}
	if !PlausibleYear(parsed.Year) {
		return 0
	}
	// The parser reads sequel numbers like "2077" as years; only trust a year that
	// ends the title.
	if !strings.HasSuffix(strings.TrimSpace(title), strconv.Itoa(parsed.Year)) {
		return 0
	}
	return parsed.Year
}

// PlausibleYear reports whether year could be a game's release year.
func PlausibleYear(year int) bool {
	return year >= earliestReleaseYear && year <= time.Now().Year()+2
}
