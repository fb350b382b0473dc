package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausibility bounds for a completion time, in hours.
const (
	MinHours = 0.5
	MaxHours = 200.0
)

const number = `(\d+(?:\.\d+)?|\.\d+)`

var (
	durationJunkRegex = regexp.MustCompile(`[^0-9A-Za-z\s.]+`)
	identifierRegex   = regexp.MustCompile(`^\d{5,}$`)

	hoursMinutesRegex = regexp.MustCompile(`(?i)` + number + `\s*h(?:ours?|rs?)?\s*(\d+)\s*m(?:in(?:ute)?s?)?\b`)
	hoursWordRegex    = regexp.MustCompile(`(?i)` + number + `\s*(?:hours?|hrs?)\b`)
	hoursLetterRegex  = regexp.MustCompile(`(?i)` + number + `\s*h\b`)
	bareNumberRegex   = regexp.MustCompile(`^(\d{1,3}(?:\.\d+)?|\.\d+)$`)
)

type durationPattern struct {
	re      *regexp.Regexp
	hours   int // submatch index of the hours value, 0 if absent
	minutes int // submatch index of the minutes value, 0 if absent
}

// Ordered most to least specific.
var durationPatterns = []durationPattern{
	{re: hoursMinutesRegex, hours: 1, minutes: 2},
	{re: hoursWordRegex, hours: 1},
	{re: hoursLetterRegex, hours: 1},
	{re: bareNumberRegex, hours: 1},
}

// ParseHours converts duration text such as "26½ Hours", "8h 30m" or "12.5" to
// decimal hours. It returns 0 when the text holds no duration within
// [MinHours, MaxHours], when it is five or more bare digits (an identifier), and
// for minutes without hours ("45 Mins").
func ParseHours(text string) float64 {
	text = strings.ReplaceAll(text, "½", ".5")
	text = durationJunkRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if text == "" || identifierRegex.MatchString(text) {
		return 0
	}

	for _, p := range durationPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			var total float64
			if p.hours > 0 {
				h, err := strconv.ParseFloat(m[p.hours], 64)
				if err != nil {
					continue
				}
				total += h
			}
			if p.minutes > 0 {
				mins, err := strconv.ParseFloat(m[p.minutes], 64)
				if err != nil {
					continue
				}
				total += mins / 60
			}
			if total >= MinHours && total <= MaxHours {
				return total
			}
		}
	}
	return 0
}
