// Package extract pulls a numeric field out of fetched page content by running an
// ordered cascade of rules, most reliable first.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/angelospk/gamecrawl/pkg/core/titles"
)

// Kind selects how raw rule output is turned into a value.
type Kind int

const (
	// KindScore values are review scores in [ScoreMin, ScoreMax].
	KindScore Kind = iota
	// KindDuration values are completion times parsed by ParseHours.
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindScore:
		return "score"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Status tags an Outcome.
type Status int

const (
	// NotFound means no rule produced a usable value.
	NotFound Status = iota
	// Found carries a value within bounds.
	Found
	// Ambiguous means the content explicitly marks the field as not yet available.
	Ambiguous
	// Unavailable means the content was too small to be a real page.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	case Unavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

// Outcome is the result of one extraction.
type Outcome struct {
	Status Status
	Value  float64
	Year   int    // release year recovered from the content, 0 if unknown
	Rule   string // name of the rule that produced Value
	Reason string
}

// Default score bounds and minimum content size.
const (
	DefaultScoreMin        = 0.0
	DefaultScoreMax        = 100.0
	DefaultMinContentBytes = 512
)

// DefaultNotRated matches placeholder markers shown instead of a real score.
var DefaultNotRated = regexp.MustCompile(`(?i)\btbd\b|not\s+yet\s+rated|no\s+score\s+yet|to\s+be\s+determined`)

var yearDigitsRegex = regexp.MustCompile(`\b(\d{4})\b`)

// Extractor applies Rules in order; the first rule yielding an in-bounds value wins.
type Extractor struct {
	Kind      Kind
	Rules     []Rule
	YearRules []Rule
	// NotRated suppresses a literal zero score when it matches the content.
	NotRated        *regexp.Regexp
	MinContentBytes int
	ScoreMin        float64
	ScoreMax        float64
}

// NewExtractor returns an Extractor with the default bounds for kind.
func NewExtractor(kind Kind, rules []Rule, yearRules []Rule) *Extractor {
	return &Extractor{
		Kind:            kind,
		Rules:           rules,
		YearRules:       yearRules,
		NotRated:        DefaultNotRated,
		MinContentBytes: DefaultMinContentBytes,
		ScoreMin:        DefaultScoreMin,
		ScoreMax:        DefaultScoreMax,
	}
}

// Extract runs the rule cascade against content.
func (e *Extractor) Extract(content string) Outcome {
	notRated := e.Kind == KindScore && e.NotRated != nil && e.NotRated.MatchString(content)
	suppressed := ""

	for _, rule := range e.Rules {
		for _, raw := range rule.Apply(content) {
			value, ok := e.value(raw)
			if !ok {
				continue
			}
			if e.Kind == KindScore && value == 0 && notRated {
				suppressed = rule.Name
				continue
			}
			return Outcome{
				Status: Found,
				Value:  value,
				Year:   e.Year(content),
				Rule:   rule.Name,
			}
		}
	}

	switch {
	case suppressed != "":
		return Outcome{Status: Ambiguous, Rule: suppressed, Reason: "zero score alongside a not-yet-rated marker"}
	case notRated:
		return Outcome{Status: Ambiguous, Reason: "not-yet-rated marker present"}
	case len(content) < e.MinContentBytes:
		return Outcome{Status: Unavailable, Reason: coreerrors.ErrContentTooSmall.Error()}
	default:
		return Outcome{Status: NotFound}
	}
}

// Year returns the first plausible release year produced by the year rules, or 0.
func (e *Extractor) Year(content string) int {
	for _, rule := range e.YearRules {
		for _, raw := range rule.Apply(content) {
			for _, m := range yearDigitsRegex.FindAllStringSubmatch(raw, -1) {
				year, err := strconv.Atoi(m[1])
				if err == nil && titles.PlausibleYear(year) {
					return year
				}
			}
		}
	}
	return 0
}

func (e *Extractor) value(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if e.Kind == KindDuration {
		h := ParseHours(raw)
		return h, h > 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	lo, hi := e.ScoreMin, e.ScoreMax
	if hi == 0 {
		lo, hi = DefaultScoreMin, DefaultScoreMax
	}
	if v < lo || v > hi {
		return 0, false
	}
	return v, true
}
