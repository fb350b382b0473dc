// Package matcher decides whether two game titles denote the same game.
package matcher

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/angelospk/gamecrawl/pkg/core/titles"
	"github.com/antzucaro/matchr"
	"github.com/hbollon/go-edlib"
)

// Default thresholds, in percent.
const (
	DefaultStrictThreshold  = 90.0
	DefaultLooseThreshold   = 75.0
	DefaultRelaxedThreshold = 65.0
)

// DefaultRelaxedMinJaroWinkler is the Jaro-Winkler score a pair needs before the
// relaxed threshold may apply.
const DefaultRelaxedMinJaroWinkler = 0.9

// numericQualifierRegex drops words that only introduce a sequel number ("Part II", "Vol. 2").
var numericQualifierRegex = regexp.MustCompile(`(?i)\b(?:part|pt|vol|volume|chapter|episode|ep)\s+(\d+|[ivx]+)\b`)

var romanNumerals = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5, "vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
	"xi": 11, "xii": 12, "xiii": 13, "xiv": 14, "xv": 15, "xvi": 16, "xvii": 17, "xviii": 18, "xix": 19, "xx": 20,
}

// Config holds the similarity thresholds used for identity decisions.
type Config struct {
	// StrictThreshold applies when either title carries a numeral.
	StrictThreshold float64
	// LooseThreshold applies to titles without numerals.
	LooseThreshold float64
	// RelaxedThreshold applies to numeral-free titles whose release years agree and
	// whose Jaro-Winkler score reaches RelaxedMinJaroWinkler.
	RelaxedThreshold float64
	// RelaxedMinJaroWinkler gates the relaxed threshold; below it the loose one applies.
	RelaxedMinJaroWinkler float64
	// NumeralsMustAgree rejects pairs where both titles carry numerals and the numerals differ.
	NumeralsMustAgree bool
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		StrictThreshold:       DefaultStrictThreshold,
		LooseThreshold:        DefaultLooseThreshold,
		RelaxedThreshold:      DefaultRelaxedThreshold,
		RelaxedMinJaroWinkler: DefaultRelaxedMinJaroWinkler,
		NumeralsMustAgree:     true,
	}
}

// Decision records how a pair of titles was judged.
type Decision struct {
	Searched    string
	Found       string
	Similarity  float64
	JaroWinkler float64
	HasNumerals bool
	Threshold   float64
	Exact       bool
	Match       bool
}

// Matcher compares titles with a fixed Config.
type Matcher struct {
	cfg Config
}

// New creates a Matcher. Zero thresholds fall back to the defaults.
func New(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.StrictThreshold <= 0 {
		cfg.StrictThreshold = def.StrictThreshold
	}
	if cfg.LooseThreshold <= 0 {
		cfg.LooseThreshold = def.LooseThreshold
	}
	if cfg.RelaxedThreshold <= 0 {
		cfg.RelaxedThreshold = def.RelaxedThreshold
	}
	if cfg.RelaxedMinJaroWinkler <= 0 {
		cfg.RelaxedMinJaroWinkler = def.RelaxedMinJaroWinkler
	}
	return &Matcher{cfg: cfg}
}

// Config returns the thresholds in effect.
func (m *Matcher) Config() Config {
	return m.cfg
}

// IsMatch reports whether found denotes the same game as searched.
func (m *Matcher) IsMatch(searched, found string) bool {
	return m.Compare(searched, found, false).Match
}

// Compare judges searched against found. yearAgrees should be true only when the
// candidate's release year is known and equals the searched title's year hint.
// Agreeing years lower the threshold only for pairs that share most of their
// prefix and character order, as measured by Jaro-Winkler.
func (m *Matcher) Compare(searched, found string, yearAgrees bool) Decision {
	a := Canonical(searched)
	b := Canonical(found)
	d := Decision{Searched: a, Found: b}

	if a == b {
		d.Exact = true
		d.Similarity = 100
		d.JaroWinkler = 1
		d.Match = true
		return d
	}

	numsA := numerals(a)
	numsB := numerals(b)
	d.HasNumerals = len(numsA) > 0 || len(numsB) > 0
	d.Similarity = Similarity(a, b)
	d.JaroWinkler = matchr.JaroWinkler(a, b, false)

	switch {
	case d.HasNumerals:
		d.Threshold = m.cfg.StrictThreshold
	case yearAgrees && d.JaroWinkler >= m.cfg.RelaxedMinJaroWinkler:
		d.Threshold = m.cfg.RelaxedThreshold
	default:
		d.Threshold = m.cfg.LooseThreshold
	}

	if m.cfg.NumeralsMustAgree && len(numsA) > 0 && len(numsB) > 0 && !sameSet(numsA, numsB) {
		return d
	}
	d.Match = d.Similarity >= d.Threshold
	return d
}

var defaultMatcher = New(DefaultConfig())

// IsMatch compares two titles using the default thresholds.
func IsMatch(searched, found string) bool {
	return defaultMatcher.IsMatch(searched, found)
}

// Canonical normalizes a title and drops words that only introduce a sequel number.
func Canonical(title string) string {
	n := titles.Normalize(title)
	n = numericQualifierRegex.ReplaceAllString(n, "$1")
	return strings.Join(strings.Fields(n), " ")
}

// Similarity returns (maxLen - distance) / maxLen * 100 for the Levenshtein
// distance between a and b, measured in runes.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}
	dist := edlib.LevenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen) * 100
}

// numerals returns the sequel numbers carried by a normalized title. Roman numerals
// are converted so that "ii" and "2" compare equal.
func numerals(normalized string) map[int]struct{} {
	out := make(map[int]struct{})
	for _, tok := range strings.Fields(normalized) {
		if v, ok := romanNumerals[tok]; ok {
			out[v] = struct{}{}
			continue
		}
		if isDigits(tok) {
			if v, err := strconv.Atoi(tok); err == nil {
				out[v] = struct{}{}
			}
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
