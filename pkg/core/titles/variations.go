package titles

import (
	"strings"
	"unicode/utf8"
)

// Default bounds for generated search variations.
const (
	DefaultMaxVariations  = 6
	DefaultMinQueryLength = 4
)

// Generator produces search-term variations for a catalog title, most specific first.
type Generator struct {
	MaxVariations  int
	MinQueryLength int
}

// DefaultGenerator returns a Generator with the default bounds.
func DefaultGenerator() Generator {
	return Generator{MaxVariations: DefaultMaxVariations, MinQueryLength: DefaultMinQueryLength}
}

// Variations is shorthand for DefaultGenerator().Generate.
func Variations(title string, year int) []string {
	return DefaultGenerator().Generate(title, year)
}

// Generate returns an ordered, duplicate-free list of queries derived from title:
// the glyph-stripped title, the raw title, the title without its year, one entry per
// edition qualifier removed, and finally the title without year and editions.
// year is the already-extracted year hint; 0 means "detect from the title".
func (g Generator) Generate(title string, year int) []string {
	if year == 0 {
		year = YearHint(title)
	}

	base := StripGlyphs(title)
	raw := strings.TrimSpace(title)

	candidates := []string{base, raw}
	hasYear := year != 0 && yearRemoveRegex.MatchString(base)
	if hasYear {
		candidates = append(candidates, StripYear(base))
	}
	for _, ep := range editionPatterns {
		if ep.strip.MatchString(base) {
			candidates = append(candidates, removeEdition(base, ep))
		}
	}
	generic := RemoveEditions(base)
	if hasYear {
		generic = StripYear(generic)
	}
	candidates = append(candidates, generic)

	return g.dedupe(candidates)
}

func (g Generator) dedupe(candidates []string) []string {
	minLen := g.MinQueryLength
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) < minLen {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if g.MaxVariations > 0 && len(out) == g.MaxVariations {
			break
		}
	}
	return out
}
