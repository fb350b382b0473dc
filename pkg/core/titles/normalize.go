// Package titles turns catalog display names into comparison keys and search queries.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var glyphReplacer = strings.NewReplacer("™", "", "®", "", "©", "", "℠", "")

// apostropheReplacer joins possessives and contractions ("Marvel's" -> "Marvels")
// instead of splitting them into a stray "s" token.
var apostropheReplacer = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "")

var (
	questionPrefixRegex = regexp.MustCompile(`(?i)^(?:\s*how\s+long\s+is\s+)+`)
	trailingQuestion    = regexp.MustCompile(`\?+\s*$`)
	separatorRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s()]+`)
	stopWordRegex       = regexp.MustCompile(`(?i)\b(?:a|an|the|of|and|or|in|on|at|to|for|with|by|from)\b`)
	parenRegex          = regexp.MustCompile(`[()]+`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
)

// maxNormalizePasses bounds the fixed-point loop in Normalize. Every pass only removes
// text, so a couple of passes always suffice.
const maxNormalizePasses = 4

// Normalize canonicalizes a title for comparison. The result is lower-case, free of
// trademark glyphs, punctuation, stop-words, parenthesized years and edition qualifiers.
// It is never shown to a user. Normalize is idempotent.
func Normalize(title string) string {
	separated := separate(title)
	current := separated
	for i := 0; i < maxNormalizePasses; i++ {
		next := reduce(separate(current))
		if next == current {
			break
		}
		current = next
	}
	if current == "" {
		// Titles made only of stop-words or qualifiers ("The Ultimate") keep their words.
		return collapseSpaces(strings.ToLower(separated))
	}
	return current
}

// StripGlyphs removes trademark glyphs and collapses whitespace, keeping everything else.
func StripGlyphs(title string) string {
	return collapseSpaces(glyphReplacer.Replace(title))
}

// separate runs the glyph, question and punctuation steps. Apostrophes are
// deleted; other punctuation becomes a separator.
func separate(s string) string {
	s = foldAccents(glyphReplacer.Replace(s))
	s = questionPrefixRegex.ReplaceAllString(s, "")
	s = trailingQuestion.ReplaceAllString(s, "")
	s = apostropheReplacer.Replace(s)
	return separatorRegex.ReplaceAllString(s, " ")
}

// reduce runs the stop-word, year and edition steps, then lower-cases.
func reduce(s string) string {
	s = stopWordRegex.ReplaceAllString(s, " ")
	s = yearRemoveRegex.ReplaceAllString(s, " ")
	s = stripEditionQualifiers(s)
	s = parenRegex.ReplaceAllString(s, " ")
	return collapseSpaces(strings.ToLower(s))
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
