package titles

import (
	"regexp"
	"strings"
)

// editionDef describes one marketing qualifier that does not change game identity.
// pattern matches the qualifier word(s) themselves; standalone marks qualifiers that
// also appear without a trailing "Edition" (e.g. "Alan Wake Remastered").
type editionDef struct {
	label      string
	pattern    string
	standalone bool
}

// editionDefs is the single source of truth for edition qualifiers.
// Apostrophes are optional so the same pattern works before and after separator stripping.
var editionDefs = []editionDef{
	{"Definitive Edition", `definitive`, false},
	{"Complete Edition", `complete`, false},
	{"Game of the Year Edition", `goty|game\s+(?:of\s+)?(?:the\s+)?year`, true},
	{"Deluxe Edition", `deluxe`, false},
	{"Ultimate Edition", `ultimate`, false},
	{"Special Edition", `special`, false},
	{"Collector's Edition", `collector(?:\s*['’]?\s*s)?`, false},
	{"Limited Edition", `limited`, false},
	{"Enhanced Edition", `enhanced`, false},
	{"Remastered", `remaster(?:ed)?`, true},
	{"Director's Cut", `director(?:\s*['’]?\s*s)?\s+cut`, true},
	{"Anniversary Edition", `(?:\d+\s*(?:st|nd|rd|th)?\s+)?anniversary`, true},
}

type editionPattern struct {
	label string
	// phrase matches "<qualifier> Edition".
	phrase *regexp.Regexp
	// bare matches the qualifier word alone.
	bare *regexp.Regexp
	// strip removes the qualifier from a display title, including a leading separator
	// and surrounding brackets. Used for search variations.
	strip *regexp.Regexp
}

var editionPatterns []editionPattern

var (
	trailingSeparatorRegex = regexp.MustCompile(`[\s:,\-–—]+$`)
	// leadingConnectiveRegex matches what a leading qualifier leaves behind, as in
	// "Collector's Edition of ...". Articles are kept since they start real titles.
	leadingConnectiveRegex = regexp.MustCompile(`(?i)^[\s:,\-–—]*(?:(?:of|and|or|in|on|at|to|for|with|by|from)\s+)?`)
)

func init() {
	for _, def := range editionDefs {
		stripBody := `(?:` + def.pattern + `)\s+edition`
		if def.standalone {
			stripBody = `(?:` + def.pattern + `)(?:\s+edition)?`
		}
		editionPatterns = append(editionPatterns, editionPattern{
			label:  def.label,
			phrase: regexp.MustCompile(`(?i)\b(?:` + def.pattern + `)\s+edition\b`),
			bare:   regexp.MustCompile(`(?i)\b(?:` + def.pattern + `)\b`),
			strip:  regexp.MustCompile(`(?i)\s*[:\-–—]?\s*[(\[]?\b` + stripBody + `\b[)\]]?`),
		})
	}
}

// stripEditionQualifiers removes every known qualifier, phrase form first and then bare words.
func stripEditionQualifiers(s string) string {
	for _, ep := range editionPatterns {
		s = ep.phrase.ReplaceAllString(s, " ")
	}
	for _, ep := range editionPatterns {
		s = ep.bare.ReplaceAllString(s, " ")
	}
	return s
}

// removeEdition strips one qualifier from a display title and tidies the result.
func removeEdition(title string, ep editionPattern) string {
	out := ep.strip.ReplaceAllString(title, " ")
	return tidyStripped(title, out)
}

// RemoveEditions strips every known edition qualifier from a display title.
func RemoveEditions(title string) string {
	out := title
	for _, ep := range editionPatterns {
		out = ep.strip.ReplaceAllString(out, " ")
	}
	return tidyStripped(title, out)
}

// DetectEditions returns the labels of the qualifiers present in title, in table order.
func DetectEditions(title string) []string {
	var labels []string
	for _, ep := range editionPatterns {
		if ep.strip.MatchString(title) {
			labels = append(labels, ep.label)
		}
	}
	return labels
}

// tidyStripped tidies out, the result of removing qualifiers from title. A
// connective left at the front is dropped unless title itself started with it.
func tidyStripped(title, out string) string {
	if leadingConnectiveRegex.FindString(title) == "" {
		out = leadingConnectiveRegex.ReplaceAllString(out, "")
	}
	return tidy(out)
}

func tidy(s string) string {
	s = collapseSpaces(s)
	s = trailingSeparatorRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
