package extract

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Rule is a pure content pattern. Apply returns every raw value it finds, in
// document order; the Extractor decides which of them is usable.
type Rule struct {
	Name  string
	Apply func(content string) []string
}

// textPolicy strips all markup; script and style bodies are dropped.
var textPolicy = bluemonday.StrictPolicy()

// PatternRule matches pattern against the raw content and returns the first
// capture group of every match (the whole match when the pattern has no groups).
func PatternRule(name, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{Name: name, Apply: func(content string) []string {
		return submatches(re, content)
	}}
}

// TextPatternRule is like PatternRule but runs against the visible text of an HTML
// document, with tags removed and entities decoded.
func TextPatternRule(name, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{Name: name, Apply: func(content string) []string {
		return submatches(re, VisibleText(content))
	}}
}

// VisibleText strips markup from an HTML fragment and collapses whitespace.
func VisibleText(content string) string {
	text := html.UnescapeString(textPolicy.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}

// JSONLDRule walks path through every JSON-LD block in an HTML document and
// returns the values found at its end. Arrays and "@graph" containers are searched
// element by element.
func JSONLDRule(name string, path ...string) Rule {
	return Rule{Name: name, Apply: func(content string) []string {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return nil
		}
		var out []string
		doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
			var data any
			if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
				return
			}
			out = append(out, walkJSON(data, path)...)
		})
		return out
	}}
}

func walkJSON(node any, path []string) []string {
	switch v := node.(type) {
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, walkJSON(item, path)...)
		}
		return out
	case map[string]any:
		if len(path) == 0 {
			return nil
		}
		var out []string
		if graph, ok := v["@graph"]; ok {
			out = append(out, walkJSON(graph, path)...)
		}
		if next, ok := v[path[0]]; ok {
			out = append(out, walkJSON(next, path[1:])...)
		}
		return out
	}
	if len(path) > 0 {
		return nil
	}
	switch v := node.(type) {
	case string:
		return []string{v}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	default:
		return nil
	}
}

// LabeledRule scans an HTML listing for an element whose own text equals one of
// labels and returns the adjacent value. Labels are tried in order; a later label
// is consulted only when no earlier one is present.
func LabeledRule(name string, labels ...string) Rule {
	return Rule{Name: name, Apply: func(content string) []string {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return nil
		}
		for _, label := range labels {
			if values := labeledValues(doc, label); len(values) > 0 {
				return values
			}
		}
		return nil
	}}
}

func labeledValues(doc *goquery.Document, label string) []string {
	var out []string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 || !strings.EqualFold(strings.TrimSpace(s.Text()), label) {
			return
		}
		if next := strings.TrimSpace(s.Next().Text()); next != "" {
			out = append(out, next)
			return
		}
		parent := strings.TrimSpace(s.Parent().Text())
		if rest := strings.TrimSpace(strings.TrimPrefix(parent, strings.TrimSpace(s.Text()))); rest != "" {
			out = append(out, rest)
		}
	})
	return out
}
