package extract_test

import (
	"strings"
	"testing"

	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pad makes content large enough not to be treated as an unavailable page.
func pad(s string) string {
	return s + "<!--" + strings.Repeat("x", 600) + "-->"
}

func scoreExtractor() *extract.Extractor {
	return extract.NewExtractor(extract.KindScore,
		[]extract.Rule{
			extract.JSONLDRule("jsonld", "aggregateRating", "ratingValue"),
			extract.PatternRule("metascore-attr", `data-metascore="(\d+)"`),
			extract.TextPatternRule("metascore-text", `(?i)metascore\s*:?\s*(\d{1,3})`),
		},
		[]extract.Rule{
			extract.JSONLDRule("jsonld-date", "datePublished"),
		},
	)
}

func TestExtract_StructuredScore(t *testing.T) {
	content := pad(`<html><head><script type="application/ld+json">
{"@type":"VideoGame","name":"Alan Wake Remastered","datePublished":"2021-10-05",
 "aggregateRating":{"@type":"AggregateRating","ratingValue":85}}
</script></head><body>Metascore: 12</body></html>`)

	out := scoreExtractor().Extract(content)

	assert.Equal(t, extract.Found, out.Status)
	assert.Equal(t, 85.0, out.Value)
	assert.Equal(t, 2021, out.Year)
	assert.Equal(t, "jsonld", out.Rule)
}

func TestExtract_FallsThroughRules(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		want     float64
		wantRule string
	}{
		{
			name:     "Attribute pattern",
			content:  `<div class="score" data-metascore="91"></div>`,
			want:     91,
			wantRule: "metascore-attr",
		},
		{
			name:     "Visible text pattern",
			content:  `<p>Metascore: <b>77</b></p>`,
			want:     77,
			wantRule: "metascore-text",
		},
		{
			name:     "Out of bounds skipped",
			content:  `<div data-metascore="150"></div><p>Metascore 64</p>`,
			want:     64,
			wantRule: "metascore-text",
		},
		{
			name: "Graph container",
			content: `<script type="application/ld+json">{"@graph":[{"@type":"WebPage"},
{"aggregateRating":{"ratingValue":"88"}}]}</script>`,
			want:     88,
			wantRule: "jsonld",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := scoreExtractor().Extract(pad(tc.content))
			require.Equal(t, extract.Found, out.Status)
			assert.Equal(t, tc.want, out.Value)
			assert.Equal(t, tc.wantRule, out.Rule)
		})
	}
}

func TestExtract_ZeroWithNotRatedMarker(t *testing.T) {
	content := pad(`<div data-metascore="0"></div><span>tbd</span>`)

	out := scoreExtractor().Extract(content)
	assert.Equal(t, extract.Ambiguous, out.Status)
	assert.Equal(t, "metascore-attr", out.Rule)

	// Without the marker a literal zero is a real value.
	out = scoreExtractor().Extract(pad(`<div data-metascore="0"></div>`))
	assert.Equal(t, extract.Found, out.Status)
	assert.Equal(t, 0.0, out.Value)
}

func TestExtract_ZeroSuppressedButLaterRuleWins(t *testing.T) {
	content := pad(`<div data-metascore="0"></div><p>User score tbd. Metascore: 70</p>`)

	out := scoreExtractor().Extract(content)
	assert.Equal(t, extract.Found, out.Status)
	assert.Equal(t, 70.0, out.Value)
}

func TestExtract_NotFoundAndUnavailable(t *testing.T) {
	out := scoreExtractor().Extract(pad(`<html><body>No rating here.</body></html>`))
	assert.Equal(t, extract.NotFound, out.Status)

	out = scoreExtractor().Extract(`<html></html>`)
	assert.Equal(t, extract.Unavailable, out.Status)

	out = scoreExtractor().Extract(`<p>Not yet rated</p>`)
	assert.Equal(t, extract.Ambiguous, out.Status)
}

func TestExtract_Duration(t *testing.T) {
	ex := extract.NewExtractor(extract.KindDuration,
		[]extract.Rule{
			extract.PatternRule("comp-main", `"comp_main"\s*:\s*(\d+)`),
			extract.LabeledRule("listing", "Main Story", "Solo"),
		}, nil)

	listing := pad(`<ul><li><h2>Hades</h2>
<div><span>Main Story</span><span>22½ Hours</span></div>
<div><span>Completionist</span><span>95 Hours</span></div></li></ul>`)
	out := ex.Extract(listing)
	require.Equal(t, extract.Found, out.Status)
	assert.Equal(t, 22.5, out.Value)
	assert.Equal(t, "listing", out.Rule)

	solo := pad(`<div><div>Solo</div><div>40 Hours</div></div>`)
	out = ex.Extract(solo)
	require.Equal(t, extract.Found, out.Status)
	assert.Equal(t, 40.0, out.Value)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "found", extract.Found.String())
	assert.Equal(t, "not_found", extract.NotFound.String())
	assert.Equal(t, "ambiguous", extract.Ambiguous.String())
	assert.Equal(t, "unavailable", extract.Unavailable.String())
	assert.Equal(t, "duration", extract.KindDuration.String())
}
