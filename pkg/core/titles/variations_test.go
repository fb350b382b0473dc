package titles_test

import (
	"testing"
	"unicode/utf8"

	"github.com/angelospk/gamecrawl/pkg/core/titles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariations_YearStripped(t *testing.T) {
	got := titles.Variations("The Witcher 3: Wild Hunt (2015)", 0)

	require.Len(t, got, 2)
	assert.Equal(t, "The Witcher 3: Wild Hunt (2015)", got[0])
	assert.Equal(t, "The Witcher 3: Wild Hunt", got[1])
}

func TestVariations_GlyphEditionAndYear(t *testing.T) {
	got := titles.Variations("Tomb Raider™: Definitive Edition (2014)", 0)

	assert.Equal(t, []string{
		"Tomb Raider: Definitive Edition (2014)",
		"Tomb Raider™: Definitive Edition (2014)",
		"Tomb Raider: Definitive Edition",
		"Tomb Raider (2014)",
		"Tomb Raider",
	}, got)
}

func TestVariations_StandaloneQualifier(t *testing.T) {
	got := titles.Variations("Alan Wake Remastered", 0)
	assert.Equal(t, []string{"Alan Wake Remastered", "Alan Wake"}, got)
}

func TestVariations_LeadingQualifier(t *testing.T) {
	got := titles.Variations("Collector's Edition of The Elder Scrolls V: Skyrim", 0)
	assert.Equal(t, []string{
		"Collector's Edition of The Elder Scrolls V: Skyrim",
		"The Elder Scrolls V: Skyrim",
	}, got)

	assert.Equal(t, "The Elder Scrolls V: Skyrim", titles.RemoveEditions("Special Edition: The Elder Scrolls V: Skyrim"))
	assert.Equal(t, "In Other Waters", titles.RemoveEditions("In Other Waters Deluxe Edition"))
	assert.Equal(t, "In Other Waters", titles.StripYear("In Other Waters (2020)"))
}

func TestVariations_ShortEntriesDiscarded(t *testing.T) {
	assert.Equal(t, []string{"Doom (2016)", "Doom"}, titles.Variations("Doom (2016)", 0))
	assert.Equal(t, []string{"Ys (2000)"}, titles.Variations("Ys (2000)", 0))
	assert.Empty(t, titles.Variations("Ys", 0))
}

func TestVariations_Invariants(t *testing.T) {
	inputs := []string{
		"The Witcher 3: Wild Hunt (2015)",
		"Dark Souls™: Game of the Year Edition (2012)",
		"Bayonetta 10th Anniversary Edition",
		"Final Fantasy X/X-2 HD Remaster",
		"Obscure Game XYZ",
	}

	for _, in := range inputs {
		got := titles.Variations(in, 0)
		require.NotEmpty(t, got, in)
		assert.Equal(t, titles.StripGlyphs(in), got[0], "first variation is the cleaned title")

		seen := map[string]bool{}
		for _, v := range got {
			assert.GreaterOrEqual(t, utf8.RuneCountInString(v), 4, "variation %q too short", v)
			assert.False(t, seen[v], "duplicate variation %q", v)
			seen[v] = true
		}
		assert.LessOrEqual(t, len(got), titles.DefaultMaxVariations)
	}
}

func TestGenerator_MaxVariations(t *testing.T) {
	g := titles.Generator{MaxVariations: 2}
	got := g.Generate("Tomb Raider™: Definitive Edition (2014)", 0)
	assert.Equal(t, []string{
		"Tomb Raider: Definitive Edition (2014)",
		"Tomb Raider™: Definitive Edition (2014)",
	}, got)
}

func TestYearHint(t *testing.T) {
	assert.Equal(t, 2015, titles.YearHint("The Witcher 3: Wild Hunt (2015)"))
	assert.Equal(t, 0, titles.YearHint("Cyberpunk 2077"))
	assert.Equal(t, 0, titles.YearHint("Ancient (1800)"))
	assert.Equal(t, 0, titles.YearHint(""))
}

func TestCandidateYear(t *testing.T) {
	assert.Equal(t, 2010, titles.CandidateYear("Alan Wake (2010)"))
	assert.Equal(t, 0, titles.CandidateYear("Cyberpunk 2077"))
	assert.Equal(t, 0, titles.CandidateYear(""))
}
