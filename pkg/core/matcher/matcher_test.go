package matcher_test

import (
	"testing"

	"github.com/angelospk/gamecrawl/pkg/core/matcher"
	"github.com/stretchr/testify/assert"
)

func TestIsMatch(t *testing.T) {
	testCases := []struct {
		name     string
		searched string
		found    string
		want     bool
	}{
		{"Sequel rejected", "God of War", "God of War II", false},
		{"Edition stripped to exact", "Tomb Raider Definitive Edition", "Tomb Raider", true},
		{"Sports years differ", "FIFA 19", "FIFA 20", false},
		{"Close numerals must agree", "Grand Theft Auto V", "Grand Theft Auto IV", false},
		{"Punctuation only", "Halo Infinite", "Halo: Infinite", true},
		{"Hyphenated spelling", "Spiderman", "Spider-Man", true},
		{"Spin-off rejected", "Hollow Knight", "Hollow Knight: Silksong", false},
		{"Unrelated short titles", "Control", "Contrast", false},
		{"Director's cut", "Ghost of Tsushima", "Ghost of Tsushima Director's Cut", true},
		{"Part qualifier dropped", "The Last of Us Part II", "The Last of Us Part II Remastered", true},
		{"Loose threshold boundary", "Celeste", "Celestia", true},
		{"Possessive without apostrophe", "Marvel's Spider-Man", "Marvels Spider-Man", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matcher.IsMatch(tc.searched, tc.found))
		})
	}
}

func TestCompare_Decision(t *testing.T) {
	m := matcher.New(matcher.DefaultConfig())

	d := m.Compare("God of War", "God of War II", false)
	assert.False(t, d.Match)
	assert.True(t, d.HasNumerals)
	assert.Equal(t, matcher.DefaultStrictThreshold, d.Threshold)
	assert.InDelta(t, 70.0, d.Similarity, 0.001)
	assert.Greater(t, d.JaroWinkler, 0.8)

	d = m.Compare("Tomb Raider Definitive Edition", "Tomb Raider", false)
	assert.True(t, d.Exact)
	assert.True(t, d.Match)
	assert.Equal(t, "tomb raider", d.Searched)
}

func TestCompare_RelaxedWhenYearsAgree(t *testing.T) {
	m := matcher.New(matcher.DefaultConfig())

	d := m.Compare("Kingdom Hearts", "Kingdom Hearts Melody", false)
	assert.False(t, d.Match)
	assert.Equal(t, matcher.DefaultLooseThreshold, d.Threshold)

	d = m.Compare("Kingdom Hearts", "Kingdom Hearts Melody", true)
	assert.True(t, d.Match)
	assert.Equal(t, matcher.DefaultRelaxedThreshold, d.Threshold)

	// Agreeing years do not help pairs with a low Jaro-Winkler score.
	d = m.Compare("Sky Force", "Star Force", true)
	assert.InDelta(t, 70.0, d.Similarity, 0.001)
	assert.Less(t, d.JaroWinkler, matcher.DefaultRelaxedMinJaroWinkler)
	assert.Equal(t, matcher.DefaultLooseThreshold, d.Threshold)
	assert.False(t, d.Match)

	// Numerals keep the strict threshold even when years agree.
	d = m.Compare("FIFA 19", "FIFA 20", true)
	assert.False(t, d.Match)
	assert.Equal(t, matcher.DefaultStrictThreshold, d.Threshold)
}

func TestCompare_RelaxedMinJaroWinklerConfigurable(t *testing.T) {
	lenient := matcher.New(matcher.Config{RelaxedMinJaroWinkler: 0.7})
	d := lenient.Compare("Sky Force", "Star Force", true)
	assert.Equal(t, matcher.DefaultRelaxedThreshold, d.Threshold)
	assert.True(t, d.Match)

	strict := matcher.New(matcher.Config{RelaxedMinJaroWinkler: 0.95})
	d = strict.Compare("Kingdom Hearts", "Kingdom Hearts Melody", true)
	assert.Greater(t, d.JaroWinkler, 0.9)
	assert.Equal(t, matcher.DefaultLooseThreshold, d.Threshold)
	assert.False(t, d.Match)
}

func TestNew_ConfigOverrides(t *testing.T) {
	m := matcher.New(matcher.Config{LooseThreshold: 60})
	assert.Equal(t, 60.0, m.Config().LooseThreshold)
	assert.Equal(t, matcher.DefaultStrictThreshold, m.Config().StrictThreshold)
	assert.Equal(t, matcher.DefaultRelaxedMinJaroWinkler, m.Config().RelaxedMinJaroWinkler)
	assert.False(t, m.Config().NumeralsMustAgree)

	// Without numeral agreement the similarity alone decides.
	assert.True(t, m.IsMatch("Grand Theft Auto V", "Grand Theft Auto IV"))
	assert.True(t, m.IsMatch("Okami", "Okami HD"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, matcher.Similarity("", ""))
	assert.Equal(t, 100.0, matcher.Similarity("hades", "hades"))
	assert.InDelta(t, 62.5, matcher.Similarity("hades", "hades ii"), 0.001)
	assert.InDelta(t, 100*6/7.0, matcher.Similarity("pokémon", "pokemon"), 0.001)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "last us 2", matcher.Canonical("The Last of Us Part 2"))
	assert.Equal(t, "final fantasy vii", matcher.Canonical("Final Fantasy VII"))
}
