package titles_test

import (
	"testing"

	"github.com/angelospk/gamecrawl/pkg/core/titles"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Trademark glyph and article", "The Witcher® 3: Wild Hunt", "witcher 3 wild hunt"},
		{"Question prefix", "How long is Hades?", "hades"},
		{"Edition phrase and year", "Tomb Raider: Definitive Edition (2014)", "tomb raider"},
		{"Accents folded", "Pokémon™ Legends: Arceus", "pokemon legends arceus"},
		{"Bare qualifier", "Alan Wake Remastered", "alan wake"},
		{"Game of the Year after stop-words", "Dark Souls: Game of the Year Edition", "dark souls"},
		{"Director's cut", "Death Stranding Director's Cut", "death stranding"},
		{"Anniversary edition", "Bayonetta 10th Anniversary Edition", "bayonetta"},
		{"Dashes become separators", "Metal Gear Solid 3 – Snake Eater", "metal gear solid 3 snake eater"},
		{"Roman numerals kept", "God of War II", "god war ii"},
		{"Possessive joined", "Marvel's Spider-Man", "marvels spider man"},
		{"Curly apostrophe joined", "Assassin’s Creed", "assassins creed"},
		{"Collector's edition with apostrophe", "Diablo Collector's Edition", "diablo"},
		{"Only qualifiers keeps words", "The Ultimate", "the ultimate"},
		{"Empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, titles.Normalize(tc.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"The Witcher® 3: Wild Hunt (2015)",
		"How long is how long is The Last of Us Part II?",
		"Tomb Raider: Definitive Edition",
		"The Ultimate",
		"The (2015)",
		"Ratchet & Clank: Rift Apart",
		"Final Fantasy VII Remake Intergrade",
		"Halo: The Master Chief Collection",
		"A Plague Tale: Innocence",
		"Ön",
		"  spaced    out   title  ",
	}

	for _, in := range inputs {
		once := titles.Normalize(in)
		assert.Equal(t, once, titles.Normalize(once), "normalize should be idempotent for %q", in)
	}
}

func TestStripGlyphs(t *testing.T) {
	assert.Equal(t, "Tomb Raider: Definitive Edition", titles.StripGlyphs("Tomb Raider™:  Definitive Edition"))
	assert.Equal(t, "Halo", titles.StripGlyphs(" Halo® "))
}

func TestDetectEditions(t *testing.T) {
	assert.Equal(t, []string{"Game of the Year Edition"}, titles.DetectEditions("Dark Souls: Game of the Year Edition"))
	assert.Equal(t, []string{"Remastered"}, titles.DetectEditions("Alan Wake Remastered"))
	assert.Empty(t, titles.DetectEditions("Hollow Knight"))
}

func TestRemoveEditions(t *testing.T) {
	assert.Equal(t, "Tomb Raider", titles.RemoveEditions("Tomb Raider: Definitive Edition"))
	assert.Equal(t, "Skyrim", titles.RemoveEditions("Skyrim (Special Edition)"))
	assert.Equal(t, "Hollow Knight", titles.RemoveEditions("Hollow Knight"))
}
