package catalog_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestEntry_JSONKeepsUnknownKeys(t *testing.T) {
	raw := `{"id":"g1","name":"Hades","status":"playing","tags":["rogue"],"score":93,
"durationRetry":{"attempts":1,"lastAttempt":"2024-06-01T10:00:00Z"}}`

	var e catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, "g1", e.ID)
	assert.Equal(t, "Hades", e.Name)
	require.NotNil(t, e.Score)
	assert.Equal(t, 93.0, *e.Score)
	assert.Nil(t, e.HoursToBeat)
	assert.Equal(t, 1, e.DurationRetry.Attempts)
	assert.True(t, e.ScoreRetry.IsZero())
	assert.Contains(t, e.Extra, "status")
	assert.Contains(t, e.Extra, "tags")
	assert.NotContains(t, e.Extra, "score")

	out, err := json.Marshal(e)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "playing", back["status"])
	assert.Equal(t, []any{"rogue"}, back["tags"])
	assert.Equal(t, 93.0, back["score"])
	assert.NotContains(t, back, "scoreRetry", "zero retry state is omitted")
	assert.Contains(t, back, "durationRetry")
}

func TestPatch_Apply(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e := catalog.Entry{ID: "g1", Name: "Celeste", DurationRetry: cooldown.State{Attempts: 2}}

	p := catalog.FieldPatch(catalog.FieldDuration, ptr(8.5), &cooldown.State{LastAttempt: &now})
	assert.False(t, p.IsEmpty())
	assert.Nil(t, p.Score)
	p.Apply(&e)

	require.NotNil(t, e.HoursToBeat)
	assert.Equal(t, 8.5, *e.HoursToBeat)
	assert.Equal(t, 0, e.DurationRetry.Attempts)
	assert.Nil(t, e.Score)
	assert.True(t, e.Has(catalog.FieldDuration))
	assert.False(t, e.Has(catalog.FieldScore))

	assert.True(t, catalog.Patch{}.IsEmpty())
}

func TestParseField(t *testing.T) {
	f, err := catalog.ParseField(" Score ")
	require.NoError(t, err)
	assert.Equal(t, catalog.FieldScore, f)

	f, err = catalog.ParseField("duration")
	require.NoError(t, err)
	assert.Equal(t, catalog.FieldDuration, f)

	_, err = catalog.ParseField("rating")
	assert.True(t, errors.Is(err, coreerrors.ErrUnknownField))
}

func TestDriverFromPath(t *testing.T) {
	assert.Equal(t, catalog.DriverSQLite, catalog.DriverFromPath("/data/games.db"))
	assert.Equal(t, catalog.DriverJSON, catalog.DriverFromPath("/data/games.json"))
	assert.Equal(t, catalog.DriverJSON, catalog.DriverFromPath("games"))
}
