package cmd_test

import (
	"testing"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownsClearCommand(t *testing.T) {
	last := time.Now().Add(-time.Hour).UTC()
	failed := cooldown.State{Attempts: 1, LastAttempt: &last}
	path := writeCatalog(t,
		catalog.Entry{ID: "1", Name: "Alan Wake", ScoreRetry: failed},
		catalog.Entry{ID: "2", Name: "Celeste", ScoreRetry: failed, DurationRetry: failed},
		catalog.Entry{ID: "3", Name: "Hades"},
	)

	out, _, err := executeCommand(t, new(MockFetcher), "cooldowns", "clear", "--field", "duration", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cooldowns on 1 entries.")
	assert.True(t, readEntry(t, path, "2").DurationRetry.IsZero())
	assert.Equal(t, 1, readEntry(t, path, "2").ScoreRetry.Attempts)

	out, _, err = executeCommand(t, new(MockFetcher), "cooldowns", "clear", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cooldowns on 2 entries.")
	assert.True(t, readEntry(t, path, "1").ScoreRetry.IsZero())
	assert.True(t, readEntry(t, path, "2").ScoreRetry.IsZero())
}

func TestCooldownsClearCommand_UnknownField(t *testing.T) {
	path := writeCatalog(t)
	_, _, err := executeCommand(t, new(MockFetcher), "cooldowns", "clear", "-f", "rating", "--catalog", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrUnknownField)
}
