package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/progression"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPromptToday_IsDeterministic(t *testing.T) {
	first, err := run(t, "prompt", "today", "--date", "2024-01-04", "--json")
	require.NoError(t, err)
	second, err := run(t, "prompt", "today", "--date", "2024-01-04", "--json")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var got struct {
		DayOfYear int        `json:"day_of_year"`
		Item      daily.Item `json:"item"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &got))
	assert.Equal(t, 4, got.DayOfYear)

	pool, err := daily.MustLoad().Pool(daily.PoolPrompts)
	require.NoError(t, err)
	assert.Equal(t, pool.Items[4%pool.Len()].ID, got.Item.ID)
}

func TestPromptToday_Errors(t *testing.T) {
	_, err := run(t, "prompt", "today", "--date", "04/01/2024")
	assert.Error(t, err)

	_, err = run(t, "prompt", "today", "--tz", "Nowhere/Special")
	assert.Error(t, err)

	_, err = run(t, "prompt", "today", "--pool", "haiku")
	assert.ErrorIs(t, err, daily.ErrUnknownPool)
}

func TestPromptList(t *testing.T) {
	out, err := run(t, "prompt", "list", "--pool", "bonus")
	require.NoError(t, err)
	assert.Contains(t, out, "exactly-100")
	assert.Contains(t, out, "INDEX")
}

func TestTier(t *testing.T) {
	out, err := run(t, "tier", "49", "--json")
	require.NoError(t, err)

	var p progression.Progress
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 1, p.PointsToNextTier)

	_, err = run(t, "tier", "lots")
	assert.Error(t, err)

	out, err = run(t, "tiers")
	require.NoError(t, err)
	assert.Contains(t, out, "Literary Legend")
}

func TestBadges(t *testing.T) {
	out, err := run(t, "badges", "--stories", "1", "--json")
	require.NoError(t, err)

	var rows []struct {
		ID       string `json:"id"`
		Unlocked bool   `json:"unlocked"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))

	unlocked := map[string]bool{}
	for _, r := range rows {
		unlocked[r.ID] = r.Unlocked
	}
	assert.True(t, unlocked["first-story"])
	assert.False(t, unlocked["five-stories"])
}
