package daily

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abcPool() Pool {
	return Pool{Name: "abc", Items: []Item{{ID: "A"}, {ID: "B"}, {ID: "C"}}}
}

func TestDayOfYear(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"first day", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{"late evening", time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), 1},
		{"leap day", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), 60},
		{"after leap day", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 61},
		{"non leap march", time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC), 60},
		{"leap year end", time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC), 366},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayOfYear(tt.at))
		})
	}
}

func TestDayOfYear_UsesLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	// 20:00 UTC on Jan 1 is already Jan 2 in UTC+7.
	at := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DayOfYear(at))
	assert.Equal(t, 2, DayOfYear(at.In(loc)))
}

func TestIndexFor(t *testing.T) {
	assert.Equal(t, 0, IndexFor(0, 3))
	assert.Equal(t, 1, IndexFor(4, 3))
	assert.Equal(t, 2, IndexFor(-1, 3))
	assert.Equal(t, 0, IndexFor(365, 1))
}

func TestSelect_Scenario(t *testing.T) {
	pool := abcPool()
	assert.Equal(t, "A", pool.Items[IndexFor(0, pool.Len())].ID)

	// Jan 4 is day 4: 4 mod 3 = 1.
	item, err := Select(pool, time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "B", item.ID)

	// Jan 3 is day 3: 3 mod 3 = 0.
	item, err = Select(pool, time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "A", item.ID)
}

func TestSelect_StableWithinDay(t *testing.T) {
	pool := abcPool()
	day := time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC)
	first, err := Select(pool, day)
	require.NoError(t, err)
	for h := 0; h < 24; h++ {
		got, err := Select(pool, day.Add(time.Duration(h)*time.Hour+17*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, first, got, "hour %d", h)
	}
}

func TestSelect_SingleItemPool(t *testing.T) {
	pool := Pool{Items: []Item{{ID: "only"}}}
	for d := 0; d < 400; d += 37 {
		item, err := Select(pool, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d))
		require.NoError(t, err)
		assert.Equal(t, "only", item.ID)
	}
}

func TestSelect_EmptyPool(t *testing.T) {
	_, err := Select(Pool{Name: "prompts"}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyPool))
}
