package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableIsContiguous(t *testing.T) {
	table := Tiers()
	require.NotEmpty(t, table)
	assert.Equal(t, 0, table[0].MinPoints)
	for i := 1; i < len(table); i++ {
		prev, cur := table[i-1], table[i]
		assert.Equal(t, prev.MaxPoints+1, cur.MinPoints, "gap before level %d", cur.Level)
		assert.Equal(t, prev.Level+1, cur.Level)
		assert.Equal(t, prev.MaxPoints-prev.MinPoints+1, prev.PointsNeeded, "level %d", prev.Level)
	}
	assert.True(t, table[len(table)-1].Terminal())
}

func TestTierFor_Boundaries(t *testing.T) {
	p := TierFor(0)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 50, p.PointsToNextTier)
	assert.Zero(t, p.ProgressPercentage)

	p = TierFor(49)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 1, p.PointsToNextTier)
	assert.InDelta(t, 98.0, p.ProgressPercentage, 0.0001)

	p = TierFor(50)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 0, p.PointsInTier)
	assert.Equal(t, 75, p.PointsToNextTier)

	p = TierFor(124)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 1, p.PointsToNextTier)
}

func TestTierFor_Terminal(t *testing.T) {
	table := Tiers()
	last := table[len(table)-1]

	for _, total := range []int{last.MinPoints, last.MinPoints + 10_000, math.MaxInt} {
		p := TierFor(total)
		assert.Equal(t, last.Level, p.Level)
		assert.True(t, p.Terminal)
		assert.Zero(t, p.PointsToNextTier)
		assert.Equal(t, 100.0, p.ProgressPercentage)
	}
}

func TestTierFor_NegativeFallsBackToFirstTier(t *testing.T) {
	p := TierFor(-20)
	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.PointsInTier)
	assert.Equal(t, 50, p.PointsToNextTier)
}

func TestTierFor_Monotonic(t *testing.T) {
	prev := TierFor(0)
	for total := 1; total <= 2500; total++ {
		cur := TierFor(total)
		assert.GreaterOrEqual(t, cur.Level, prev.Level, "total %d", total)
		assert.LessOrEqual(t, cur.ProgressPercentage, 100.0)
		assert.GreaterOrEqual(t, cur.PointsToNextTier, 0)
		prev = cur
	}
}

func TestTierFor_ScenarioTable(t *testing.T) {
	table := []Tier{
		{Level: 1, Title: "one", MinPoints: 0, MaxPoints: 49, PointsNeeded: 50},
		{Level: 2, Title: "two", MinPoints: 50, MaxPoints: 124, PointsNeeded: 75},
	}
	p := tierFor(table, 49)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 1, p.PointsToNextTier)
	assert.Equal(t, 2, tierFor(table, 50).Level)
	// Beyond a table without a terminal tier, the first tier is returned.
	assert.Equal(t, 1, tierFor(table, 500).Level)
}
