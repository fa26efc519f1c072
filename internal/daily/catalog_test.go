package daily

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltinPools(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{PoolBonus, PoolPrompts}, c.Names())

	for _, name := range c.Names() {
		p, err := c.Pool(name)
		require.NoError(t, err)
		assert.NotZero(t, p.Len(), name)
		for _, item := range p.Items {
			assert.Positive(t, item.Points, item.ID)
		}
	}
}

func TestCatalog_TodayMatchesSelect(t *testing.T) {
	c := MustLoad()
	ref := time.Date(2024, 5, 17, 14, 0, 0, 0, time.UTC)

	p, err := c.Pool(PoolPrompts)
	require.NoError(t, err)
	want, err := Select(p, ref)
	require.NoError(t, err)

	got, err := c.Today(PoolPrompts, ref)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	found, ok := c.Find(PoolPrompts, got.ID)
	assert.True(t, ok)
	assert.Equal(t, got, found)
}

func TestCatalog_UnknownPool(t *testing.T) {
	c := MustLoad()
	_, err := c.Today("limericks", time.Now())
	assert.True(t, errors.Is(err, ErrUnknownPool))
	_, ok := c.Find("limericks", "x")
	assert.False(t, ok)
}

func TestCatalog_PoolReturnsCopy(t *testing.T) {
	c := MustLoad()
	p, err := c.Pool(PoolBonus)
	require.NoError(t, err)
	p.Items[0].ID = "mutated"

	again, err := c.Pool(PoolBonus)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Items[0].ID)
}

func TestParse_RejectsInvalidPools(t *testing.T) {
	tests := map[string]string{
		"empty pool":   "pools:\n  - name: prompts\n    items: []\n",
		"no pools":     "pools: []\n",
		"duplicate id": "pools:\n  - name: p\n    items:\n      - {id: a, text: x}\n      - {id: a, text: y}\n",
		"missing text": "pools:\n  - name: p\n    items:\n      - {id: a}\n",
		"twice":        "pools:\n  - name: p\n    items: [{id: a, text: x}]\n  - name: p\n    items: [{id: b, text: y}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("pools:\n  - name: prompts\n    items: []\n"))
	assert.True(t, errors.Is(err, ErrEmptyPool))
}
