package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(parents map[int]int) func(int) (int, error) {
	return func(id int) (int, error) {
		return parents[id], nil
	}
}

func TestParentChainContains(t *testing.T) {
	// 3 → 2 → 1 → root
	parents := map[int]int{3: 2, 2: 1}

	t.Run("self parent", func(t *testing.T) {
		found, err := parentChainContains(1, 1, mapLookup(parents))
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("deep ancestor", func(t *testing.T) {
		found, err := parentChainContains(1, 3, mapLookup(parents))
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("unrelated chain", func(t *testing.T) {
		found, err := parentChainContains(9, 3, mapLookup(parents))
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("two node cycle rejected", func(t *testing.T) {
		// reparenting 1 under 2 while 2 already hangs off 1
		found, err := parentChainContains(1, 2, mapLookup(map[int]int{2: 1}))
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("existing cycle in data terminates", func(t *testing.T) {
		// corrupt chain 5 → 6 → 5 must not hang the walk
		found, err := parentChainContains(7, 5, mapLookup(map[int]int{5: 6, 6: 5}))
		require.NoError(t, err)
		assert.False(t, found)
	})
}
