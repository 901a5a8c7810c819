package pathfinder_test

import (
	. "github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

func TestNoWalls(t *testing.T) {
	var ws WallSet
	for goalRow := int8(0); goalRow < BoardSize; goalRow++ {
		for x := int8(0); x < BoardSize; x++ {
			for y := int8(0); y < BoardSize; y++ {
				want := int(AbsInt8(y - goalRow))
				require.Equalf(t, want, ShortestPathLength(Pos{x, y}, goalRow, ws),
					"start=%s goalRow=%d", Pos{x, y}, goalRow)
			}
		}
	}
}

func TestDetour(t *testing.T) {
	// Walls above (4,7) and (5,7), and to the left of (4,7), force a two column detour.
	ws := WallSet{}.With(H(4, 7)).With(H(5, 7)).With(V(3, 7))
	assert.Equal(t, 3, ShortestPathLength(Pos{4, 7}, 8, ws))
	path := ShortestPath(Pos{4, 7}, 8, ws)
	require.Len(t, path, 3)
	assert.Equal(t, []Pos{{5, 7}, {6, 7}, {6, 8}}, path)
	assert.Equal(t, int8(8), path[len(path)-1].Y())
	prev := Pos{4, 7}
	for _, pos := range path {
		assert.Equal(t, 1, prev.ManhattanDistance(pos))
		assert.False(t, ws.IsBlocked(prev, pos))
		prev = pos
	}

	// Already on the goal row.
	assert.Equal(t, 0, ShortestPathLength(Pos{2, 8}, 8, ws))
	assert.NotNil(t, ShortestPath(Pos{2, 8}, 8, ws))
	assert.Empty(t, ShortestPath(Pos{2, 8}, 8, ws))
}

// sealRow returns walls blocking every crossing between row and row+1.
func sealRow(row int8) (ws WallSet) {
	for col := int8(0); col < WallGridSize; col++ {
		ws = ws.With(H(col, row))
	}
	return
}

func TestUnreachable(t *testing.T) {
	// Horizontal walls on the 8x8 wall grid can't cover column 8, so sealing a row leaves a
	// detour through column 8.
	ws := sealRow(3)
	assert.Equal(t, 8+8, ShortestPathLength(Pos{0, 0}, 8, ws))
	assert.Equal(t, 8, ShortestPathLength(Pos{8, 0}, 8, ws))

	// Box (0,0): right and up.
	ws = WallSet{}.With(V(0, 0)).With(H(0, 0))
	assert.Equal(t, Unreachable, ShortestPathLength(Pos{0, 0}, 8, ws))
	assert.Nil(t, ShortestPath(Pos{0, 0}, 8, ws))
	assert.False(t, HasPath(Pos{0, 0}, 8, ws))
	assert.True(t, HasPath(Pos{1, 0}, 8, ws))

	// Invalid inputs are unreachable too.
	assert.Equal(t, Unreachable, ShortestPathLength(Pos{-1, 0}, 8, ws))
	assert.Equal(t, Unreachable, ShortestPathLength(Pos{1, 0}, 9, ws))
}

func TestCache(t *testing.T) {
	cache := NewCache()
	ws := WallSet{}.With(H(4, 7))
	assert.Equal(t, 2, cache.ShortestPathLength(Pos{4, 7}, 8, ws))
	assert.Equal(t, 2, cache.ShortestPathLength(Pos{4, 7}, 8, ws))
	assert.Equal(t, 1, cache.ShortestPathLength(Pos{4, 7}, 8, WallSet{}))
	stats := cache.Stats()
	assert.Equal(t, CacheStats{Entries: 2, Hits: 1, Misses: 2}, stats)

	cache.Reset()
	assert.Equal(t, CacheStats{}, cache.Stats())

	// A nil cache works, without memoization.
	var nilCache *Cache
	assert.Equal(t, 2, nilCache.ShortestPathLength(Pos{4, 7}, 8, ws))

	// Concurrent use.
	var wg sync.WaitGroup
	for ii := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := int8(0); y < BoardSize; y++ {
				assert.Equal(t, int(AbsInt8(y-int8(ii))), cache.ShortestPathLength(Pos{int8(ii), y}, int8(ii), WallSet{}))
			}
		}()
	}
	wg.Wait()
}
