package state_test

import (
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand/v2"
	"testing"
)

func TestIsBlocked(t *testing.T) {
	var ws WallSet
	ws = ws.With(H(3, 4)).With(V(5, 2))

	// Horizontal wall at (3,4) blocks (3,4)<->(3,5) only.
	assert.True(t, ws.IsBlocked(Pos{3, 4}, Pos{3, 5}))
	assert.True(t, ws.IsBlocked(Pos{3, 5}, Pos{3, 4}))
	assert.False(t, ws.IsBlocked(Pos{4, 4}, Pos{4, 5}))
	assert.False(t, ws.IsBlocked(Pos{3, 3}, Pos{3, 4}))
	assert.False(t, ws.IsBlocked(Pos{3, 4}, Pos{4, 4}))

	// Vertical wall at (5,2) blocks (5,2)<->(6,2) only.
	assert.True(t, ws.IsBlocked(Pos{5, 2}, Pos{6, 2}))
	assert.True(t, ws.IsBlocked(Pos{6, 2}, Pos{5, 2}))
	assert.False(t, ws.IsBlocked(Pos{5, 3}, Pos{6, 3}))
	assert.False(t, ws.IsBlocked(Pos{5, 2}, Pos{5, 3}))

	// Non-adjacent cells are never reachable in one step.
	assert.True(t, ws.IsBlocked(Pos{0, 0}, Pos{2, 0}))
	assert.True(t, ws.IsBlocked(Pos{0, 0}, Pos{1, 1}))
	assert.True(t, ws.IsBlocked(Pos{0, 0}, Pos{0, 0}))
}

func TestValidMoveCount(t *testing.T) {
	var ws WallSet
	assert.Equal(t, 2, ws.ValidMoveCount(Pos{0, 0}))
	assert.Equal(t, 3, ws.ValidMoveCount(Pos{4, 0}))
	assert.Equal(t, 4, ws.ValidMoveCount(Pos{4, 4}))

	// Box (4,4) on three sides.
	ws = ws.With(H(4, 4)).With(H(4, 3)).With(V(4, 4))
	assert.Equal(t, 1, ws.ValidMoveCount(Pos{4, 4}))
	assert.Equal(t, []Pos{{3, 4}}, ws.Neighbors(Pos{4, 4}, nil))
}

func TestWallSet(t *testing.T) {
	var ws WallSet
	assert.Equal(t, 0, ws.Len())
	all := AllWalls()
	require.Len(t, all, 2*WallGridSize*WallGridSize)
	for _, w := range all {
		require.True(t, w.IsValid())
		require.False(t, ws.Has(w), "wall %s generated twice", w)
		ws = ws.With(w)
	}
	assert.Equal(t, len(all), ws.Len())
	assert.False(t, Wall{Anchor: Pos{8, 0}, Horizontal: true}.IsValid())
	assert.False(t, Wall{Anchor: Pos{0, -1}}.IsValid())
}

func TestActAndClone(t *testing.T) {
	s := NewGameState()
	require.NoError(t, s.Validate())

	s1 := s.Act(SideAI, MoveTo(Pos{4, 7}))
	assert.Equal(t, Pos{4, 8}, s.AIPos, "Act must not change the original state")
	assert.Equal(t, Pos{4, 7}, s1.AIPos)

	s2 := s1.Act(SideHuman, PlaceWall(H(4, 6)))
	assert.Empty(t, s1.Walls)
	assert.Equal(t, []Wall{H(4, 6)}, s2.Walls)
	assert.Equal(t, int8(InitialWalls-1), s2.HumanWallsLeft)
	assert.Equal(t, int8(InitialWalls), s2.AIWallsLeft)
	require.NoError(t, s2.Validate())

	clone := s2.Clone()
	clone.Walls[0] = V(0, 0)
	assert.Equal(t, H(4, 6), s2.Walls[0], "Clone must deep copy the walls")

	assert.Equal(t, s2, s2.Act(SideAI, NoMove).Act(SideHuman, NoMove))
}

func TestValidate(t *testing.T) {
	s := NewGameState()
	s.AIPos = Pos{9, 0}
	assert.Error(t, s.Validate())

	s = NewGameState()
	s.HumanWallsLeft = 11
	assert.Error(t, s.Validate())

	s = Build(Pos{4, 8}, Pos{4, 0}, H(1, 1))
	s.Walls = append(s.Walls, H(1, 1))
	s.AIWallsLeft--
	assert.Error(t, s.Validate())

	s = NewGameState()
	s.Walls = []Wall{V(2, 2)}
	assert.Error(t, s.Validate(), "walls placed without being charged to any side")
}

func TestGameOver(t *testing.T) {
	goals := DefaultGoals
	s := NewGameState()
	assert.False(t, s.IsGameOver(goals))
	assert.Equal(t, SideInvalid, s.Winner(goals))

	s.AIPos = Pos{2, 0}
	assert.True(t, s.IsGameOver(goals))
	assert.Equal(t, SideAI, s.Winner(goals))

	s = NewGameState()
	s.HumanPos = Pos{2, 8}
	assert.Equal(t, SideHuman, s.Winner(goals))
}

func TestSwap(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	goals := DefaultGoals
	for range 20 {
		s := RandomState(rng, goals, 6)
		swapped := s.Swap()
		assert.Equal(t, s.AIPos, swapped.HumanPos)
		assert.Equal(t, s.HumanPos, swapped.AIPos)
		assert.Equal(t, s.AIWallsLeft, swapped.HumanWallsLeft)
		assert.Equal(t, SideInvalid, swapped.Winner(goals.Swap()))
		assert.Equal(t, s, swapped.Swap())
	}
	assert.Equal(t, goals, goals.Swap().Swap())
}

func TestSideAndMoveStrings(t *testing.T) {
	assert.Equal(t, "AI", SideAI.String())
	assert.Equal(t, SideHuman, SideAI.Opponent())
	assert.Equal(t, "move to (3,4)", MoveTo(Pos{3, 4}).String())
	assert.Equal(t, "wall V(1,2)", PlaceWall(V(1, 2)).String())
	assert.Equal(t, "no move", NoMove.String())
	assert.True(t, NoMove.IsNone())
	assert.Equal(t, V(1, 2), PlaceWall(V(1, 2)).Wall())
}
