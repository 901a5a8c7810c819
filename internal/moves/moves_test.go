package moves_test

import (
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"testing"
)

func init() {
	klog.InitFlags(nil)
}

func TestStartPosition(t *testing.T) {
	gen := moves.NewGenerator(DefaultGoals, pathfinder.NewCache())
	s := NewGameState()
	got := gen.Generate(s, SideAI)
	// AI at (4,8), at the bottom edge.
	steps := gen.Steps(s, SideAI)
	assert.ElementsMatch(t, []Move{MoveTo(Pos{4, 7}), MoveTo(Pos{3, 8}), MoveTo(Pos{5, 8})}, steps)
	assert.Len(t, got, len(steps)+moves.DefaultMaxWalls)
	for ii, m := range got {
		if ii < len(steps) {
			assert.Equal(t, Movement, m.Kind)
		} else {
			assert.Equal(t, WallPlacement, m.Kind)
		}
	}

	// Best ranked walls for the AI are the closest to the human at (4,0): anchored at (4,0).
	first := got[len(steps)]
	assert.Equalf(t, Pos{4, 0}, first.Target, "Wanted first wall anchored at (4,0), got %s", first)

	// The full set of walls: on an empty board every one of the 128 walls is legal.
	assert.Len(t, gen.Walls(s, SideHuman), 2*WallGridSize*WallGridSize)
	assert.Len(t, moves.NewGenerator(DefaultGoals, nil).WithMaxWalls(0).Generate(s, SideAI), 3+128)
}

func TestNoWallsLeft(t *testing.T) {
	gen := moves.NewGenerator(DefaultGoals, nil)
	s := NewGameState()
	s.AIWallsLeft = 0
	got := gen.Generate(s, SideAI)
	require.Len(t, got, 3)
	for _, m := range got {
		assert.Equal(t, Movement, m.Kind)
	}
	assert.Nil(t, gen.Walls(s, SideAI))
	assert.Len(t, gen.Generate(s, SideHuman), 3+moves.DefaultMaxWalls)
}

func TestWallScore(t *testing.T) {
	assert.Equal(t, float32(10), moves.WallScore(H(4, 0), Pos{4, 0}))
	assert.InDelta(t, 5.0, moves.WallScore(V(1, 4), Pos{4, 0}), 1e-5)
}

func TestLegalWalls(t *testing.T) {
	// Box (0,0) on two sides: closing the human at (0,0) with H(0,0) must be illegal,
	// because the human's goal is row 8 and only H(0,0) and V(0,0) stand in the way.
	s := Build(Pos{4, 8}, Pos{0, 0}, V(0, 0))
	gen := moves.NewGenerator(DefaultGoals, pathfinder.NewCache())
	assert.False(t, gen.IsLegalWall(s, H(0, 0)))
	assert.Error(t, gen.Check(s, SideAI, PlaceWall(H(0, 0))))
	assert.True(t, gen.IsLegalWall(s, H(1, 0)))
	assert.NoError(t, gen.Check(s, SideAI, PlaceWall(H(1, 0))))

	// Repeated walls and off-grid anchors.
	assert.False(t, gen.IsLegalWall(s, V(0, 0)))
	assert.Error(t, gen.Check(s, SideAI, PlaceWall(V(0, 0))))
	assert.False(t, gen.IsLegalWall(s, H(8, 0)))
	assert.Error(t, gen.Check(s, SideAI, PlaceWall(V(0, 8))))
	for _, m := range gen.Walls(s, SideAI) {
		assert.NotEqual(t, H(0, 0), m.Wall())
		assert.NotEqual(t, V(0, 0), m.Wall())
	}

	// No walls left.
	s.AIWallsLeft = 0
	assert.Error(t, gen.Check(s, SideAI, PlaceWall(H(4, 4))))
}

func TestCheckMovement(t *testing.T) {
	s := Build(Pos{4, 4}, Pos{4, 0}, H(4, 3))
	gen := moves.NewGenerator(DefaultGoals, nil)
	assert.NoError(t, gen.Check(s, SideAI, MoveTo(Pos{4, 5})))
	assert.NoError(t, gen.Check(s, SideAI, MoveTo(Pos{3, 4})))
	assert.Error(t, gen.Check(s, SideAI, MoveTo(Pos{4, 3})), "blocked by H(4,3)")
	assert.Error(t, gen.Check(s, SideAI, MoveTo(Pos{5, 5})), "diagonal")
	assert.Error(t, gen.Check(s, SideAI, MoveTo(Pos{4, 6})), "two cells")
	assert.Error(t, gen.Check(s, SideHuman, MoveTo(Pos{4, -1})), "off the board")
	assert.Error(t, gen.Check(s, SideAI, NoMove))
}

func TestRandomStates(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	paths := pathfinder.NewCache()
	gen := moves.NewGenerator(DefaultGoals, paths)
	for range 50 {
		s := RandomState(rng, DefaultGoals, rng.IntN(15))
		for _, side := range []Side{SideAI, SideHuman} {
			generated := gen.Generate(s, side)
			require.NotEmpty(t, generated)
			numWalls := 0
			for _, m := range generated {
				require.NoErrorf(t, gen.Check(s, side, m), "state %s, side %s: generated illegal move %s", s, side, m)
				next := s.Act(side, m)
				require.NoError(t, next.Validate())
				require.True(t, next.Pos(side).IsValid())
				if m.IsWall() {
					numWalls++
					ws := next.WallSet()
					require.True(t, pathfinder.HasPath(next.AIPos, DefaultGoals.AI, ws))
					require.True(t, pathfinder.HasPath(next.HumanPos, DefaultGoals.Human, ws))
				}
			}
			require.LessOrEqual(t, numWalls, moves.DefaultMaxWalls)
			if s.WallsLeft(side) == 0 {
				require.Zero(t, numWalls)
			}
		}
	}
}

func TestBlockingWalls(t *testing.T) {
	// Human two steps from its goal on row 0. The only wall in front of it, H(4,0), is anchored
	// two rows away and ranks below the walls around (4,2).
	goals := Goals{AI: 8, Human: 0}
	paths := pathfinder.NewCache()
	gen := moves.NewGenerator(goals, paths)
	s := Build(Pos{4, 5}, Pos{4, 2})
	require.True(t, gen.IsEmergency(s, SideAI))
	assert.NotContains(t, gen.Generate(s, SideAI), PlaceWall(H(4, 0)))

	blocking := gen.BlockingWalls(s, SideAI)
	require.Contains(t, blocking, PlaceWall(H(4, 0)))
	ws := s.WallSet()
	before := paths.ShortestPathLength(s.HumanPos, goals.Human, ws)
	assert.Equal(t, 3, paths.ShortestPathLength(s.HumanPos, goals.Human, ws.With(H(4, 0))))
	previous := pathfinder.Unreachable
	for _, m := range blocking {
		require.NoError(t, gen.Check(s, SideAI, m))
		length := paths.ShortestPathLength(s.HumanPos, goals.Human, ws.With(m.Wall()))
		assert.Greaterf(t, length, before, "%s doesn't lengthen the human path", m)
		assert.LessOrEqualf(t, length, previous, "%s out of order", m)
		previous = length
	}

	// Without walls left there is nothing to block with.
	s.AIWallsLeft = 0
	assert.False(t, gen.IsEmergency(s, SideAI))
	assert.Empty(t, gen.BlockingWalls(s, SideAI))

	// Far from its goal, no emergency.
	assert.False(t, gen.IsEmergency(Build(Pos{4, 2}, Pos{4, 6}), SideAI))
}
