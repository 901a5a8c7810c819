// Package statetest provides helper functions to create tests using Quoridor states.
package statetest

import (
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"math/rand/v2"
)

// H returns a horizontal wall anchored at (col, row).
func H(col, row int8) Wall {
	return Wall{Anchor: Pos{col, row}, Horizontal: true}
}

// V returns a vertical wall anchored at (col, row).
func V(col, row int8) Wall {
	return Wall{Anchor: Pos{col, row}, Horizontal: false}
}

// Build a state with the pawns at the given positions and the walls placed, charged alternately
// to the AI and the human (starting with the AI).
func Build(aiPos, humanPos Pos, walls ...Wall) *GameState {
	s := NewGameState()
	s.AIPos = aiPos
	s.HumanPos = humanPos
	for ii, w := range walls {
		side := SideAI
		if ii%2 == 1 {
			side = SideHuman
		}
		s = s.Act(side, PlaceWall(w))
	}
	return s
}

// RandomState returns a state with random pawn positions, none of them already on their
// goal rows, and up to numWalls random walls, keeping both pawns connected to their goals.
func RandomState(rng *rand.Rand, goals Goals, numWalls int) *GameState {
	randomPos := func(goalRow int8) Pos {
		for {
			pos := Pos{int8(rng.IntN(BoardSize)), int8(rng.IntN(BoardSize))}
			if pos[1] != goalRow {
				return pos
			}
		}
	}
	s := NewGameState()
	s.AIPos = randomPos(goals.AI)
	for {
		s.HumanPos = randomPos(goals.Human)
		if s.HumanPos != s.AIPos {
			break
		}
	}
	all := AllWalls()
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	side := SideAI
	for _, w := range all {
		if len(s.Walls) >= numWalls {
			break
		}
		ws := s.WallSet().With(w)
		if s.WallSet().Has(w) ||
			!pathfinder.HasPath(s.AIPos, goals.AI, ws) || !pathfinder.HasPath(s.HumanPos, goals.Human, ws) {
			continue
		}
		if s.WallsLeft(side) == 0 {
			side = side.Opponent()
		}
		s = s.Act(side, PlaceWall(w))
		side = side.Opponent()
	}
	return s
}
