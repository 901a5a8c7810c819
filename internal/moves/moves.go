// Package moves generates the legal moves of a side: pawn steps and wall placements.
//
// Wall placements are legal if the exact wall isn't placed yet, and if after placing it
// both pawns can still reach their goal rows. Since there can be up to 128 of them, the
// Generator ranks them by proximity to the opponent and keeps only the best few for search.
// The full set is available with Generator.Walls, and Generator.BlockingWalls filters it to
// the walls that lengthen the opponent's path.
package moves

import (
	"cmp"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"slices"
)

// DefaultMaxWalls is the number of wall placements Generate returns at most.
const DefaultMaxWalls = 8

// EmergencyDistance is the length of the opponent's shortest path at or below which blocking
// walls beyond the ranked ones are worth considering, see Generator.BlockingWalls.
const EmergencyDistance = 2

// Generator of moves. It is safe for concurrent use, as long as the path cache is.
type Generator struct {
	goals    Goals
	maxWalls int
	paths    *pathfinder.Cache
}

// NewGenerator returns a Generator for the given goals. paths is the cache used for the
// connectivity checks, and it may be nil.
func NewGenerator(goals Goals, paths *pathfinder.Cache) *Generator {
	return &Generator{goals: goals, maxWalls: DefaultMaxWalls, paths: paths}
}

// WithMaxWalls sets the maximum number of wall placements returned by Generate.
// A value <= 0 means no limit.
func (g *Generator) WithMaxWalls(maxWalls int) *Generator {
	g.maxWalls = maxWalls
	return g
}

// Goals used by the generator.
func (g *Generator) Goals() Goals {
	return g.goals
}

// Paths returns the path cache used by the generator.
func (g *Generator) Paths() *pathfinder.Cache {
	return g.paths
}

// Generate returns the pawn steps followed by the best ranked legal wall placements.
func (g *Generator) Generate(s *GameState, side Side) []Move {
	moves := g.Steps(s, side)
	if s.WallsLeft(side) <= 0 {
		return moves
	}
	return g.appendWalls(moves, s, side, g.maxWalls)
}

// Steps returns the pawn movements: the unblocked orthogonal neighbors in the board.
func (g *Generator) Steps(s *GameState, side Side) []Move {
	var buf [4]Pos
	neighbors := s.WallSet().Neighbors(s.Pos(side), buf[:0])
	moves := make([]Move, 0, len(neighbors)+g.maxWalls)
	for _, pos := range neighbors {
		moves = append(moves, MoveTo(pos))
	}
	return moves
}

// Walls returns all legal wall placements for side, ranked. It returns nil if side has no walls left.
func (g *Generator) Walls(s *GameState, side Side) []Move {
	if s.WallsLeft(side) <= 0 {
		return nil
	}
	return g.appendWalls(nil, s, side, 0)
}

// IsEmergency returns whether the opponent of side is within EmergencyDistance of its goal,
// and side has walls left to block it.
func (g *Generator) IsEmergency(s *GameState, side Side) bool {
	if s.WallsLeft(side) <= 0 {
		return false
	}
	opponent := side.Opponent()
	return g.paths.ShortestPathLength(s.Pos(opponent), g.goals.For(opponent), s.WallSet()) <= EmergencyDistance
}

type blockingWall struct {
	move   Move
	length int
}

// BlockingWalls returns the legal walls of side that lengthen the shortest path of its
// opponent, the longest resulting path first (ties in ranked order). It returns nil if side
// has no walls left.
func (g *Generator) BlockingWalls(s *GameState, side Side) []Move {
	opponent := side.Opponent()
	enemy, goalRow := s.Pos(opponent), g.goals.For(opponent)
	ws := s.WallSet()
	current := g.paths.ShortestPathLength(enemy, goalRow, ws)
	var blocking []blockingWall
	for _, m := range g.Walls(s, side) {
		if length := g.paths.ShortestPathLength(enemy, goalRow, ws.With(m.Wall())); length > current {
			blocking = append(blocking, blockingWall{m, length})
		}
	}
	slices.SortStableFunc(blocking, func(a, b blockingWall) int { return cmp.Compare(b.length, a.length) })
	return generics.SliceMap(blocking, func(b blockingWall) Move { return b.move })
}

// WallScore ranks a wall for the side whose opponent is at enemy: walls closer to the
// opponent rank higher.
func WallScore(w Wall, enemy Pos) float32 {
	return 10 - w.Anchor.Distance(enemy)
}

type rankedWall struct {
	wall  Wall
	score float32
}

// appendWalls appends up to limit (if > 0) legal walls, in ranked order.
// Ranking happens before the (expensive) legality check, which then only runs until
// enough walls are found.
func (g *Generator) appendWalls(moves []Move, s *GameState, side Side, limit int) []Move {
	enemy := s.Pos(side.Opponent())
	all := AllWalls()
	ranked := make([]rankedWall, len(all))
	for ii, w := range all {
		ranked[ii] = rankedWall{wall: w, score: WallScore(w, enemy)}
	}
	slices.SortStableFunc(ranked, func(a, b rankedWall) int {
		return cmp.Compare(b.score, a.score)
	})

	ws := s.WallSet()
	count := 0
	for _, r := range ranked {
		if limit > 0 && count >= limit {
			break
		}
		if g.isLegalWall(s, ws, r.wall) {
			moves = append(moves, PlaceWall(r.wall))
			count++
		}
	}
	return moves
}

func (g *Generator) isLegalWall(s *GameState, ws WallSet, w Wall) bool {
	if !w.IsValid() || ws.Has(w) {
		return false
	}
	after := ws.With(w)
	return g.paths.HasPath(s.AIPos, g.goals.AI, after) && g.paths.HasPath(s.HumanPos, g.goals.Human, after)
}

// IsLegalWall returns whether the wall can be placed: its anchor is in the wall grid, it is
// not placed yet and both pawns can still reach their goals afterward.
// It doesn't check whether the side placing it has walls left.
func (g *Generator) IsLegalWall(s *GameState, w Wall) bool {
	return g.isLegalWall(s, s.WallSet(), w)
}

// Check returns an error if side can't take the move on the given state.
func (g *Generator) Check(s *GameState, side Side, m Move) error {
	switch m.Kind {
	case Movement:
		from := s.Pos(side)
		if !m.Target.IsValid() {
			return errors.Errorf("%s can't move to %s: off the board", side, m.Target)
		}
		if from.ManhattanDistance(m.Target) != 1 {
			return errors.Errorf("%s can't move from %s to %s: only orthogonal steps of one cell are allowed", side, from, m.Target)
		}
		if s.WallSet().IsBlocked(from, m.Target) {
			return errors.Errorf("%s can't move from %s to %s: blocked by a wall", side, from, m.Target)
		}
		return nil
	case WallPlacement:
		w := m.Wall()
		if s.WallsLeft(side) <= 0 {
			return errors.Errorf("%s has no walls left", side)
		}
		if !w.IsValid() {
			return errors.Errorf("wall %s is off the wall grid", w)
		}
		ws := s.WallSet()
		if ws.Has(w) {
			return errors.Errorf("wall %s is already placed", w)
		}
		if !g.isLegalWall(s, ws, w) {
			return errors.Errorf("wall %s would block a pawn from reaching its goal", w)
		}
		return nil
	}
	return errors.Errorf("invalid move %s", m)
}
