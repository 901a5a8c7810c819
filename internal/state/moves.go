package state

import (
	"fmt"
	"github.com/gomlx/exceptions"
)

// MoveKind differentiates the variants of Move.
type MoveKind uint8

const (
	// MoveNone is the kind of NoMove.
	MoveNone MoveKind = iota
	Movement
	WallPlacement
)

// Move is a single ply: either moving the pawn to Target or placing a wall anchored
// at Target with the given orientation.
//
// The zero value is NoMove.
type Move struct {
	Kind       MoveKind
	Target     Pos
	Horizontal bool
}

// NoMove is returned when there is no legal move to take. Hosts should treat it as a
// forced pass.
var NoMove = Move{}

// MoveTo returns a movement move.
func MoveTo(target Pos) Move {
	return Move{Kind: Movement, Target: target}
}

// PlaceWall returns a wall placement move.
func PlaceWall(w Wall) Move {
	return Move{Kind: WallPlacement, Target: w.Anchor, Horizontal: w.Horizontal}
}

// IsNone returns whether this is NoMove.
func (m Move) IsNone() bool {
	return m.Kind == MoveNone
}

// IsWall returns whether this is a wall placement.
func (m Move) IsWall() bool {
	return m.Kind == WallPlacement
}

// Wall returns the wall placed by the move. Only meaningful for wall placements.
func (m Move) Wall() Wall {
	return Wall{Anchor: m.Target, Horizontal: m.Horizontal}
}

// String implements fmt.Stringer.
func (m Move) String() string {
	switch m.Kind {
	case Movement:
		return fmt.Sprintf("move to %s", m.Target)
	case WallPlacement:
		return fmt.Sprintf("wall %s", m.Wall())
	}
	return "no move"
}

// Act returns a new state after side takes the move. The receiver is not changed.
//
// It is the only state transition, and it doesn't check legality: see moves.Generator.Check.
func (s *GameState) Act(side Side, m Move) *GameState {
	newS := s.Clone()
	switch m.Kind {
	case Movement:
		if side == SideAI {
			newS.AIPos = m.Target
		} else {
			newS.HumanPos = m.Target
		}
	case WallPlacement:
		newS.Walls = append(newS.Walls, m.Wall())
		if side == SideAI {
			newS.AIWallsLeft--
		} else {
			newS.HumanWallsLeft--
		}
	case MoveNone:
		// Pass.
	default:
		exceptions.Panicf("Act() with invalid move kind %d", m.Kind)
	}
	return newS
}
