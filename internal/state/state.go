// Package state holds the Quoridor board model: positions, walls, the game state and
// the canonical state transition used by search, training and the front-ends.
package state

import (
	"fmt"
	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"slices"
)

const (
	// BoardSize is the number of columns and rows of the board.
	BoardSize = 9

	// WallGridSize is the number of anchor columns and rows for walls: walls sit between cells.
	WallGridSize = BoardSize - 1

	// InitialWalls each side starts with.
	InitialWalls = 10

	// DefaultMaxMoves after which a match is considered a stalemate.
	DefaultMaxMoves = 200
)

// Pos packages the column (x) and row (y) of a cell.
type Pos [2]int8

// X coordinate (column) of the position.
func (pos Pos) X() int8 {
	return pos[0]
}

// Y coordinate (row) of the position.
func (pos Pos) Y() int8 {
	return pos[1]
}

// IsValid returns whether the position is inside the board.
func (pos Pos) IsValid() bool {
	return pos[0] >= 0 && pos[0] < BoardSize && pos[1] >= 0 && pos[1] < BoardSize
}

// Add returns pos shifted by delta.
func (pos Pos) Add(delta Pos) Pos {
	return Pos{pos[0] + delta[0], pos[1] + delta[1]}
}

// Sub returns the vector from pos2 to pos.
func (pos Pos) Sub(pos2 Pos) Pos {
	return Pos{pos[0] - pos2[0], pos[1] - pos2[1]}
}

// Dot product of two positions taken as vectors.
func (pos Pos) Dot(pos2 Pos) int {
	return int(pos[0])*int(pos2[0]) + int(pos[1])*int(pos2[1])
}

// AbsInt8 returns the absolute value of an int8.
func AbsInt8(x int8) int8 {
	y := x >> 7
	return (x ^ y) - y
}

// ManhattanDistance between two positions.
func (pos Pos) ManhattanDistance(pos2 Pos) int {
	return int(AbsInt8(pos[0]-pos2[0])) + int(AbsInt8(pos[1]-pos2[1]))
}

// Distance returns the euclidean distance between two positions.
func (pos Pos) Distance(pos2 Pos) float32 {
	dx := float32(pos[0] - pos2[0])
	dy := float32(pos[1] - pos2[1])
	return math32.Sqrt(dx*dx + dy*dy)
}

// String returns a text representation of Pos.
func (pos Pos) String() string {
	return fmt.Sprintf("(%d,%d)", pos[0], pos[1])
}

// Side identifies one of the two pawns. The AI side is the one the core plays for.
type Side uint8

const (
	SideAI Side = iota
	SideHuman

	// SideInvalid represents no side, e.g. the winner of an unfinished match.
	SideInvalid
)

var sideNames = [3]string{"AI", "Human", "Invalid"}

// String implements fmt.Stringer.
func (s Side) String() string {
	if s > SideInvalid {
		return fmt.Sprintf("Side(%d)", s)
	}
	return sideNames[s]
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideAI:
		return SideHuman
	case SideHuman:
		return SideAI
	}
	exceptions.Panicf("Opponent() of invalid side %s", s)
	return SideInvalid
}

// Goals holds the goal row of each side.
type Goals struct {
	AI, Human int8
}

// DefaultGoals: the AI starts at the bottom row (8) and races to row 0, the human the other way around.
var DefaultGoals = Goals{AI: 0, Human: BoardSize - 1}

// For returns the goal row of the given side.
func (g Goals) For(side Side) int8 {
	if side == SideAI {
		return g.AI
	}
	return g.Human
}

// Swap returns the goals as seen after GameState.Swap.
func (g Goals) Swap() Goals {
	return Goals{AI: g.Human, Human: g.AI}
}

// Validate goals are inside the board.
func (g Goals) Validate() error {
	if g.AI < 0 || g.AI >= BoardSize || g.Human < 0 || g.Human >= BoardSize {
		return errors.Errorf("invalid goal rows %+v, they must be in the range [0, %d]", g, BoardSize-1)
	}
	return nil
}

// GameState is a snapshot of a match. It is a pure value: use Clone before changing it, or
// use Act that returns a modified copy.
type GameState struct {
	AIPos, HumanPos Pos

	// Walls placed so far, in placement order.
	Walls []Wall

	AIWallsLeft, HumanWallsLeft int8
}

// NewGameState returns the standard starting position: AI at the bottom center, human at
// the top center, no walls and InitialWalls for each side.
func NewGameState() *GameState {
	return &GameState{
		AIPos:          Pos{4, BoardSize - 1},
		HumanPos:       Pos{4, 0},
		AIWallsLeft:    InitialWalls,
		HumanWallsLeft: InitialWalls,
	}
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	newS := *s
	newS.Walls = slices.Clone(s.Walls)
	return &newS
}

// Pos returns the position of the given side.
func (s *GameState) Pos(side Side) Pos {
	if side == SideAI {
		return s.AIPos
	}
	return s.HumanPos
}

// WallsLeft returns the number of walls the given side can still place.
func (s *GameState) WallsLeft(side Side) int8 {
	if side == SideAI {
		return s.AIWallsLeft
	}
	return s.HumanWallsLeft
}

// TotalWallsLeft for both sides, used to determine the phase of the match.
func (s *GameState) TotalWallsLeft() int {
	return int(s.AIWallsLeft) + int(s.HumanWallsLeft)
}

// WallSet returns the placed walls in their bitboard form.
func (s *GameState) WallSet() (ws WallSet) {
	for _, w := range s.Walls {
		ws = ws.With(w)
	}
	return
}

// IsGameOver returns whether either side reached its goal row.
func (s *GameState) IsGameOver(goals Goals) bool {
	return s.AIPos[1] == goals.AI || s.HumanPos[1] == goals.Human
}

// Winner returns the side that reached its goal row, or SideInvalid if none did.
func (s *GameState) Winner(goals Goals) Side {
	if s.AIPos[1] == goals.AI {
		return SideAI
	}
	if s.HumanPos[1] == goals.Human {
		return SideHuman
	}
	return SideInvalid
}

// Validate checks the state is consistent: positions in the board, wall counts in range and
// walls placed in valid non-repeated anchors.
//
// It doesn't check that paths to the goals exist, see moves.Generator for that.
func (s *GameState) Validate() error {
	if !s.AIPos.IsValid() {
		return errors.Errorf("AI position %s is off the board", s.AIPos)
	}
	if !s.HumanPos.IsValid() {
		return errors.Errorf("human position %s is off the board", s.HumanPos)
	}
	for side, left := range []int8{s.AIWallsLeft, s.HumanWallsLeft} {
		if left < 0 || left > InitialWalls {
			return errors.Errorf("%s has %d walls left, it must be in the range [0, %d]", Side(side), left, InitialWalls)
		}
	}
	var ws WallSet
	for ii, w := range s.Walls {
		if !w.IsValid() {
			return errors.Errorf("wall #%d %s has an anchor off the wall grid", ii, w)
		}
		if ws.Has(w) {
			return errors.Errorf("wall #%d %s placed more than once", ii, w)
		}
		ws = ws.With(w)
	}
	used := 2*InitialWalls - s.TotalWallsLeft()
	if len(s.Walls) > used {
		return errors.Errorf("%d walls placed, but only %d were used according to the walls left", len(s.Walls), used)
	}
	return nil
}

// Swap returns a copy of the state with the roles exchanged: the human pawn becomes the
// "AI" pawn and vice versa. Walls are absolute and don't change, so moves taken on the
// swapped state apply unchanged to the original one.
//
// Together with Goals.Swap it lets any AI-side player play the human side.
func (s *GameState) Swap() *GameState {
	newS := s.Clone()
	newS.AIPos, newS.HumanPos = s.HumanPos, s.AIPos
	newS.AIWallsLeft, newS.HumanWallsLeft = s.HumanWallsLeft, s.AIWallsLeft
	return newS
}

// String returns a compact one-line description of the state.
func (s *GameState) String() string {
	return fmt.Sprintf("AI%s[%d walls] Human%s[%d walls] walls=%v",
		s.AIPos, s.AIWallsLeft, s.HumanPos, s.HumanWallsLeft, s.Walls)
}
