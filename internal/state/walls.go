package state

import (
	"fmt"
	"math/bits"
)

// Wall is placed on the gap between two adjacent cells and blocks the single crossing
// between them:
//
//   - a horizontal wall anchored at (c, r) blocks (c, r) <-> (c, r+1);
//   - a vertical wall anchored at (c, r) blocks (c, r) <-> (c+1, r).
//
// Anchors live on a WallGridSize x WallGridSize grid.
type Wall struct {
	Anchor     Pos
	Horizontal bool
}

// IsValid returns whether the anchor is in the wall grid.
func (w Wall) IsValid() bool {
	return w.Anchor[0] >= 0 && w.Anchor[0] < WallGridSize && w.Anchor[1] >= 0 && w.Anchor[1] < WallGridSize
}

// String implements fmt.Stringer.
func (w Wall) String() string {
	if w.Horizontal {
		return fmt.Sprintf("H%s", w.Anchor)
	}
	return fmt.Sprintf("V%s", w.Anchor)
}

// bit index of the wall in a WallSet bitboard.
func (w Wall) bit() uint64 {
	return 1 << (uint(w.Anchor[1])*WallGridSize + uint(w.Anchor[0]))
}

// WallSet is a bitboard representation of a set of walls. It is a comparable value, so it
// can be used as a map key, e.g. to memoize path lengths.
type WallSet struct {
	H, V uint64
}

// Has returns whether the wall is in the set.
func (ws WallSet) Has(w Wall) bool {
	if w.Horizontal {
		return ws.H&w.bit() != 0
	}
	return ws.V&w.bit() != 0
}

// With returns a copy of the set with the wall added.
func (ws WallSet) With(w Wall) WallSet {
	if w.Horizontal {
		ws.H |= w.bit()
	} else {
		ws.V |= w.bit()
	}
	return ws
}

// Len returns the number of walls in the set.
func (ws WallSet) Len() int {
	return bits.OnesCount64(ws.H) + bits.OnesCount64(ws.V)
}

// hasAt returns whether there is a wall of the given orientation at (col, row), returning
// false for anchors off the wall grid.
func (ws WallSet) hasAt(col, row int8, horizontal bool) bool {
	w := Wall{Anchor: Pos{col, row}, Horizontal: horizontal}
	if !w.IsValid() {
		return false
	}
	return ws.Has(w)
}

// IsBlocked returns true if a wall sits on the gap between from and to.
// Positions that are not orthogonally adjacent are always reported as blocked.
func (ws WallSet) IsBlocked(from, to Pos) bool {
	delta := to.Sub(from)
	switch delta {
	case Pos{1, 0}: // Right.
		return ws.hasAt(from[0], from[1], false)
	case Pos{-1, 0}: // Left.
		return ws.hasAt(to[0], to[1], false)
	case Pos{0, 1}: // Up.
		return ws.hasAt(from[0], from[1], true)
	case Pos{0, -1}: // Down.
		return ws.hasAt(to[0], to[1], true)
	}
	return true
}

// Directions a pawn can step to, in the order moves are generated: up (row+1), down, left, right.
var Directions = [4]Pos{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}

// Neighbors appends to buf the in-board and unblocked orthogonal neighbors of pos, in
// Directions order, and returns the extended slice.
func (ws WallSet) Neighbors(pos Pos, buf []Pos) []Pos {
	for _, dir := range Directions {
		next := pos.Add(dir)
		if next.IsValid() && !ws.IsBlocked(pos, next) {
			buf = append(buf, next)
		}
	}
	return buf
}

// ValidMoveCount returns the number of orthogonal neighbors of pos that are in the board and
// not blocked by a wall.
func (ws WallSet) ValidMoveCount(pos Pos) (count int) {
	for _, dir := range Directions {
		next := pos.Add(dir)
		if next.IsValid() && !ws.IsBlocked(pos, next) {
			count++
		}
	}
	return
}

// AllWalls enumerates every wall of the wall grid, row-major, horizontal before vertical.
func AllWalls() []Wall {
	walls := make([]Wall, 0, 2*WallGridSize*WallGridSize)
	for row := int8(0); row < WallGridSize; row++ {
		for col := int8(0); col < WallGridSize; col++ {
			walls = append(walls,
				Wall{Anchor: Pos{col, row}, Horizontal: true},
				Wall{Anchor: Pos{col, row}, Horizontal: false})
		}
	}
	return walls
}
