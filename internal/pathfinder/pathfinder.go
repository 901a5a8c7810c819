// Package pathfinder implements A* shortest paths from a cell to a goal row, and a
// memoization cache to be used during a decision.
package pathfinder

import (
	"container/heap"
	. "github.com/janpfeifer/quoridorGo/internal/state"
)

// Unreachable is the length returned when there is no path to the goal row.
const Unreachable = 999

const numCells = BoardSize * BoardSize

func cellIndex(pos Pos) int {
	return int(pos[1])*BoardSize + int(pos[0])
}

func cellPos(idx int) Pos {
	return Pos{int8(idx % BoardSize), int8(idx / BoardSize)}
}

// node in the open set: f = g + h.
type node struct {
	cell    int
	g, h    int
	seq     int
	heapIdx int
}

// openSet is a priority queue ordered by lowest f, then lowest h, then insertion order.
type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].heapIdx = i
	o[j].heapIdx = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.heapIdx = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

func heuristic(pos Pos, goalRow int8) int {
	return int(AbsInt8(pos[1] - goalRow))
}

// search runs A* and returns the goal cell reached (or -1) and the predecessor of each
// visited cell.
func search(start Pos, goalRow int8, walls WallSet) (goal int, cameFrom [numCells]int) {
	goal = -1
	if !start.IsValid() || goalRow < 0 || goalRow >= BoardSize {
		return
	}
	var (
		closed  [numCells]bool
		open    openSet
		inOpen  [numCells]*node
		seq     int
		nextBuf [4]Pos
	)
	for ii := range cameFrom {
		cameFrom[ii] = -1
	}
	startNode := &node{cell: cellIndex(start), h: heuristic(start, goalRow)}
	heap.Push(&open, startNode)
	inOpen[startNode.cell] = startNode

	for open.Len() > 0 {
		current := heap.Pop(&open).(*node)
		inOpen[current.cell] = nil
		pos := cellPos(current.cell)
		if pos[1] == goalRow {
			return current.cell, cameFrom
		}
		closed[current.cell] = true
		for _, next := range walls.Neighbors(pos, nextBuf[:0]) {
			nextCell := cellIndex(next)
			if closed[nextCell] {
				continue
			}
			g := current.g + 1
			if n := inOpen[nextCell]; n != nil {
				if g < n.g {
					n.g = g
					cameFrom[nextCell] = current.cell
					heap.Fix(&open, n.heapIdx)
				}
				continue
			}
			seq++
			n := &node{cell: nextCell, g: g, h: heuristic(next, goalRow), seq: seq}
			cameFrom[nextCell] = current.cell
			heap.Push(&open, n)
			inOpen[nextCell] = n
		}
	}
	return
}

// ShortestPathLength returns the number of steps from start to any cell of goalRow, given
// the walls. It returns Unreachable if there is no path, or if start or goalRow are off the board.
func ShortestPathLength(start Pos, goalRow int8, walls WallSet) int {
	goal, cameFrom := search(start, goalRow, walls)
	if goal < 0 {
		return Unreachable
	}
	length := 0
	for cell := goal; cameFrom[cell] >= 0; cell = cameFrom[cell] {
		length++
	}
	return length
}

// ShortestPath returns the cells of a shortest path from start (excluded) to goalRow, or
// nil if there is none. If start is already on goalRow, it returns an empty non-nil path.
func ShortestPath(start Pos, goalRow int8, walls WallSet) []Pos {
	goal, cameFrom := search(start, goalRow, walls)
	if goal < 0 {
		return nil
	}
	path := make([]Pos, 0, BoardSize)
	for cell := goal; cameFrom[cell] >= 0; cell = cameFrom[cell] {
		path = append(path, cellPos(cell))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// HasPath returns whether goalRow can be reached from start.
func HasPath(start Pos, goalRow int8, walls WallSet) bool {
	return ShortestPathLength(start, goalRow, walls) < Unreachable
}
