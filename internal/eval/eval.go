// Package eval implements the static evaluation of a Quoridor position, from the point of view
// of the AI side: positive scores are good for the AI.
package eval

import (
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
)

// Weights of the evaluation terms.
type Weights struct {
	// Distance multiplies the difference in shortest path lengths to the goals.
	Distance float32

	// Mobility multiplies the difference in the number of available pawn steps.
	Mobility float32

	// Walls multiplies the difference in walls left.
	Walls float32

	// Win is added (or subtracted) when a pawn is on its goal row.
	Win float32
}

// DefaultWeights used by New.
var DefaultWeights = Weights{Distance: 100, Mobility: 10, Walls: 5, Win: 10000}

// Center of the board, used by the positional bonus.
var Center = Pos{BoardSize / 2, BoardSize / 2}

// Evaluator scores positions given the goals of each side.
type Evaluator struct {
	goals   Goals
	weights Weights
	paths   *pathfinder.Cache
}

// New returns an Evaluator with the default weights. paths may be nil.
func New(goals Goals, paths *pathfinder.Cache) *Evaluator {
	return &Evaluator{goals: goals, weights: DefaultWeights, paths: paths}
}

// WithWeights replaces the weights used.
func (e *Evaluator) WithWeights(weights Weights) *Evaluator {
	e.weights = weights
	return e
}

// Weights returns the current weights.
func (e *Evaluator) Weights() Weights {
	return e.weights
}

// Goals used by the evaluator.
func (e *Evaluator) Goals() Goals {
	return e.goals
}

// PositionalBonus rewards being close to the center and close to the goal row.
func PositionalBonus(pos Pos, goalRow int8) float32 {
	toCenter := pos.Distance(Center)
	toGoal := float32(AbsInt8(pos.Y() - goalRow))
	return (9-toCenter)*2 + (8-toGoal)*3
}

// Evaluate returns the score of the state for the AI side.
func (e *Evaluator) Evaluate(s *GameState) float32 {
	ws := s.WallSet()
	aiDist := e.paths.ShortestPathLength(s.AIPos, e.goals.AI, ws)
	humanDist := e.paths.ShortestPathLength(s.HumanPos, e.goals.Human, ws)
	w := e.weights
	score := w.Distance * float32(humanDist-aiDist)
	score += w.Mobility * float32(ws.ValidMoveCount(s.AIPos)-ws.ValidMoveCount(s.HumanPos))
	score += w.Walls * float32(int(s.AIWallsLeft)-int(s.HumanWallsLeft))
	score += PositionalBonus(s.AIPos, e.goals.AI) - PositionalBonus(s.HumanPos, e.goals.Human)
	if s.AIPos.Y() == e.goals.AI {
		score += w.Win
	}
	if s.HumanPos.Y() == e.goals.Human {
		score -= w.Win
	}
	return score
}

// EvaluateFor returns the score of the state from the point of view of side.
func (e *Evaluator) EvaluateFor(s *GameState, side Side) float32 {
	score := e.Evaluate(s)
	if side == SideHuman {
		return -score
	}
	return score
}
