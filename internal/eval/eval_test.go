package eval_test

import (
	"github.com/janpfeifer/quoridorGo/internal/eval"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"math/rand/v2"
	"testing"
)

func TestPositionalBonus(t *testing.T) {
	// Center, at 4 rows from the goal: 9*2 + 4*3.
	assert.InDelta(t, 30.0, eval.PositionalBonus(Pos{4, 4}, 0), 1e-4)
	// On the goal row, 4 cells from the center.
	assert.InDelta(t, 10.0+24.0, eval.PositionalBonus(Pos{4, 0}, 0), 1e-4)
}

func TestStartIsBalanced(t *testing.T) {
	e := eval.New(DefaultGoals, nil)
	s := NewGameState()
	score := e.Evaluate(s)
	assert.InDeltaf(t, 0.0, score, 1e-3, "Wanted a balanced start, got score=%.2f", score)
	assert.InDelta(t, 0.0, e.EvaluateFor(s, SideHuman), 1e-3)
}

func TestTerms(t *testing.T) {
	e := eval.New(DefaultGoals, pathfinder.NewCache())

	// AI one step closer to its goal: distance term +100, one more step available (+10)
	// and a better positional bonus.
	s := NewGameState()
	s.AIPos = Pos{4, 7}
	score := e.Evaluate(s)
	want := float32(100+10) + eval.PositionalBonus(Pos{4, 7}, 0) - eval.PositionalBonus(Pos{4, 8}, 0)
	assert.InDeltaf(t, want, score, 1e-3, "Wanted %.2f, got %.2f", want, score)

	// Wall advantage.
	s = NewGameState()
	s.HumanWallsLeft = 7
	assert.InDelta(t, 15.0, e.Evaluate(s), 1e-3)

	// Wins dominate.
	s = NewGameState()
	s.AIPos = Pos{4, 0}
	s.HumanPos = Pos{0, 4}
	assert.Greater(t, e.Evaluate(s), float32(9000))
	s = NewGameState()
	s.HumanPos = Pos{4, 8}
	s.AIPos = Pos{0, 4}
	assert.Less(t, e.Evaluate(s), float32(-9000))

	// Custom weights.
	e2 := eval.New(DefaultGoals, nil).WithWeights(eval.Weights{Walls: 1})
	s = NewGameState()
	s.HumanWallsLeft = 7
	assert.InDelta(t, 3.0, e2.Evaluate(s), 1e-3)
	assert.Equal(t, eval.Weights{Walls: 1}, e2.Weights())
}

// Swapping the roles and the goals negates the score.
func TestSwapAntisymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	e := eval.New(DefaultGoals, nil)
	swapped := eval.New(DefaultGoals.Swap(), nil)
	for range 100 {
		s := RandomState(rng, DefaultGoals, rng.IntN(20))
		score := e.Evaluate(s)
		assert.InDeltaf(t, -score, swapped.Evaluate(s.Swap()), 1e-2, "state %s", s)
		assert.InDelta(t, -score, e.EvaluateFor(s, SideHuman), 1e-2)
	}
}
