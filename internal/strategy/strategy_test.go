package strategy

import (
	"github.com/janpfeifer/quoridorGo/internal/moves"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPhaseFor(t *testing.T) {
	assert.Equal(t, Early, PhaseFor(20))
	assert.Equal(t, Early, PhaseFor(15))
	assert.Equal(t, Mid, PhaseFor(14))
	assert.Equal(t, Mid, PhaseFor(7))
	assert.Equal(t, End, PhaseFor(6))
	assert.Equal(t, End, PhaseFor(0))
	assert.Equal(t, "Mid", Mid.String())
	assert.Equal(t, "Blocking", Blocking.String())
}

func TestExtractFeatures(t *testing.T) {
	s := Build(Pos{4, 8}, Pos{4, 0}, H(4, 7))
	f := ExtractFeatures(s, DefaultGoals, nil)
	assert.Equal(t, 9, f.AIDistance)
	assert.Equal(t, 9, f.HumanDistance, "H(4,7) blocks column 4 for both")
	assert.Equal(t, 0, f.DistanceAdvantage)
	assert.Equal(t, 9, f.AIWallsLeft)
	assert.Equal(t, 10, f.HumanWallsLeft)
	assert.Equal(t, -1, f.WallAdvantage)
	assert.Equal(t, 2, f.AIMobility)
	assert.Equal(t, 3, f.HumanMobility)
	assert.Equal(t, Early, f.Phase)
}

// Each rule of the default table is checked with features that match only that rule.
func TestPredictTable(t *testing.T) {
	neutral := Features{
		AIDistance: 6, HumanDistance: 6,
		AIWallsLeft: 5, HumanWallsLeft: 5,
		AIMobility: 3, HumanMobility: 3,
		Phase: Mid,
	}
	dt := NewDecisionTree()
	decision, name := dt.Predict(neutral)
	assert.Equal(t, Balanced, decision)
	assert.Equal(t, DefaultRuleName, name)

	testCases := []struct {
		rule   string
		mutate func(f *Features)
		want   Strategy
	}{
		{"early_game", func(f *Features) { f.Phase = Early }, Balanced},
		{"end_game", func(f *Features) { f.Phase = End }, Defensive},
		{"ahead", func(f *Features) { f.DistanceAdvantage = 3 }, Blocking},
		{"behind", func(f *Features) { f.DistanceAdvantage = -2 }, Aggressive},
		{"low_mobility", func(f *Features) { f.AIMobility = 1 }, Defensive},
		{"wall_advantage", func(f *Features) { f.WallAdvantage = 4 }, Blocking},
		{"few_walls", func(f *Features) { f.AIWallsLeft = 2 }, Defensive},
	}
	require.Len(t, dt.Rules(), len(testCases))
	for ii, tc := range testCases {
		f := neutral
		tc.mutate(&f)
		decision, name := dt.Predict(f)
		assert.Equalf(t, tc.want, decision, "Wanted %s for rule %q, got %s", tc.want, tc.rule, decision)
		assert.Equal(t, tc.rule, name)
		assert.Equal(t, tc.rule, dt.Rules()[ii].Name)
	}

	// Priorities: end game (3) beats being ahead (2).
	f := neutral
	f.Phase = End
	f.DistanceAdvantage = 5
	decision, name = dt.Predict(f)
	assert.Equal(t, Defensive, decision)
	assert.Equal(t, "end_game", name)

	// Ties are resolved by table order: "ahead" (Blocking) is before "low_mobility" (Defensive).
	f = neutral
	f.DistanceAdvantage = 5
	f.AIMobility = 0
	decision, name = dt.Predict(f)
	assert.Equal(t, Blocking, decision)
	assert.Equal(t, "ahead", name)

	// Early game (1) loses to any priority 2 rule.
	f.Phase = Early
	decision, _ = dt.Predict(f)
	assert.Equal(t, Blocking, decision)
}

func TestFilter(t *testing.T) {
	s := NewGameState()
	s.AIPos = Pos{4, 4}
	s.HumanPos = Pos{4, 0}
	gen := moves.NewGenerator(DefaultGoals, nil)
	all := gen.Generate(s, SideAI)
	steps := gen.Steps(s, SideAI)

	assert.Equal(t, all, Filter(all, Balanced, s))

	// Aggressive: only the step toward the human (down) survives, plus all the walls.
	aggressive := Filter(all, Aggressive, s)
	require.Len(t, aggressive, len(all)-3)
	assert.Contains(t, aggressive, MoveTo(Pos{4, 3}))
	assert.NotContains(t, aggressive, MoveTo(Pos{4, 5}))

	// Blocking: walls only; with only steps it returns the steps.
	blocking := Filter(all, Blocking, s)
	assert.Len(t, blocking, len(all)-len(steps))
	for _, m := range blocking {
		assert.True(t, m.IsWall())
	}
	assert.Equal(t, steps, Filter(steps, Blocking, s))

	// Defensive: walls are ranked for proximity to the human, so with the human at (4,0)
	// and the AI at (4,4) none of the top walls are closer to the AI.
	defensive := Filter(all, Defensive, s)
	assert.Equal(t, steps, defensive)
	assert.True(t, IsDefensive(s, PlaceWall(H(4, 4))))
	assert.False(t, IsDefensive(s, PlaceWall(H(4, 2))), "equal distances are not defensive")

	// Filters never empty a non-empty list.
	wallsOnly := all[len(steps):]
	assert.Equal(t, wallsOnly, Filter(wallsOnly, Defensive, s))
	assert.Empty(t, Filter(nil, Aggressive, s))
}
