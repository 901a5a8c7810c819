package _default_test

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/players"
	_ "github.com/janpfeifer/quoridorGo/internal/players/default"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNew(t *testing.T) {
	assert.Equal(t, []string{"minimax", "qlearning", "random"}, players.Modules())
	for _, config := range []string{"", "minimax", "minimax:max_depth=1,entropy,seed=3", "qlearning", "random:seed=7"} {
		_, err := players.New("test", DefaultGoals, config)
		require.NoErrorf(t, err, "config %q", config)
	}
	for _, config := range []string{"mcts", "minimax:foo", "random:max_depth=3", "minimax:algorithm=qlearning"} {
		_, err := players.New("test", DefaultGoals, config)
		assert.Errorf(t, err, "config %q", config)
	}
}

func TestPlayBothSides(t *testing.T) {
	ctx := context.Background()
	gen := moves.NewGenerator(DefaultGoals, nil)
	for _, config := range []string{"minimax:max_depth=2", "qlearning:seed=5", "random:seed=5"} {
		player, err := players.New("test", DefaultGoals, config)
		require.NoError(t, err)
		s := NewGameState()
		for ply := range 6 {
			side := Side(ply % 2)
			m, err := player.Play(ctx, s, side)
			require.NoErrorf(t, err, "%s: ply %d", config, ply)
			require.NoErrorf(t, gen.Check(s, side, m), "%s: ply %d, %s played %s", config, ply, side, m)
			s = s.Act(side, m)
		}
		player.Finalize(s, 0)
	}
}

func TestHumanSideWins(t *testing.T) {
	// The human is one step from its goal (row 8): the minimax player must take it from the human side.
	s := NewGameState()
	s.AIPos, s.HumanPos = Pos{4, 4}, Pos{2, 7}
	s.AIWallsLeft, s.HumanWallsLeft = 0, 0
	player, err := players.New("test", DefaultGoals, "minimax:max_depth=2")
	require.NoError(t, err)
	m, err := player.Play(context.Background(), s, SideHuman)
	require.NoError(t, err)
	assert.Equal(t, MoveTo(Pos{2, 8}), m)
}

func TestNoMoves(t *testing.T) {
	// Human boxed in the (0,0) corner, with its goal on the last row.
	s := Build(Pos{4, 4}, Pos{0, 0}, H(0, 0), V(0, 0))
	s.HumanWallsLeft = 0
	for _, config := range []string{"minimax", "random"} {
		player, err := players.New("test", DefaultGoals, config)
		require.NoError(t, err)
		_, err = player.Play(context.Background(), s, SideHuman)
		assert.ErrorIs(t, err, controller.ErrNoMove)
	}
}
