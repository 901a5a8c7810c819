package match_test

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/match"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/players"
	_ "github.com/janpfeifer/quoridorGo/internal/players/default"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func newPlayers(t *testing.T, configs ...string) (p [2]players.Player) {
	for ii, config := range configs {
		var err error
		p[ii], err = players.New("test", DefaultGoals, config)
		require.NoError(t, err)
	}
	return
}

func TestRandomMatch(t *testing.T) {
	gen := moves.NewGenerator(DefaultGoals, nil)
	var plies []match.Ply
	m := &match.Match{
		Name:     "random",
		Players:  newPlayers(t, "random:seed=1", "random:seed=2"),
		Goals:    DefaultGoals,
		MaxMoves: 100,
		First:    SideHuman,
		OnPly: func(ply match.Ply) {
			require.NoError(t, gen.Check(ply.State, ply.Side, ply.Move))
			plies = append(plies, ply)
		},
	}
	result, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Final)
	assert.LessOrEqual(t, result.Plies, 100)
	assert.Len(t, plies, result.Plies)
	assert.Equal(t, SideHuman, plies[0].Side)
	assert.Equal(t, result.Final.Winner(DefaultGoals), result.Winner)
	if result.Winner == SideInvalid {
		assert.Equal(t, 100, result.Plies)
		assert.Zero(t, result.Reward(SideAI))
	} else {
		assert.Equal(t, float32(1), result.Reward(result.Winner))
		assert.Equal(t, float32(-1), result.Reward(result.Winner.Opponent()))
	}
}

func TestMinimaxBeatsRandom(t *testing.T) {
	m := &match.Match{
		Name:    "minimax-vs-random",
		Players: newPlayers(t, "minimax:max_depth=2", "random:seed=3"),
		Goals:   DefaultGoals,
	}
	result, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SideAI, result.Winner, "reason: %s", result.Reason)
}

func TestErrors(t *testing.T) {
	p := newPlayers(t, "random:seed=1", "random:seed=2")
	m := &match.Match{Players: [2]players.Player{p[0], p[0]}, Goals: DefaultGoals}
	_, err := m.Run(context.Background())
	assert.Error(t, err)

	m = &match.Match{Players: p, Goals: DefaultGoals}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// Both sides share one Q-table: the match is one episode of the table.
func TestSelfPlaySharedTable(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "q.json")
	defer qlearning.ForgetCached(fileName)
	config := "qlearning:seed=3,qtable=" + fileName
	m := &match.Match{
		Name:     "self-play",
		Players:  newPlayers(t, config, config),
		Goals:    DefaultGoals,
		MaxMoves: 30,
	}
	_, err := m.Run(context.Background())
	require.NoError(t, err)

	cfg := qlearning.DefaultConfig()
	cfg.FileName = fileName
	agent := qlearning.LoadOrCreate(cfg)
	info := agent.EpsilonInfo()
	assert.Equal(t, 1, info.Episode)
	linear := cfg.InitialEpsilon + (cfg.MinEpsilon-cfg.InitialEpsilon)*float32(info.Step)/float32(cfg.DecaySteps)
	assert.InDelta(t, linear*cfg.DecayRate, info.Current, 1e-5, "epsilon decayed once for the episode")
	assert.Positive(t, agent.Size())

	// The saved table already accounts for the finished episode.
	saved := qlearning.New(cfg)
	require.NoError(t, saved.Load())
	assert.Equal(t, 1, saved.Metadata().Episodes)
	assert.Equal(t, agent.EpsilonInfo().Current, saved.EpsilonInfo().Current)
	assert.Equal(t, agent.Size(), saved.Size())
}
