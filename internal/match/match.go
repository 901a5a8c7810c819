// Package match runs a match between two players, from the start position to the end.
package match

import (
	"context"
	"fmt"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/players"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"time"
)

// Ply is one move of a match, passed to Match.OnPly.
type Ply struct {
	Number  int
	Side    Side
	State   *GameState // Before the move.
	Move    Move       // NoMove if the side passed.
	Elapsed time.Duration
}

// Result of a match.
type Result struct {
	Final  *GameState
	Winner Side // SideInvalid if there was no winner.
	Plies  int
	Reason string
}

// Reward of side for the result: +1 for a win, -1 for a loss, 0 if it ended without winner.
func (r Result) Reward(side Side) float32 {
	switch r.Winner {
	case SideInvalid:
		return 0
	case side:
		return 1
	}
	return -1
}

// Match configuration.
type Match struct {
	Name    string
	Players [2]players.Player
	Goals   Goals

	// MaxMoves after which the match ends without a winner. If <= 0, DefaultMaxMoves is used.
	MaxMoves int

	// First side to play.
	First Side

	// Start position. If nil NewGameState is used.
	Start *GameState

	// OnPly, if set, is called after every ply.
	OnPly func(ply Ply)
}

// Run the match to the end, finalize the players with their rewards and end the episode of
// their learning agents (see players.EndEpisode).
//
// A side without legal moves passes. If both sides pass in a row, the match ends without a winner.
// Players must be distinct values, since each is finalized with the reward of one side.
// If ctx is cancelled, the match is interrupted: players are not finalized and ctx.Err() is returned.
func (m *Match) Run(ctx context.Context) (result Result, err error) {
	if m.Players[SideAI] == nil || m.Players[SideHuman] == nil {
		return result, errors.New("match needs 2 players")
	}
	if m.Players[SideAI] == m.Players[SideHuman] {
		return result, errors.New("match needs 2 distinct players, create one per side")
	}
	maxMoves := m.MaxMoves
	if maxMoves <= 0 {
		maxMoves = DefaultMaxMoves
	}
	s := m.Start
	if s == nil {
		s = NewGameState()
	}
	side := m.First
	passes := 0
	result.Reason = fmt.Sprintf("max moves (%d) reached", maxMoves)
	for result.Plies < maxMoves {
		if err = ctx.Err(); err != nil {
			return result, errors.WithMessagef(err, "%s interrupted", m.Name)
		}
		start := time.Now()
		move, playErr := m.Players[side].Play(ctx, s, side)
		if playErr != nil && !errors.Is(playErr, controller.ErrNoMove) {
			return result, errors.WithMessagef(playErr, "%s: %s failed to play at ply %d", m.Name, side, result.Plies)
		}
		if m.OnPly != nil {
			m.OnPly(Ply{Number: result.Plies, Side: side, State: s, Move: move, Elapsed: time.Since(start)})
		}
		result.Plies++
		if move.IsNone() {
			passes++
			if passes >= 2 {
				result.Reason = "both sides have no moves"
				break
			}
		} else {
			passes = 0
			s = s.Act(side, move)
			if s.IsGameOver(m.Goals) {
				result.Reason = fmt.Sprintf("%s reached its goal", side)
				break
			}
		}
		side = side.Opponent()
	}
	result.Final = s
	result.Winner = s.Winner(m.Goals)
	if klog.V(1).Enabled() {
		klog.Infof("%s finished after %d plies: winner=%s (%s)", m.Name, result.Plies, result.Winner, result.Reason)
	}
	for _, side := range []Side{SideAI, SideHuman} {
		m.Players[side].Finalize(s, result.Reward(side))
	}
	players.EndEpisode(m.Players[:]...)
	return result, nil
}
