// Package _default registers the default players that can be included in any
// front-end for quoridorGo.
//
// Currently, it includes:
//
//   - "minimax": alpha-beta search over the evaluator, see controller.ConfigFromParams for its parameters.
//   - "qlearning": the tabular Q-learning agent, same parameters, e.g. "qlearning:qtable=q.json".
//   - "random": uniform random legal moves, with parameters "seed" and "max_walls".
package _default

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/parameters"
	"github.com/janpfeifer/quoridorGo/internal/players"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"slices"
)

func init() {
	players.RegisterModule(string(controller.Minimax), &Controlled{Algorithm: controller.Minimax})
	players.RegisterModule(string(controller.QLearning), &Controlled{Algorithm: controller.QLearning})
	players.RegisterModule("random", &Random{})
}

// Controlled is a module of players driven by a controller.Controller with a fixed algorithm.
type Controlled struct {
	Algorithm controller.Algorithm
}

// Assert Controlled implements Module.
var _ players.Module = (*Controlled)(nil)

// NewPlayer implements players.Module.
func (m *Controlled) NewPlayer(matchName string, goals Goals, params parameters.Params) (players.Player, error) {
	if algorithm, found := params["algorithm"]; found && algorithm != string(m.Algorithm) {
		return nil, errors.Errorf("player %q can't use algorithm %q", m.Algorithm, algorithm)
	}
	params["algorithm"] = string(m.Algorithm)
	cfg, err := controller.ConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	cfg.Goals = goals
	return &ControllerPlayer{matchName: matchName, cfg: cfg}, nil
}

// ControllerPlayer plays with one controller per side: the human side plays the swapped
// state with swapped goals, so the controller always decides for its "AI".
type ControllerPlayer struct {
	matchName   string
	cfg         controller.Config
	controllers [2]*controller.Controller
	lastSide    Side
}

// Assert ControllerPlayer implements Learner.
var _ players.Learner = (*ControllerPlayer)(nil)

// Controller returns the controller used for side, creating it if needed.
func (p *ControllerPlayer) Controller(side Side) (*controller.Controller, error) {
	if side != SideAI && side != SideHuman {
		return nil, errors.Errorf("invalid side %s", side)
	}
	if p.controllers[side] == nil {
		cfg := p.cfg
		if side == SideHuman {
			cfg.Goals = cfg.Goals.Swap()
		}
		c, err := controller.New(cfg)
		if err != nil {
			return nil, err
		}
		p.controllers[side] = c
	}
	return p.controllers[side], nil
}

// view returns the state as seen by the controller of side.
func view(s *GameState, side Side) *GameState {
	if side == SideHuman {
		return s.Swap()
	}
	return s
}

// Play implements players.Player.
func (p *ControllerPlayer) Play(ctx context.Context, s *GameState, side Side) (Move, error) {
	c, err := p.Controller(side)
	if err != nil {
		return NoMove, err
	}
	p.lastSide = side
	m, err := c.GetBestMove(ctx, view(s, side))
	if err != nil {
		return NoMove, err
	}
	if klog.V(2).Enabled() {
		klog.Infof("%s: %s (%s) playing %s", p.matchName, side, c.Algorithm(), m)
	}
	return m, nil
}

// Finalize implements players.Player. The reward is given to the side that played last.
// The episode of the agents is ended by players.EndEpisode.
func (p *ControllerPlayer) Finalize(final *GameState, reward float32) {
	c := p.controllers[p.lastSide]
	if c == nil {
		return
	}
	c.UpdateTerminal(view(final, p.lastSide), reward)
	if klog.V(1).Enabled() {
		klog.Infof("%s: player %s (%s) finalized with reward %g", p.matchName, p.lastSide, c.Algorithm(), reward)
	}
}

// LearningAgents implements players.Learner.
func (p *ControllerPlayer) LearningAgents() (agents []*qlearning.Agent) {
	for _, c := range p.controllers {
		if c == nil {
			continue
		}
		if agent := c.LearningAgent(); agent != nil && !slices.Contains(agents, agent) {
			agents = append(agents, agent)
		}
	}
	return
}

// Random is the module of RandomPlayer.
type Random struct{}

// Assert Random implements Module.
var _ players.Module = (*Random)(nil)

// NewPlayer implements players.Module.
func (m *Random) NewPlayer(matchName string, goals Goals, params parameters.Params) (players.Player, error) {
	seed, err := parameters.PopParamOr(params, "seed", 0)
	if err != nil {
		return nil, err
	}
	maxWalls, err := parameters.PopParamOr(params, "max_walls", moves.DefaultMaxWalls)
	if err != nil {
		return nil, err
	}
	if err = parameters.Unknown(params); err != nil {
		return nil, err
	}
	rngSeed := uint64(seed)
	if rngSeed == 0 {
		rngSeed = rand.Uint64()
	}
	return &RandomPlayer{
		gen: moves.NewGenerator(goals, nil).WithMaxWalls(maxWalls),
		rng: rand.New(rand.NewPCG(rngSeed, 0)),
	}, nil
}

// RandomPlayer plays uniformly among the generated moves.
type RandomPlayer struct {
	gen *moves.Generator
	rng *rand.Rand
}

// Assert RandomPlayer implements Player.
var _ players.Player = (*RandomPlayer)(nil)

// Play implements players.Player.
func (p *RandomPlayer) Play(_ context.Context, s *GameState, side Side) (Move, error) {
	legal := p.gen.Generate(s, side)
	if len(legal) == 0 {
		return NoMove, controller.ErrNoMove
	}
	return legal[p.rng.IntN(len(legal))], nil
}

// Finalize implements players.Player.
func (p *RandomPlayer) Finalize(*GameState, float32) {}
