// Package controller is the decision surface of the AI: it builds the search and learning
// stack from a configuration, and for each position it returns the move of the AI side.
//
// It dispatches to exactly one algorithm: alpha-beta Minimax (optionally with the decision
// tree and entropy-based selection) or a tabular Q-learning agent.
package controller

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/eval"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/parameters"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	"github.com/janpfeifer/quoridorGo/internal/searchers"
	"github.com/janpfeifer/quoridorGo/internal/searchers/alphabeta"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/janpfeifer/quoridorGo/internal/strategy"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"time"
)

// ErrNoMove is returned by GetBestMove when the AI has no legal move.
var ErrNoMove = searchers.ErrNoMove

// Algorithm used to decide the moves.
type Algorithm string

const (
	Minimax   Algorithm = "minimax"
	QLearning Algorithm = "qlearning"
)

// Config of the Controller.
type Config struct {
	Algorithm Algorithm

	// MaxDepth of the Minimax search, and MaxTime the optional wall-clock budget per move,
	// when iterative deepening is used.
	MaxDepth int
	MaxTime  time.Duration

	// MaxWalls is the number of top ranked walls considered per position.
	MaxWalls int

	// DecisionTree enables the filtering of root moves by strategy.
	DecisionTree bool

	// Entropy enables the entropy-based selection among the near-best moves.
	Entropy                                      bool
	EntropyThreshold, Temperature, NearBestRatio float32

	// Parallelism of the root search: values <= 1 search sequentially.
	Parallelism int

	Goals     Goals
	QLearning qlearning.Config

	// Exploit makes the Q-learning agent play its best stored move, without exploration or
	// updates. States not in the table are played with the step closest to the goal.
	Exploit bool

	// Seed for the entropy selection. If 0 a random seed is used.
	Seed uint64
}

// DefaultConfig returns Minimax with depth 4, no time limit, the decision tree enabled and
// the entropy selection disabled.
func DefaultConfig() Config {
	return Config{
		Algorithm:        Minimax,
		MaxDepth:         alphabeta.DefaultMaxDepth,
		MaxWalls:         moves.DefaultMaxWalls,
		DecisionTree:     true,
		EntropyThreshold: searchers.DefaultThreshold,
		Temperature:      searchers.DefaultTemperature,
		NearBestRatio:    searchers.DefaultNearBestRatio,
		Parallelism:      1,
		Goals:            DefaultGoals,
		QLearning:        qlearning.DefaultConfig(),
	}
}

// ConfigFromParams returns DefaultConfig modified by params. Keys are popped from params,
// and it returns an error if any unknown key is left.
//
// Keys: algorithm, max_depth, max_time, max_walls, decision_tree, entropy, entropy_threshold,
// temperature, near_best_ratio, parallelism, seed, ai_goal, human_goal, exploit, plus the keys of
// qlearning.ConfigFromParams.
func ConfigFromParams(params parameters.Params) (cfg Config, err error) {
	cfg = DefaultConfig()
	var algorithm string
	if algorithm, err = parameters.PopParamOr(params, "algorithm", string(cfg.Algorithm)); err != nil {
		return
	}
	cfg.Algorithm = Algorithm(algorithm)
	if cfg.MaxDepth, err = parameters.PopParamOr(params, "max_depth", cfg.MaxDepth); err != nil {
		return
	}
	if cfg.MaxTime, err = parameters.PopParamOr(params, "max_time", cfg.MaxTime); err != nil {
		return
	}
	if cfg.MaxWalls, err = parameters.PopParamOr(params, "max_walls", cfg.MaxWalls); err != nil {
		return
	}
	if cfg.DecisionTree, err = parameters.PopParamOr(params, "decision_tree", cfg.DecisionTree); err != nil {
		return
	}
	if cfg.Entropy, err = parameters.PopParamOr(params, "entropy", cfg.Entropy); err != nil {
		return
	}
	if cfg.EntropyThreshold, err = parameters.PopParamOr(params, "entropy_threshold", cfg.EntropyThreshold); err != nil {
		return
	}
	if cfg.Temperature, err = parameters.PopParamOr(params, "temperature", cfg.Temperature); err != nil {
		return
	}
	if cfg.NearBestRatio, err = parameters.PopParamOr(params, "near_best_ratio", cfg.NearBestRatio); err != nil {
		return
	}
	if cfg.Parallelism, err = parameters.PopParamOr(params, "parallelism", cfg.Parallelism); err != nil {
		return
	}
	var seed, aiGoal, humanGoal int
	if seed, err = parameters.PopParamOr(params, "seed", 0); err != nil {
		return
	}
	cfg.Seed = uint64(seed)
	if aiGoal, err = parameters.PopParamOr(params, "ai_goal", int(cfg.Goals.AI)); err != nil {
		return
	}
	if humanGoal, err = parameters.PopParamOr(params, "human_goal", int(cfg.Goals.Human)); err != nil {
		return
	}
	cfg.Goals = Goals{AI: int8(aiGoal), Human: int8(humanGoal)}
	if cfg.Exploit, err = parameters.PopParamOr(params, "exploit", cfg.Exploit); err != nil {
		return
	}
	if cfg.QLearning, err = qlearning.ConfigFromParams(params); err != nil {
		return
	}
	if cfg.QLearning.Seed == 0 {
		cfg.QLearning.Seed = cfg.Seed
	}
	if err = parameters.Unknown(params); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

// Validate the configuration.
func (cfg Config) Validate() error {
	switch cfg.Algorithm {
	case Minimax, QLearning:
	default:
		return errors.Errorf("unknown algorithm %q, valid values are %q or %q", cfg.Algorithm, Minimax, QLearning)
	}
	if cfg.MaxDepth < 1 {
		return errors.Errorf("max_depth=%d must be >= 1", cfg.MaxDepth)
	}
	if cfg.MaxTime < 0 {
		return errors.Errorf("max_time=%s must be >= 0", cfg.MaxTime)
	}
	if cfg.Temperature <= 0 {
		return errors.Errorf("temperature=%g must be > 0", cfg.Temperature)
	}
	if cfg.NearBestRatio < 0 || cfg.NearBestRatio > 1 {
		return errors.Errorf("near_best_ratio=%g must be in the range [0, 1]", cfg.NearBestRatio)
	}
	if err := cfg.Goals.Validate(); err != nil {
		return err
	}
	if cfg.Goals.AI == cfg.Goals.Human {
		return errors.Errorf("AI and human goals must be different, got %+v", cfg.Goals)
	}
	return nil
}

// transition is the last (state, move) decided by the Q-learning agent, waiting for the
// next state to be updated.
type transition struct {
	state *GameState
	move  Move
}

// Controller decides the moves of the AI side. It is not safe for concurrent use.
type Controller struct {
	cfg Config

	paths     *pathfinder.Cache
	gen       *moves.Generator
	evaluator *eval.Evaluator
	searcher  *alphabeta.Searcher
	history   *searchers.History
	agent     *qlearning.Agent

	pending *transition
}

// New returns a Controller built from cfg. The configuration is validated.
func New(cfg Config) (*Controller, error) {
	c := &Controller{}
	if err := c.Initialize(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Initialize (re)builds the stack of the controller from cfg. Any pending Q-learning
// transition is dropped.
func (c *Controller) Initialize(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithMessage(err, "invalid controller configuration")
	}
	c.cfg = cfg
	c.pending = nil
	c.paths = pathfinder.NewCache()
	c.gen = moves.NewGenerator(cfg.Goals, c.paths).WithMaxWalls(cfg.MaxWalls)
	c.evaluator = eval.New(cfg.Goals, c.paths)
	c.history = searchers.NewHistory()
	c.searcher, c.agent = nil, nil

	switch cfg.Algorithm {
	case Minimax:
		c.searcher = alphabeta.New(c.gen, c.evaluator).
			WithMaxDepth(cfg.MaxDepth).
			WithMaxTime(cfg.MaxTime).
			WithParallelism(cfg.Parallelism).
			WithHistory(c.history)
		if cfg.DecisionTree {
			c.searcher.WithDecisionTree(strategy.NewDecisionTree(strategy.DefaultRules...))
		}
		if cfg.Entropy {
			var rng *rand.Rand
			if cfg.Seed != 0 {
				rng = rand.New(rand.NewPCG(cfg.Seed, 1))
			}
			selector := searchers.NewSelector(rng)
			selector.Ratio = cfg.NearBestRatio
			selector.Temperature = cfg.Temperature
			selector.Threshold = cfg.EntropyThreshold
			c.searcher.WithSelector(selector)
		}
	case QLearning:
		c.agent = qlearning.LoadOrCreate(cfg.QLearning)
	}
	klog.V(1).Infof("AI controller initialized: algorithm=%s, goals=%+v", cfg.Algorithm, cfg.Goals)
	return nil
}

// Config returns the active configuration.
func (c *Controller) Config() Config { return c.cfg }

// Algorithm returns the active algorithm.
func (c *Controller) Algorithm() Algorithm { return c.cfg.Algorithm }

// Agent returns the Q-learning agent, or nil if the algorithm is Minimax.
func (c *Controller) Agent() *qlearning.Agent { return c.agent }

// Searcher returns the alpha-beta searcher, or nil if the algorithm is Q-learning.
func (c *Controller) Searcher() *alphabeta.Searcher { return c.searcher }

// Generator returns the move generator used by the controller.
func (c *Controller) Generator() *moves.Generator { return c.gen }

// History of the moves selected by the searcher.
func (c *Controller) History() *searchers.History { return c.history }

// EpsilonInfo returns the exploration state of the Q-learning agent. It is the zero value
// for Minimax.
func (c *Controller) EpsilonInfo() qlearning.EpsilonInfo {
	if c.agent == nil {
		return qlearning.EpsilonInfo{}
	}
	return c.agent.EpsilonInfo()
}

// learning returns whether Q-learning updates are applied: trained tables are left unchanged.
func (c *Controller) learning() bool {
	return c.agent != nil && !c.cfg.Exploit && !c.agent.IsTrained()
}

// greedyStep returns the legal step that leaves the AI closest to its goal, or the first
// legal move if there are no steps.
func (c *Controller) greedyStep(s *GameState, legal []Move) Move {
	best, bestLen := legal[0], pathfinder.Unreachable
	walls := s.WallSet()
	for _, m := range legal {
		if m.IsWall() {
			continue
		}
		if length := c.paths.ShortestPathLength(m.Target, c.cfg.Goals.AI, walls); length < bestLen {
			best, bestLen = m, length
		}
	}
	return best
}

// GetBestMove returns the move of the AI side for the state.
//
// It returns NoMove and ErrNoMove if the AI has no legal move, and an error if the state is
// invalid or the search was cancelled.
func (c *Controller) GetBestMove(ctx context.Context, s *GameState) (Move, error) {
	if err := s.Validate(); err != nil {
		return NoMove, errors.WithMessage(err, "invalid state for AI move")
	}
	legal := c.gen.Generate(s, SideAI)
	if len(legal) == 0 {
		return NoMove, ErrNoMove
	}

	switch c.cfg.Algorithm {
	case QLearning:
		if c.cfg.Exploit {
			if m, found := c.agent.BestAction(s, c.cfg.Goals, legal); found {
				return m, nil
			}
			return c.greedyStep(s, legal), nil
		}
		if c.pending != nil && c.learning() {
			c.agent.UpdateQ(c.pending.state, c.cfg.Goals, c.pending.move, 0, s, legal)
		}
		m := c.agent.ChooseAction(s, c.cfg.Goals, legal)
		c.pending = &transition{state: s.Clone(), move: m}
		if klog.V(2).Enabled() {
			klog.Infof("Q-learning chose %s (epsilon=%.3f)", m, c.agent.EpsilonInfo().Current)
		}
		return m, nil

	default:
		m, _, err := c.searcher.Search(ctx, s)
		if err != nil {
			return NoMove, err
		}
		return m, nil
	}
}

// UpdateTerminal applies the terminal Q-learning update of the pending transition, with the
// final state and the reward of the AI side (e.g.: +1 for a win, -1 for a loss). It always
// clears the pending transition.
//
// It doesn't end the episode of the agent, see NotifyEpisodeEnd and players.EndEpisode:
// players sharing an agent must end its episode only once per match.
func (c *Controller) UpdateTerminal(final *GameState, reward float32) {
	defer func() { c.pending = nil }()
	if c.pending != nil && c.learning() {
		c.agent.UpdateQ(c.pending.state, c.cfg.Goals, c.pending.move, reward, final, nil)
	}
}

// LearningAgent returns the Q-learning agent if it is learning, that is, not trained and not
// in exploit mode. Otherwise it returns nil.
func (c *Controller) LearningAgent() *qlearning.Agent {
	if !c.learning() {
		return nil
	}
	return c.agent
}

// NotifyEpisodeEnd informs the end of a match for a host with a single controller: it applies
// UpdateTerminal and, if learning, decays the exploration for the episode and then persists
// the table.
func (c *Controller) NotifyEpisodeEnd(final *GameState, reward float32) {
	c.UpdateTerminal(final, reward)
	if agent := c.LearningAgent(); agent != nil {
		agent.EndEpisode()
		agent.SaveIfAllowed()
	}
}
