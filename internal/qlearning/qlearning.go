// Package qlearning implements a tabular Q-learning agent, with epsilon-greedy exploration
// decaying both per step and per episode, and a Q-table persisted as JSON.
package qlearning

import (
	"github.com/chewxy/math32"
	"github.com/janpfeifer/quoridorGo/internal/parameters"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"sync"
)

// Config of the Agent.
type Config struct {
	// Alpha is the learning rate and Gamma the discount factor.
	Alpha, Gamma float32

	// InitialEpsilon decays linearly to MinEpsilon over DecaySteps steps, and it is further
	// multiplied by DecayRate at the end of every episode.
	InitialEpsilon, MinEpsilon, DecayRate float32
	DecaySteps                            int

	// TrainedThreshold is the number of states above which a table without metadata is
	// considered trained.
	TrainedThreshold int

	// TrainedEpsilon, TrainedSteps and TrainedEpisodes are the values used when a trained
	// table is loaded.
	TrainedEpsilon                float32
	TrainedSteps, TrainedEpisodes int

	// FileName where the Q-table is loaded from and saved to. If empty the table is not persisted.
	FileName string

	// Seed of the random number generator. If 0 a random seed is used.
	Seed uint64
}

// DefaultConfig returns the default configuration, without a file name.
func DefaultConfig() Config {
	return Config{
		Alpha:            0.1,
		Gamma:            0.9,
		InitialEpsilon:   1.0,
		MinEpsilon:       0.01,
		DecayRate:        0.995,
		DecaySteps:       1000,
		TrainedThreshold: 1000,
		TrainedEpsilon:   0.1,
		TrainedSteps:     1000,
		TrainedEpisodes:  1000,
	}
}

// ConfigFromParams returns DefaultConfig modified by the params, which are popped from the map.
//
// Keys: qtable (file name), alpha, gamma, epsilon (initial), min_epsilon, decay_rate, decay_steps, seed.
func ConfigFromParams(params parameters.Params) (cfg Config, err error) {
	cfg = DefaultConfig()
	if cfg.FileName, err = parameters.PopParamOr(params, "qtable", cfg.FileName); err != nil {
		return
	}
	if cfg.Alpha, err = parameters.PopParamOr(params, "alpha", cfg.Alpha); err != nil {
		return
	}
	if cfg.Gamma, err = parameters.PopParamOr(params, "gamma", cfg.Gamma); err != nil {
		return
	}
	if cfg.InitialEpsilon, err = parameters.PopParamOr(params, "epsilon", cfg.InitialEpsilon); err != nil {
		return
	}
	if cfg.MinEpsilon, err = parameters.PopParamOr(params, "min_epsilon", cfg.MinEpsilon); err != nil {
		return
	}
	if cfg.DecayRate, err = parameters.PopParamOr(params, "decay_rate", cfg.DecayRate); err != nil {
		return
	}
	if cfg.DecaySteps, err = parameters.PopParamOr(params, "decay_steps", cfg.DecaySteps); err != nil {
		return
	}
	var seed int
	if seed, err = parameters.PopParamOr(params, "seed", 0); err != nil {
		return
	}
	cfg.Seed = uint64(seed)
	err = cfg.Validate()
	return
}

// Validate the configuration values.
func (cfg Config) Validate() error {
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		return errors.Errorf("alpha=%g must be in the range (0, 1]", cfg.Alpha)
	}
	if cfg.Gamma < 0 || cfg.Gamma > 1 {
		return errors.Errorf("gamma=%g must be in the range [0, 1]", cfg.Gamma)
	}
	if cfg.MinEpsilon < 0 || cfg.MinEpsilon > cfg.InitialEpsilon || cfg.InitialEpsilon > 1 {
		return errors.Errorf("epsilon values must verify 0 <= min_epsilon (%g) <= epsilon (%g) <= 1",
			cfg.MinEpsilon, cfg.InitialEpsilon)
	}
	if cfg.DecayRate <= 0 || cfg.DecayRate > 1 {
		return errors.Errorf("decay_rate=%g must be in the range (0, 1]", cfg.DecayRate)
	}
	if cfg.DecaySteps <= 0 {
		return errors.Errorf("decay_steps=%d must be > 0", cfg.DecaySteps)
	}
	return nil
}

// Table is the Q-table: the value of each action for each state seen.
type Table map[StateKey]map[ActionKey]float32

// Trained sources reported in Metadata.
const (
	TrainedSourceNone     = ""
	TrainedSourceMetadata = "metadata"
	TrainedSourceSize     = "size"
	TrainedSourceMarked   = "marked"
)

// Agent is a tabular Q-learning agent. It is safe for concurrent use.
type Agent struct {
	cfg Config

	mu              sync.Mutex
	table           Table
	rng             *rand.Rand
	epsilon         float32
	steps, episodes int
	trained         bool
	trainedSource   string

	muSave sync.Mutex
}

// New returns an Agent with an empty table.
func New(cfg Config) *Agent {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Agent{
		cfg:     cfg,
		table:   make(Table),
		rng:     rand.New(rand.NewPCG(seed, 0)),
		epsilon: cfg.InitialEpsilon,
	}
}

// Config returns the configuration of the agent.
func (a *Agent) Config() Config { return a.cfg }

// Size returns the number of states in the table.
func (a *Agent) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.table)
}

// IsTrained returns whether the agent is in trained mode: fixed exploration and no saving.
func (a *Agent) IsTrained() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trained
}

// TrainedSource tells how the trained mode was decided, see TrainedSource* constants.
func (a *Agent) TrainedSource() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trainedSource
}

// setTrainedLocked sets the trained mode and the exploration values for it.
func (a *Agent) setTrainedLocked(source string) {
	a.trained = true
	a.trainedSource = source
	a.epsilon = a.cfg.TrainedEpsilon
	a.steps = a.cfg.TrainedSteps
	a.episodes = a.cfg.TrainedEpisodes
}

// MarkTrained marks the table as trained: it is saved with the trained flag.
//
// Unlike a loaded trained table, it doesn't change the exploration values or disable
// saves, so the trainer can save the table it just marked.
func (a *Agent) MarkTrained() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trainedSource = TrainedSourceMarked
}

// markedLocked returns whether the table is to be saved with the trained flag.
func (a *Agent) markedLocked() bool {
	return a.trained || a.trainedSource == TrainedSourceMarked
}

// Value returns the stored Q value, and whether it exists.
func (a *Agent) Value(state StateKey, action ActionKey) (float32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	q, found := a.table[state][action]
	return q, found
}

// decayStepLocked advances the step count and recomputes epsilon.
// In trained mode epsilon is fixed.
func (a *Agent) decayStepLocked() {
	if a.trained {
		return
	}
	a.steps++
	a.updateEpsilonLocked()
}

// updateEpsilonLocked recomputes epsilon from the number of steps and episodes: the linear
// per step decay is compounded with the multiplicative per episode decay.
func (a *Agent) updateEpsilonLocked() {
	progress := min(1, float32(a.steps)/float32(a.cfg.DecaySteps))
	linear := a.cfg.InitialEpsilon + (a.cfg.MinEpsilon-a.cfg.InitialEpsilon)*progress
	episodic := math32.Pow(a.cfg.DecayRate, float32(a.episodes))
	a.epsilon = max(a.cfg.MinEpsilon, linear*episodic)
}

// EndEpisode decays epsilon at the end of an episode. In trained mode epsilon is fixed.
func (a *Agent) EndEpisode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.trained {
		return
	}
	a.episodes++
	a.updateEpsilonLocked()
	if klog.V(1).Enabled() {
		klog.Infof("Q-learning episode %d completed: epsilon=%.3f, %d states", a.episodes, a.epsilon, len(a.table))
	}
}

// EpsilonInfo reports the exploration state.
type EpsilonInfo struct {
	Current        float32
	Step, Episode  int
	DecayProgress  float32
	IsExploration  bool
	IsExploitation bool
}

// explorationBoundary is the epsilon above which the agent is considered to be exploring.
const explorationBoundary = 0.1

// EpsilonInfo returns the current exploration state.
func (a *Agent) EpsilonInfo() EpsilonInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return EpsilonInfo{
		Current:        a.epsilon,
		Step:           a.steps,
		Episode:        a.episodes,
		DecayProgress:  min(1, float32(a.steps)/float32(a.cfg.DecaySteps)),
		IsExploration:  a.epsilon > explorationBoundary,
		IsExploitation: a.epsilon <= explorationBoundary,
	}
}

// bestLocked returns the legal move with the highest stored value, the first in legal order
// among ties. It returns false if no legal move has a stored value.
func (a *Agent) bestLocked(state StateKey, legal []Move) (Move, bool) {
	actions, found := a.table[state]
	if !found {
		return NoMove, false
	}
	var (
		best      Move
		bestValue float32
		bestFound bool
	)
	for _, m := range legal {
		q, ok := actions[EncodeAction(m)]
		if !ok {
			continue
		}
		if !bestFound || q > bestValue {
			best, bestValue, bestFound = m, q, true
		}
	}
	return best, bestFound
}

// ChooseAction returns an epsilon-greedy choice among the legal moves, and it decays epsilon
// one step. It returns NoMove if there are no legal moves.
func (a *Agent) ChooseAction(s *GameState, goals Goals, legal []Move) Move {
	if len(legal) == 0 {
		return NoMove
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decayStepLocked()
	if a.rng.Float32() < a.epsilon {
		return legal[a.rng.IntN(len(legal))]
	}
	if best, found := a.bestLocked(EncodeState(s, goals), legal); found {
		return best
	}
	// Unseen state or actions.
	return legal[a.rng.IntN(len(legal))]
}

// BestAction returns the legal move with the highest stored value, without exploration or
// decay. It returns false if the state or none of the legal moves were seen.
func (a *Agent) BestAction(s *GameState, goals Goals, legal []Move) (Move, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bestLocked(EncodeState(s, goals), legal)
}

// UpdateQ applies the one-step Q-learning update:
//
//	Q[s][a] += alpha * (reward + gamma * max_a' Q[s'][a'] - Q[s][a])
//
// The max over the next state is 0 if it was never seen, or if nextLegal is empty (terminal state).
func (a *Agent) UpdateQ(s *GameState, goals Goals, action Move, reward float32, next *GameState, nextLegal []Move) {
	stateKey := EncodeState(s, goals)
	actionKey := EncodeAction(action)
	a.mu.Lock()
	defer a.mu.Unlock()

	var maxNext float32
	if len(nextLegal) > 0 && next != nil {
		if nextActions, found := a.table[EncodeState(next, goals)]; found && len(nextActions) > 0 {
			first := true
			for _, q := range nextActions {
				if first || q > maxNext {
					maxNext, first = q, false
				}
			}
		}
	}

	actions, found := a.table[stateKey]
	if !found {
		actions = make(map[ActionKey]float32)
		a.table[stateKey] = actions
	}
	q := actions[actionKey]
	actions[actionKey] = q + a.cfg.Alpha*(reward+a.cfg.Gamma*maxNext-q)
}
