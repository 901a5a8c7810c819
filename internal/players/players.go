// Package players provides a factory of players from configuration strings.
// It also allows player providers to register themselves, see package players/default.
package players

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	"github.com/janpfeifer/quoridorGo/internal/parameters"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"strings"
)

// Player is anything that is able to play the game, from either side.
//
// States are always given in absolute terms: a player of the human side is responsible for
// seeing the board from its own perspective (see GameState.Swap and Goals.Swap).
type Player interface {
	// Play returns the move chosen for side. It returns searchers.ErrNoMove (re-exported by
	// controller.ErrNoMove) if there is no legal move.
	Play(ctx context.Context, s *GameState, side Side) (Move, error)

	// Finalize is called at the end of a match, with the final state and the reward for the
	// side the player played.
	Finalize(final *GameState, reward float32)
}

// Learner is a Player that learns from its matches with Q-learning agents.
//
// Finalize only applies the terminal update: the episode of the agents is ended by EndEpisode,
// once per agent, since players may share an agent (e.g.: self-play).
type Learner interface {
	Player

	// LearningAgents returns the agents the player is training, possibly none.
	LearningAgents() []*qlearning.Agent
}

// EndEpisode ends the episode of the learning agents of the given players, after they were
// finalized. Agents shared by more than one player have their episode ended only once.
func EndEpisode(ps ...Player) {
	seen := make(map[*qlearning.Agent]bool)
	for _, p := range ps {
		learner, ok := p.(Learner)
		if !ok {
			continue
		}
		for _, agent := range learner.LearningAgents() {
			if agent == nil || seen[agent] {
				continue
			}
			seen[agent] = true
			agent.EndEpisode()
			agent.SaveIfAllowed()
		}
	}
}

// Module must implement NewPlayer called at the start of a match.
// matchName is used for logging and debugging. goals are the absolute goals of the match.
//
// Params are popped by the module, and it's an error to leave unknown parameters.
type Module interface {
	NewPlayer(matchName string, goals Goals, params parameters.Params) (Player, error)
}

// moduleRegistration is a reference to the module and its name.
type moduleRegistration struct {
	Module
	Name string
}

var (
	// Registered external modules.
	keywordToModules = make(map[string]moduleRegistration)
)

// RegisterModule so it can be used by any of the front-ends to play.
func RegisterModule(name string, module Module) {
	keywordToModules[name] = moduleRegistration{Name: name, Module: module}
}

// Modules returns the names of the registered modules, sorted.
func Modules() []string {
	return generics.KeysSlice(keywordToModules)
}

var (
	// DefaultPlayerConfig is used if no configuration was given to the AI. The value may be changed by the
	// UI built.
	DefaultPlayerConfig = "minimax:max_depth=4"
)

// New creates a new player given the configuration string.
//
// Args:
//
//	config: the module name followed by a colon (":"), followed by a comma-separated list of optional parameters
//		with optional values associated. E.g.: "minimax:max_depth=3,entropy" or "qlearning:qtable=q.json".
//		If empty, the default is given by DefaultPlayerConfig.
//
// More details on the config are dependent on the module used.
func New(matchName string, goals Goals, config string) (Player, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}

	moduleName, params := SplitConfig(config)
	module, ok := keywordToModules[moduleName]
	if !ok {
		if len(keywordToModules) == 0 {
			return nil, errors.Errorf("unknown player %q: no registered modules. Perhaps you need "+
				"to import _ \"github.com/janpfeifer/quoridorGo/internal/players/default\" to your binary ?", moduleName)
		}
		return nil, errors.Errorf("unknown player %q, registered modules are %q", moduleName, Modules())
	}

	player, err := module.NewPlayer(matchName, goals, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create player %q", moduleName)
	}
	return player, nil
}

// SplitConfig splits a player configuration string into its module name and its parameters.
func SplitConfig(config string) (moduleName string, params parameters.Params) {
	moduleName = config
	config = ""
	if moduleSplit := strings.Index(moduleName, ":"); moduleSplit != -1 {
		moduleName, config = moduleName[:moduleSplit], moduleName[moduleSplit+1:]
	}
	return moduleName, parameters.NewFromConfigString(config)
}
