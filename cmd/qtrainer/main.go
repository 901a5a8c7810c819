// qtrainer trains a Q-learning agent by self-play, or by playing against any other registered player.
//
// The Q-table is saved periodically and at the end, and optionally every ply is logged to a
// parquet file (see package episodes).
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/episodes"
	"github.com/janpfeifer/quoridorGo/internal/players"
	_ "github.com/janpfeifer/quoridorGo/internal/players/default"
	"github.com/janpfeifer/quoridorGo/internal/profilers"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	"github.com/janpfeifer/quoridorGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"time"
)

// Flags
var (
	flagEpisodes = flag.Int("episodes", 1000, "Number of training episodes (matches). "+
		"A value of <= 0 means to train indefinitely, until interrupted.")

	flagConfig    = flag.String("config", "qlearning:qtable=qtable.json", "Configuration of the trained agent, it must be a qlearning player with a qtable file.")
	flagOpponent  = flag.String("opponent", "", "Configuration of the opponent. If empty, the trained agent plays against itself.")
	flagSaveEvery = flag.Int("save_every", 100, "Save the Q-table every these many episodes, besides at the end.")

	flagMarkTrained = flag.Bool("mark_trained", false, "Mark the Q-table as trained when saving at the end: "+
		"it will not be updated when played again.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

// trainedAgent returns the Q-learning agent of the configuration. It is the same agent the
// players created with config use, since agents are cached by file name.
func trainedAgent(config string) (*qlearning.Agent, error) {
	moduleName, params := players.SplitConfig(config)
	if moduleName != string(controller.QLearning) {
		return nil, errors.Errorf("--config=%q must be a %q player", config, controller.QLearning)
	}
	params["algorithm"] = string(controller.QLearning)
	cfg, err := controller.ConfigFromParams(params)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid --config=%q", config)
	}
	if cfg.QLearning.FileName == "" {
		return nil, errors.Errorf("--config=%q must set the qtable file to train", config)
	}
	return qlearning.LoadOrCreate(cfg.QLearning), nil
}

func printAgent(agent *qlearning.Agent) {
	eps := agent.EpsilonInfo()
	fmt.Printf("\tQ-table: %d states, epsilon=%.4f, %d steps, %d episodes, trained=%v\n",
		agent.Size(), eps.Current, eps.Step, eps.Episode, agent.IsTrained())
}

func save(agent *qlearning.Agent) {
	if err := agent.Save(); err != nil {
		klog.Errorf("Failed to save Q-table: %+v", err)
	}
}

// main orchestrates training, saving and evaluation.
func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagMaxMoves <= 0 {
		klog.Exitf("Invalid --max_moves=%d", *flagMaxMoves)
	}

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	agent := must.M1(trainedAgent(*flagConfig))
	if agent.IsTrained() {
		klog.Exitf("Q-table %q is marked as trained (%s), it won't learn any further", agent.Config().FileName, agent.TrainedSource())
	}
	opponent := *flagOpponent
	if opponent == "" {
		opponent = *flagConfig
	}
	fmt.Printf("Training %q against %q\n", *flagConfig, opponent)
	printAgent(agent)

	var log *episodes.Writer
	if *flagEpisodesLog != "" {
		log = must.M1(episodes.NewWriter(*flagEpisodesLog))
	}

	stats, err := train(globalCtx, agent, *flagConfig, opponent, log)
	if log != nil {
		if closeErr := log.Close(); closeErr != nil {
			klog.Errorf("Failed to write episodes log: %+v", closeErr)
		} else {
			fmt.Printf("\t- %d plies logged to %s\n", log.Rows(), log.Path())
		}
	}
	if err != nil {
		save(agent)
		klog.Exitf("Training failed: %+v", err)
	}
	fmt.Printf("\t- %d episodes: %d/%d/%d Agent-Wins/Opponent-Wins/Draws\n",
		stats.matches, stats.aWins, stats.bWins, stats.draws)
	if *flagMarkTrained && globalCtx.Err() == nil {
		agent.MarkTrained()
		fmt.Printf("\t- Q-table marked as trained\n")
	}
	save(agent)
	printAgent(agent)
	if globalCtx.Err() != nil {
		return
	}

	if *flagEvalMatches > 0 {
		for _, evalOpponent := range []string{"random", "minimax:max_depth=2"} {
			fmt.Printf("Evaluating against %q:\n", evalOpponent)
			stats := must.M1(runMatches(globalCtx, *flagEvalMatches, *flagConfig+",exploit", evalOpponent))
			if globalCtx.Err() != nil {
				return
			}
			fmt.Printf("\t- %d matches: %d/%d/%d Agent-Wins/Opponent-Wins/Draws\n",
				stats.matches, stats.aWins, stats.bWins, stats.draws)
		}
	}
}
