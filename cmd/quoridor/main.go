// quoridor plays Quoridor on the terminal: human vs AI, AI vs AI (--watch) or human vs
// human (--hotseat).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/players"
	_ "github.com/janpfeifer/quoridorGo/internal/players/default"
	"github.com/janpfeifer/quoridorGo/internal/profilers"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/janpfeifer/quoridorGo/internal/ui/cli"
	"github.com/janpfeifer/quoridorGo/internal/ui/spinning"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"strings"
	"time"
)

var (
	flagHotseat   = flag.Bool("hotseat", false, "Hotseat match: human vs human")
	flagWatch     = flag.Bool("watch", false, "Watch mode: AI vs AI playing")
	flagFirst     = flag.String("first", "", "Who plays first: human or ai. Default is random.")
	flagAIConfig  = flag.String("config", players.DefaultPlayerConfig, "AI configuration against which to play, e.g. \"minimax:max_depth=3,entropy\" or \"qlearning:qtable=q.json\"")
	flagAIConfig2 = flag.String("config2", players.DefaultPlayerConfig, "Second AI configuration, playing the human side with --watch")
	flagMaxMoves  = flag.Int(
		"max_moves", DefaultMaxMoves, "Max moves before game is considered a draw.")
	flagQuiet   = flag.Bool("quiet", false, "Quiet mode for when watching AI play, only the moves and the last board position are printed.")
	flagNoColor = flag.Bool("no_color", false, "Disable colors.")

	// aiPlayers: if nil, it's a human playing.
	aiPlayers = [2]players.Player{nil, nil}
	matchName = "The Match"

	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagMaxMoves <= 0 {
		klog.Fatalf("Invalid --max_moves=%d", *flagMaxMoves)
	}

	// Capture Control+C
	var cancel func()
	globalCtx, cancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	// Create players.
	first := createPlayers()

	// Create state and UI.
	s := NewGameState()
	ui := cli.New(!*flagNoColor, false, DefaultGoals)

	// Loop over match.
	side := first
	passes := 0
	moveNumber := 0
	for ; moveNumber < *flagMaxMoves && !s.IsGameOver(DefaultGoals) && passes < 2; moveNumber++ {
		var move Move
		aiPlayer := aiPlayers[side]
		if aiPlayer == nil {
			ui.Print(s, moveNumber+1, side)
			var err error
			move, err = ui.ReadMove(s, side)
			if errors.Is(err, cli.ErrQuit) {
				fmt.Println("\nBye.")
				return
			}
			if err != nil {
				klog.Exitf("Failed to run match: %+v", err)
			}
		} else {
			// AI plays.
			if *flagWatch && !*flagQuiet {
				ui.Print(s, moveNumber+1, side)
			}
			fmt.Printf("\t%s (%s) move: ", side, playerConfig(side))
			spinner := spinning.New(globalCtx)
			start := time.Now()
			var err error
			move, err = aiPlayer.Play(globalCtx, s, side)
			spinner.Done()
			if err != nil && !errors.Is(err, controller.ErrNoMove) {
				if globalCtx.Err() != nil {
					return
				}
				klog.Exitf("AI failed to play: %+v", err)
			}
			fmt.Printf(" %s (%s)\n", move, time.Since(start).Round(time.Millisecond))
		}
		if move.IsNone() {
			fmt.Printf("\t%s has no legal moves, passing.\n", side)
			passes++
		} else {
			passes = 0
			s = s.Act(side, move)
		}
		side = side.Opponent()
	}

	ui.Print(s, moveNumber, side)
	ui.PrintWinner(s)
	finalize(s)
}

// playerConfig returns the configuration of the AI playing side.
func playerConfig(side Side) string {
	if *flagWatch && side == SideHuman {
		return *flagAIConfig2
	}
	return *flagAIConfig
}

// finalize the AI players with their rewards, and end the episode of their agents.
func finalize(final *GameState) {
	winner := final.Winner(DefaultGoals)
	for _, side := range []Side{SideAI, SideHuman} {
		if aiPlayers[side] == nil {
			continue
		}
		var reward float32
		if winner == side {
			reward = 1
		} else if winner != SideInvalid {
			reward = -1
		}
		aiPlayers[side].Finalize(final, reward)
	}
	var finalized []players.Player
	for _, p := range aiPlayers {
		if p != nil {
			finalized = append(finalized, p)
		}
	}
	players.EndEpisode(finalized...)
}

// createPlayers in aiPlayers, and returns the side that plays first.
//
// The AI plays the "AI" side, starting on the bottom row. In watch mode the second AI plays
// the human side.
func createPlayers() (first Side) {
	if *flagHotseat && *flagWatch {
		klog.Fatalf("--hotseat and --watch cannot be used together")
	}
	switch strings.ToLower(*flagFirst) {
	case "human":
		first = SideHuman
	case "ai":
		first = SideAI
	case "":
		// Random:
		first = Side(rand.IntN(2))
	default:
		exceptions.Panicf("invalid --first=%q, only valid values are \"human\" or \"ai\"", *flagFirst)
	}
	if *flagHotseat {
		// Both players are human, nothing to do.
		return
	}
	aiPlayers[SideAI] = must.M1(players.New(matchName, DefaultGoals, *flagAIConfig))
	if !*flagWatch {
		return
	}

	// Create second AI.
	aiPlayers[SideHuman] = must.M1(players.New(matchName, DefaultGoals, *flagAIConfig2))
	return
}
