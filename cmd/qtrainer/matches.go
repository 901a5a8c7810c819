package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/quoridorGo/internal/episodes"
	"github.com/janpfeifer/quoridorGo/internal/match"
	"github.com/janpfeifer/quoridorGo/internal/players"
	"github.com/janpfeifer/quoridorGo/internal/qlearning"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
	"runtime"
	"sync"
	"time"
)

var (
	flagMaxMoves = flag.Int(
		"max_moves", DefaultMaxMoves, "Max moves before an episode is assumed to be a draw.")
	flagEpisodesLog = flag.String("episodes_log", "", "If set, every ply of the training episodes is "+
		"logged to this parquet file.")
	flagEvalMatches = flag.Int("eval_matches", 0, "Number of evaluation matches to play against "+
		"each of the baseline players after training.")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many evaluation matches simultaneously.")
)

// matchStats counts the results from the point of view of player A.
type matchStats struct {
	matches, aWins, bWins, draws int
}

func (st *matchStats) add(winner, sideA Side) {
	st.matches++
	switch winner {
	case SideInvalid:
		st.draws++
	case sideA:
		st.aWins++
	default:
		st.bWins++
	}
}

// newMatch creates the players of a match, with player A playing side sideA.
func newMatch(matchName, configA, configB string, sideA Side) (*match.Match, error) {
	m := &match.Match{
		Name:     matchName,
		Goals:    DefaultGoals,
		MaxMoves: *flagMaxMoves,
		First:    SideHuman,
	}
	for side, config := range map[Side]string{sideA: configA, sideA.Opponent(): configB} {
		p, err := players.New(matchName, DefaultGoals, config)
		if err != nil {
			return nil, err
		}
		m.Players[side] = p
	}
	return m, nil
}

// train runs the training episodes sequentially, alternating the side played by the agent.
// It returns with no error if interrupted.
func train(ctx context.Context, agent *qlearning.Agent, config, opponent string, log *episodes.Writer) (stats matchStats, err error) {
	start := time.Now()
	printUpdate := func() {
		fmt.Printf("\r\tTraining: %5d episodes (%d/%d/%d A-Wins/B-Wins/Draws), epsilon=%.4f, %d states in %s\x1b[0K",
			stats.matches, stats.aWins, stats.bWins, stats.draws, agent.EpsilonInfo().Current, agent.Size(),
			time.Since(start).Round(time.Second))
	}
	printUpdate()
	defer fmt.Println()

	for episode := 0; *flagEpisodes <= 0 || episode < *flagEpisodes; episode++ {
		sideA := SideAI
		if episode%2 == 1 {
			sideA = SideHuman
		}
		matchName := fmt.Sprintf("Episode-%06d", episode)
		m, err := newMatch(matchName, config, opponent, sideA)
		if err != nil {
			return stats, err
		}
		if log != nil {
			names := map[Side]string{sideA: config, sideA.Opponent(): opponent}
			m.OnPly = func(ply match.Ply) {
				log.Add(episodes.NewRow(episode, ply.Number, ply.Side, names[ply.Side], ply.State, ply.Move,
					agent.EpsilonInfo().Current))
			}
		}
		result, err := m.Run(ctx)
		if ctx.Err() != nil {
			fmt.Printf("\nInterrupted: %s\n", ctx.Err())
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if log != nil {
			if err := log.EndEpisode(result.Winner); err != nil {
				return stats, err
			}
		}
		stats.add(result.Winner, sideA)
		if *flagSaveEvery > 0 && stats.matches%*flagSaveEvery == 0 {
			save(agent)
		}
		printUpdate()
	}
	printUpdate()
	return stats, nil
}

// runMatches between player A and B in parallel, alternating sides.
func runMatches(ctx context.Context, numMatches int, configA, configB string) (stats matchStats, err error) {
	var wg errgroup.Group
	var mu sync.Mutex
	parallelism := getParallelism()
	wg.SetLimit(parallelism)
	start := time.Now()
	printUpdate := func() {
		elapsed := time.Since(start)
		fmt.Printf("\r\tRunning matches (parallelism=%d): %5d of %d finished (%d/%d/%d A-Wins/B-Wins/Draws) in %s\x1b[0K",
			parallelism, stats.matches, numMatches, stats.aWins, stats.bWins, stats.draws, elapsed.Round(time.Second))
	}
	printUpdate()

	for matchIdx := range numMatches {
		wg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			sideA := SideAI
			if matchIdx%2 == 1 {
				sideA = SideHuman
			}
			m, err := newMatch(fmt.Sprintf("Match-%05d", matchIdx), configA, configB, sideA)
			if err != nil {
				return err
			}
			result, err := m.Run(ctx)
			if ctx.Err() != nil {
				klog.V(1).Infof("%s interrupted", m.Name)
				return nil
			}
			if err != nil {
				return errors.WithMessagef(err, "evaluation of %q vs %q", configA, configB)
			}
			mu.Lock()
			defer mu.Unlock()
			stats.add(result.Winner, sideA)
			printUpdate()
			return nil
		})
	}
	err = wg.Wait()
	printUpdate()
	fmt.Println()
	if ctx.Err() != nil {
		fmt.Printf("Interrupted: %s\n", ctx.Err())
	}
	return
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
