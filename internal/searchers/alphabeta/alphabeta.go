// Package alphabeta implements a depth-bounded Minimax search with alpha-beta pruning, with
// optional iterative deepening under a time budget.
//
// The search is always for the AI side of the goals of its moves.Generator: to search for the
// human side use GameState.Swap and Goals.Swap.
//
// See: wikipedia.org/wiki/Alpha-beta_pruning
package alphabeta

import (
	"context"
	"fmt"
	"github.com/chewxy/math32"
	"github.com/janpfeifer/quoridorGo/internal/eval"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	"github.com/janpfeifer/quoridorGo/internal/searchers"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/janpfeifer/quoridorGo/internal/strategy"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
	"slices"
	"sync"
	"time"
)

// DefaultMaxDepth for search, in plies.
const DefaultMaxDepth = 4

// deadlineCheckInterval is the number of nodes between checks of the deadline and of the context.
const deadlineCheckInterval = 256

// Searcher implements the searchers.Searcher interface.
//
// A Searcher is not safe for concurrent calls to Search, but a single Search can use
// multiple goroutines, see WithParallelism.
type Searcher struct {
	gen         *moves.Generator
	evaluator   *eval.Evaluator
	maxDepth    int
	maxTime     time.Duration
	tree        *strategy.DecisionTree
	selector    *searchers.Selector
	parallelism int
	history     *searchers.History

	stats Stats
}

// Assert that Searcher implements searchers.Searcher.
var _ searchers.Searcher = (*Searcher)(nil)

// Stats stores running stats collected during the search: for benchmarking, monitoring and debugging purposes.
type Stats struct {
	// Nodes "played" during search: execution of a move, followed by the creation of the new state.
	Nodes int

	// Evals is the number of states passed to the evaluator.
	Evals int

	Prunes int

	// Depth is the deepest fully completed search depth.
	Depth int

	// Strategy and Rule selected by the decision tree, if one is configured.
	Strategy strategy.Strategy
	Rule     string

	// BlockingWalls added to the root moves, when the opponent was close to its goal.
	BlockingWalls int

	Elapsed time.Duration
}

func (s *Stats) add(other Stats) {
	s.Nodes += other.Nodes
	s.Evals += other.Evals
	s.Prunes += other.Prunes
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	seconds := s.Elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1e-9
	}
	return fmt.Sprintf("depth=%d, nodes=%d (%.1f/s), evals=%d (%.1f/s), prunes=%d, elapsed=%s",
		s.Depth, s.Nodes, float64(s.Nodes)/seconds, s.Evals, float64(s.Evals)/seconds, s.Prunes, s.Elapsed)
}

// New returns an alpha-beta pruning based searchers.Searcher implementation.
// There are other optional configurations, see methods Searcher.With...
//
// The generator and the evaluator should be configured with the same goals.
func New(gen *moves.Generator, evaluator *eval.Evaluator) *Searcher {
	return &Searcher{
		gen:       gen,
		evaluator: evaluator,
		maxDepth:  DefaultMaxDepth,
	}
}

// WithMaxDepth sets the max depth of search: the unit here are plies (ply singular). Each player
// playing counts as one ply. See https://en.wikipedia.org/wiki/Ply_(game_theory).
//
// Values < 1 are taken as 1. The default is DefaultMaxDepth.
func (ab *Searcher) WithMaxDepth(maxDepth int) *Searcher {
	ab.maxDepth = max(maxDepth, 1)
	return ab
}

// WithMaxTime sets a max duration of thinking per search. If set (> 0), it searches with
// increasing depth, from 1 up to the max depth, until the time expires, and uses the result
// of the last completed depth. Depth 1 is always completed.
//
// The default is no time-limit.
func (ab *Searcher) WithMaxTime(maxTime time.Duration) *Searcher {
	ab.maxTime = max(maxTime, 0)
	return ab
}

// WithDecisionTree filters the root moves according to the strategy suggested by the tree.
// Set to nil to disable it, the default.
func (ab *Searcher) WithDecisionTree(tree *strategy.DecisionTree) *Searcher {
	ab.tree = tree
	return ab
}

// WithSelector sets the selector used to pick among the scored root moves.
// If nil (the default) the best scored move is taken, the first one in generation order
// among ties.
func (ab *Searcher) WithSelector(selector *searchers.Selector) *Searcher {
	ab.selector = selector
	return ab
}

// WithParallelism sets the number of goroutines used to score the root moves.
// Values <= 1 mean sequential, the default.
func (ab *Searcher) WithParallelism(parallelism int) *Searcher {
	ab.parallelism = parallelism
	return ab
}

// WithHistory sets the History where selected moves are recorded. Default is nil.
func (ab *Searcher) WithHistory(history *searchers.History) *Searcher {
	ab.history = history
	return ab
}

// MaxDepth configured.
func (ab *Searcher) MaxDepth() int { return ab.maxDepth }

// Stats of the last search.
func (ab *Searcher) Stats() Stats { return ab.stats }

// run holds the state of one goroutine of the search.
type run struct {
	ab       *Searcher
	ctx      context.Context
	deadline time.Time
	goals    Goals
	stats    Stats
	aborted  bool
}

func (ab *Searcher) newRun(ctx context.Context, deadline time.Time) *run {
	return &run{ab: ab, ctx: ctx, deadline: deadline, goals: ab.gen.Goals()}
}

// checkAbort is called for every node, and it checks for the deadline and the context
// every deadlineCheckInterval nodes.
func (r *run) checkAbort() bool {
	if r.aborted {
		return true
	}
	if r.stats.Nodes%deadlineCheckInterval != 0 {
		return false
	}
	if r.ctx != nil && r.ctx.Err() != nil {
		r.aborted = true
	} else if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		r.aborted = true
	}
	return r.aborted
}

// Minimax returns the score of the state searched to the given depth, from the AI point of view.
// If maximizing is true it is the AI turn to play, otherwise the human turn.
//
// If ctx is cancelled during the search, the returned score is meaningless.
func (ab *Searcher) Minimax(ctx context.Context, s *GameState, depth int, alpha, beta float32, maximizing bool) float32 {
	r := ab.newRun(ctx, time.Time{})
	return r.minimax(s, depth, alpha, beta, maximizing)
}

func (r *run) minimax(s *GameState, depth int, alpha, beta float32, maximizing bool) float32 {
	if depth <= 0 || s.IsGameOver(r.goals) {
		r.stats.Evals++
		return r.ab.evaluator.Evaluate(s)
	}
	side := SideHuman
	if maximizing {
		side = SideAI
	}
	candidates := r.ab.gen.Generate(s, side)
	if len(candidates) == 0 {
		r.stats.Evals++
		return r.ab.evaluator.Evaluate(s)
	}

	if maximizing {
		best := math32.Inf(-1)
		for _, m := range candidates {
			r.stats.Nodes++
			if r.checkAbort() {
				return best
			}
			score := r.minimax(s.Act(side, m), depth-1, alpha, beta, false)
			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				r.stats.Prunes++
				break
			}
		}
		return best
	}

	best := math32.Inf(1)
	for _, m := range candidates {
		r.stats.Nodes++
		if r.checkAbort() {
			return best
		}
		score := r.minimax(s.Act(side, m), depth-1, alpha, beta, true)
		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			r.stats.Prunes++
			break
		}
	}
	return best
}

// scoreRoot scores each of the root moves, searching to the given depth. It returns false if
// the search was aborted, in which case the scores are incomplete.
func (ab *Searcher) scoreRoot(ctx context.Context, s *GameState, rootMoves []Move, depth int, deadline time.Time) ([]searchers.ScoredMove, bool) {
	scored := make([]searchers.ScoredMove, len(rootMoves))
	scoreMove := func(r *run, idx int) {
		m := rootMoves[idx]
		r.stats.Nodes++
		score := r.minimax(s.Act(SideAI, m), depth-1, math32.Inf(-1), math32.Inf(1), false)
		scored[idx] = searchers.ScoredMove{Move: m, Score: score}
	}

	if ab.parallelism <= 1 || len(rootMoves) <= 1 {
		r := ab.newRun(ctx, deadline)
		for idx := range rootMoves {
			scoreMove(r, idx)
			if r.aborted {
				break
			}
		}
		ab.stats.add(r.stats)
		return scored, !r.aborted
	}

	var (
		mu      sync.Mutex
		aborted bool
		g       errgroup.Group
	)
	g.SetLimit(ab.parallelism)
	for idx := range rootMoves {
		g.Go(func() error {
			r := ab.newRun(ctx, deadline)
			scoreMove(r, idx)
			mu.Lock()
			defer mu.Unlock()
			ab.stats.add(r.stats)
			aborted = aborted || r.aborted
			return nil
		})
	}
	_ = g.Wait()
	return scored, !aborted
}

// addBlockingWalls appends to the root moves every wall that lengthens the opponent's path,
// if it is within moves.EmergencyDistance of its goal. They are added after the decision
// tree filter.
func (ab *Searcher) addBlockingWalls(s *GameState, rootMoves []Move) []Move {
	if !ab.gen.IsEmergency(s, SideAI) {
		return rootMoves
	}
	for _, m := range ab.gen.BlockingWalls(s, SideAI) {
		if !slices.Contains(rootMoves, m) {
			rootMoves = append(rootMoves, m)
			ab.stats.BlockingWalls++
		}
	}
	if klog.V(1).Enabled() && ab.stats.BlockingWalls > 0 {
		klog.Infof("Opponent close to its goal: %d blocking walls added to the search", ab.stats.BlockingWalls)
	}
	return rootMoves
}

// Search implements the searchers.Searcher interface.
func (ab *Searcher) Search(ctx context.Context, s *GameState) (Move, float32, error) {
	start := time.Now()
	ab.stats = Stats{}
	if err := ctx.Err(); err != nil {
		return NoMove, 0, errors.WithMessage(err, "search cancelled before starting")
	}
	paths := ab.gen.Paths()
	paths.Reset()

	rootMoves := ab.gen.Generate(s, SideAI)
	if len(rootMoves) == 0 {
		return NoMove, 0, searchers.ErrNoMove
	}
	if ab.tree != nil {
		features := strategy.ExtractFeatures(s, ab.gen.Goals(), paths)
		ab.stats.Strategy, ab.stats.Rule = ab.tree.Predict(features)
		numMoves := len(rootMoves)
		rootMoves = strategy.Filter(rootMoves, ab.stats.Strategy, s)
		if klog.V(1).Enabled() {
			klog.Infof("Decision tree: strategy %s (rule %q) kept %d of %d moves",
				ab.stats.Strategy, ab.stats.Rule, len(rootMoves), numMoves)
		}
	}

	rootMoves = ab.addBlockingWalls(s, rootMoves)

	var scored []searchers.ScoredMove
	if ab.maxTime > 0 {
		deadline := start.Add(ab.maxTime)
		for depth := 1; depth <= ab.maxDepth; depth++ {
			depthDeadline := deadline
			if depth == 1 {
				// Depth 1 always completes, only the context can stop it.
				depthDeadline = time.Time{}
			}
			depthScored, completed := ab.scoreRoot(ctx, s, rootMoves, depth, depthDeadline)
			if !completed {
				break
			}
			scored = depthScored
			ab.stats.Depth = depth
			if time.Now().After(deadline) {
				break
			}
		}
	} else {
		var completed bool
		scored, completed = ab.scoreRoot(ctx, s, rootMoves, ab.maxDepth, time.Time{})
		if completed {
			ab.stats.Depth = ab.maxDepth
		} else {
			scored = nil
		}
	}
	if scored == nil {
		return NoMove, 0, errors.WithMessage(ctx.Err(), "search cancelled")
	}

	best := scored[generics.ArgMax(searchers.Scores(scored))]
	chosen := best
	if ab.selector != nil {
		chosen, _ = ab.selector.Select(scored)
	}
	// The history tracks the best score reached, along with the move actually played.
	ab.history.Record(chosen.Move, best.Score)
	ab.history.Log()

	ab.stats.Elapsed = time.Since(start)
	if klog.V(2).Enabled() {
		for _, sm := range scored {
			klog.Infof("  %s: %.2f", sm.Move, sm.Score)
		}
		klog.Infof("Alpha-beta search chose %s (score=%.2f): %s; %s", chosen.Move, chosen.Score, ab.stats, paths.Stats())
	}
	return chosen.Move, chosen.Score, nil
}
