// Package searchers defines the Searcher interface and the move selection helpers shared by
// the search algorithms: entropy based diversification and the history of selected moves.
package searchers

import (
	"context"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
)

// ErrNoMove is returned by a Searcher when the side to play has no legal moves.
var ErrNoMove = errors.New("no legal moves available")

// Searcher is the interface that any of the search algorithms must adhere to be valid.
type Searcher interface {
	// Search returns the move to take on the given state, along with its expected score.
	//
	// It returns NoMove and ErrNoMove if there are no legal moves. It may also return an error if ctx is
	// cancelled before any move could be evaluated.
	Search(ctx context.Context, s *GameState) (Move, float32, error)
}

// ScoredMove is a candidate move and its search score.
type ScoredMove struct {
	Move  Move
	Score float32
}

// Scores returns the scores of the given scored moves.
func Scores(scored []ScoredMove) []float32 {
	return generics.SliceMap(scored, func(sm ScoredMove) float32 { return sm.Score })
}
