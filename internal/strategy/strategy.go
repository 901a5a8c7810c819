// Package strategy classifies a position into a high level strategy, using a small
// table of prioritized rules, and filters the candidate moves accordingly.
package strategy

import (
	"fmt"
	"github.com/janpfeifer/quoridorGo/internal/pathfinder"
	. "github.com/janpfeifer/quoridorGo/internal/state"
)

// Strategy suggested by the DecisionTree.
type Strategy uint8

const (
	Balanced Strategy = iota
	Aggressive
	Defensive
	Blocking
	NumStrategies
)

var strategyNames = [NumStrategies]string{"Balanced", "Aggressive", "Defensive", "Blocking"}

func (s Strategy) String() string {
	if s >= NumStrategies {
		return fmt.Sprintf("Strategy(%d)", s)
	}
	return strategyNames[s]
}

// Phase of the match, given by the total number of walls left.
type Phase uint8

const (
	Early Phase = iota
	Mid
	End
)

var phaseNames = [3]string{"Early", "Mid", "End"}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", p)
	}
	return phaseNames[p]
}

// PhaseFor returns the phase for the total number of walls left of both sides.
func PhaseFor(totalWallsLeft int) Phase {
	switch {
	case totalWallsLeft > 14:
		return Early
	case totalWallsLeft > 6:
		return Mid
	default:
		return End
	}
}

// Features of a position used by the rules. They are always from the AI point of view.
type Features struct {
	AIDistance, HumanDistance   int
	AIWallsLeft, HumanWallsLeft int
	AIMobility, HumanMobility   int

	// DistanceAdvantage is HumanDistance - AIDistance: positive when the AI is ahead.
	DistanceAdvantage int

	// WallAdvantage is AIWallsLeft - HumanWallsLeft.
	WallAdvantage int

	Phase Phase
}

// ExtractFeatures computes the features of the state. paths may be nil.
func ExtractFeatures(s *GameState, goals Goals, paths *pathfinder.Cache) Features {
	ws := s.WallSet()
	f := Features{
		AIDistance:     paths.ShortestPathLength(s.AIPos, goals.AI, ws),
		HumanDistance:  paths.ShortestPathLength(s.HumanPos, goals.Human, ws),
		AIWallsLeft:    int(s.AIWallsLeft),
		HumanWallsLeft: int(s.HumanWallsLeft),
		AIMobility:     ws.ValidMoveCount(s.AIPos),
		HumanMobility:  ws.ValidMoveCount(s.HumanPos),
		Phase:          PhaseFor(s.TotalWallsLeft()),
	}
	f.DistanceAdvantage = f.HumanDistance - f.AIDistance
	f.WallAdvantage = f.AIWallsLeft - f.HumanWallsLeft
	return f
}

// Rule of the DecisionTree: if Condition matches, it suggests Decision.
type Rule struct {
	Name      string
	Condition func(f Features) bool
	Decision  Strategy
	Priority  int
}

// DefaultRules in table order.
var DefaultRules = []Rule{
	{"early_game", func(f Features) bool { return f.Phase == Early }, Balanced, 1},
	{"end_game", func(f Features) bool { return f.Phase == End }, Defensive, 3},
	{"ahead", func(f Features) bool { return f.DistanceAdvantage > 2 }, Blocking, 2},
	{"behind", func(f Features) bool { return f.DistanceAdvantage < -1 }, Aggressive, 2},
	{"low_mobility", func(f Features) bool { return f.AIMobility <= 1 }, Defensive, 2},
	{"wall_advantage", func(f Features) bool { return f.WallAdvantage > 3 }, Blocking, 2},
	{"few_walls", func(f Features) bool { return f.AIWallsLeft <= 2 }, Defensive, 2},
}

// DefaultRuleName is returned by Predict when no rule matches.
const DefaultRuleName = "default"

// DecisionTree is a deterministic prioritized decision table.
type DecisionTree struct {
	rules []Rule
}

// NewDecisionTree with the given rules. If none are given it uses DefaultRules.
func NewDecisionTree(rules ...Rule) *DecisionTree {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &DecisionTree{rules: rules}
}

// Rules returns the rules of the tree, in table order.
func (dt *DecisionTree) Rules() []Rule {
	return dt.rules
}

// Predict returns the decision of the highest priority matching rule and its name.
// Ties are broken by table order, and if no rule matches it returns Balanced.
func (dt *DecisionTree) Predict(f Features) (Strategy, string) {
	best := -1
	for ii, rule := range dt.rules {
		if !rule.Condition(f) {
			continue
		}
		if best < 0 || rule.Priority > dt.rules[best].Priority {
			best = ii
		}
	}
	if best < 0 {
		return Balanced, DefaultRuleName
	}
	return dt.rules[best].Decision, dt.rules[best].Name
}

// IsAggressive returns whether the movement goes toward the opponent.
func IsAggressive(s *GameState, m Move) bool {
	if m.Kind != Movement {
		return false
	}
	direction := m.Target.Sub(s.AIPos)
	towardEnemy := s.HumanPos.Sub(s.AIPos)
	return direction.Dot(towardEnemy) > 0
}

// IsDefensive returns whether the wall is closer to the AI pawn than to the human pawn.
func IsDefensive(s *GameState, m Move) bool {
	if m.Kind != WallPlacement {
		return false
	}
	return m.Target.Distance(s.AIPos) < m.Target.Distance(s.HumanPos)
}

// Filter the candidate moves of the AI side according to the strategy.
// If the filter would remove every move, the input is returned unchanged.
func Filter(moves []Move, strategy Strategy, s *GameState) []Move {
	if len(moves) == 0 {
		return moves
	}
	var keep func(m Move) bool
	switch strategy {
	case Aggressive:
		keep = func(m Move) bool { return m.Kind == WallPlacement || IsAggressive(s, m) }
	case Defensive:
		keep = func(m Move) bool { return m.Kind == Movement || IsDefensive(s, m) }
	case Blocking:
		keep = func(m Move) bool { return m.Kind == WallPlacement }
	default:
		return moves
	}
	filtered := make([]Move, 0, len(moves))
	for _, m := range moves {
		if keep(m) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		// Blocking without walls falls back to the movements, which is all there is.
		return moves
	}
	return filtered
}
