package qlearning

import (
	"fmt"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
	"strconv"
	"strings"
)

// StateKey identifies a state in the Q-table. It is comparable, and it doesn't depend on the
// order in which walls were placed.
//
// It includes the goal row of the AI, so one table can hold the states seen from both
// sides of a match, see GameState.Swap.
type StateKey struct {
	AIPos, HumanPos             Pos
	AIWallsLeft, HumanWallsLeft int8
	AIGoal                      int8
	Walls                       WallSet
}

// EncodeState returns the key of the state, for the given goals.
func EncodeState(s *GameState, goals Goals) StateKey {
	return StateKey{
		AIPos:          s.AIPos,
		HumanPos:       s.HumanPos,
		AIWallsLeft:    s.AIWallsLeft,
		HumanWallsLeft: s.HumanWallsLeft,
		AIGoal:         goals.AI,
		Walls:          s.WallSet(),
	}
}

// stateKeyLen is the length of the text form of a StateKey: 7 hex digits for the positions,
// walls left and goal, and 16 hex digits for each wall bitboard, separated by "-".
const stateKeyLen = 7 + 1 + 16 + 1 + 16

// MarshalText implements encoding.TextMarshaler, used for the JSON map keys.
func (k StateKey) MarshalText() ([]byte, error) {
	for _, v := range []int8{k.AIPos[0], k.AIPos[1], k.HumanPos[0], k.HumanPos[1], k.AIWallsLeft, k.HumanWallsLeft, k.AIGoal} {
		if v < 0 || v > 15 {
			return nil, errors.Errorf("state key %+v has values out of range", k)
		}
	}
	return []byte(fmt.Sprintf("%x%x%x%x%x%x%x-%016x-%016x",
		k.AIPos[0], k.AIPos[1], k.HumanPos[0], k.HumanPos[1], k.AIWallsLeft, k.HumanWallsLeft, k.AIGoal,
		k.Walls.H, k.Walls.V)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StateKey) UnmarshalText(text []byte) error {
	str := string(text)
	if len(str) != stateKeyLen || str[7] != '-' || str[24] != '-' {
		return errors.Errorf("invalid state key %q", str)
	}
	var digits [7]int8
	for ii := range digits {
		v, err := strconv.ParseUint(str[ii:ii+1], 16, 8)
		if err != nil {
			return errors.Wrapf(err, "invalid state key %q", str)
		}
		digits[ii] = int8(v)
	}
	h, err := strconv.ParseUint(str[8:24], 16, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid state key %q", str)
	}
	v, err := strconv.ParseUint(str[25:], 16, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid state key %q", str)
	}
	*k = StateKey{
		AIPos:          Pos{digits[0], digits[1]},
		HumanPos:       Pos{digits[2], digits[3]},
		AIWallsLeft:    digits[4],
		HumanWallsLeft: digits[5],
		AIGoal:         digits[6],
		Walls:          WallSet{H: h, V: v},
	}
	return nil
}

// ActionKey identifies a move in the Q-table.
type ActionKey struct {
	Kind       MoveKind
	Target     Pos
	Horizontal bool
}

// EncodeAction returns the key of the move.
func EncodeAction(m Move) ActionKey {
	return ActionKey{Kind: m.Kind, Target: m.Target, Horizontal: m.Kind == WallPlacement && m.Horizontal}
}

// Move converts the key back to a move.
func (a ActionKey) Move() Move {
	return Move{Kind: a.Kind, Target: a.Target, Horizontal: a.Horizontal}
}

// MarshalText implements encoding.TextMarshaler: "m4,7" for a movement to (4,7), "w3,4h" and "w3,4v"
// for walls.
func (a ActionKey) MarshalText() ([]byte, error) {
	switch a.Kind {
	case Movement:
		return []byte(fmt.Sprintf("m%d,%d", a.Target[0], a.Target[1])), nil
	case WallPlacement:
		orientation := 'v'
		if a.Horizontal {
			orientation = 'h'
		}
		return []byte(fmt.Sprintf("w%d,%d%c", a.Target[0], a.Target[1], orientation)), nil
	}
	return nil, errors.Errorf("can't encode action of kind %d", a.Kind)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ActionKey) UnmarshalText(text []byte) error {
	str := string(text)
	if len(str) < 4 {
		return errors.Errorf("invalid action key %q", str)
	}
	var key ActionKey
	coords := str[1:]
	switch str[0] {
	case 'm':
		key.Kind = Movement
	case 'w':
		key.Kind = WallPlacement
		switch coords[len(coords)-1] {
		case 'h':
			key.Horizontal = true
		case 'v':
		default:
			return errors.Errorf("invalid wall orientation in action key %q", str)
		}
		coords = coords[:len(coords)-1]
	default:
		return errors.Errorf("invalid action kind in action key %q", str)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return errors.Errorf("invalid coordinates in action key %q", str)
	}
	for ii, part := range parts {
		v, err := strconv.ParseInt(part, 10, 8)
		if err != nil {
			return errors.Wrapf(err, "invalid coordinates in action key %q", str)
		}
		key.Target[ii] = int8(v)
	}
	*a = key
	return nil
}
