package server

import (
	"encoding/json"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"github.com/pkg/errors"
)

// Message types.
const (
	TypeGetMove    = "get_move"
	TypeEpisodeEnd = "episode_end"
	TypeMove       = "move"
	TypeAck        = "ack"
	TypeError      = "error"
)

// Envelope of every message, in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WireState is the JSON form of a GameState. Positions are [column, row].
type WireState struct {
	AIPos          [2]int     `json:"ai_pos"`
	HumanPos       [2]int     `json:"human_pos"`
	Walls          []WireWall `json:"walls"`
	AIWallsLeft    int        `json:"ai_walls_left"`
	HumanWallsLeft int        `json:"human_walls_left"`
}

// WireWall is the JSON form of a Wall.
type WireWall struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Horizontal bool `json:"horizontal"`
}

// Kinds of WireMove.
const (
	KindMove = "move"
	KindWall = "wall"
	KindNone = "none"
)

// WireMove is the JSON form of a Move. Kind is "none" when the AI had no legal move.
type WireMove struct {
	Kind       string `json:"kind"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Horizontal bool   `json:"horizontal,omitempty"`
}

// GetMoveRequest asks for the move of the AI in State.
type GetMoveRequest struct {
	State WireState `json:"state"`
}

// EpisodeEndRequest informs the end of a match, with the reward of the AI.
type EpisodeEndRequest struct {
	State  WireState `json:"state"`
	Reward float32   `json:"reward"`
}

// MoveReply to a GetMoveRequest.
type MoveReply struct {
	Move      WireMove `json:"move"`
	ElapsedMs int64    `json:"elapsed_ms"`
}

// ErrorReply to any failed request.
type ErrorReply struct {
	Message string `json:"message"`
}

func toInt8(v int, name string) (int8, error) {
	if v < -128 || v > 127 {
		return 0, errors.Errorf("%s=%d out of range", name, v)
	}
	return int8(v), nil
}

func toPos(xy [2]int, name string) (pos Pos, err error) {
	for ii := range xy {
		if pos[ii], err = toInt8(xy[ii], name); err != nil {
			return
		}
	}
	return
}

// FromWire converts and validates the state.
func FromWire(ws WireState) (s *GameState, err error) {
	s = &GameState{}
	if s.AIPos, err = toPos(ws.AIPos, "ai_pos"); err != nil {
		return nil, err
	}
	if s.HumanPos, err = toPos(ws.HumanPos, "human_pos"); err != nil {
		return nil, err
	}
	if s.AIWallsLeft, err = toInt8(ws.AIWallsLeft, "ai_walls_left"); err != nil {
		return nil, err
	}
	if s.HumanWallsLeft, err = toInt8(ws.HumanWallsLeft, "human_walls_left"); err != nil {
		return nil, err
	}
	s.Walls = make([]Wall, 0, len(ws.Walls))
	for _, w := range ws.Walls {
		anchor, err := toPos([2]int{w.X, w.Y}, "wall")
		if err != nil {
			return nil, err
		}
		s.Walls = append(s.Walls, Wall{Anchor: anchor, Horizontal: w.Horizontal})
	}
	if err = s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ToWire converts the state to its JSON form.
func ToWire(s *GameState) WireState {
	ws := WireState{
		AIPos:          [2]int{int(s.AIPos.X()), int(s.AIPos.Y())},
		HumanPos:       [2]int{int(s.HumanPos.X()), int(s.HumanPos.Y())},
		Walls:          make([]WireWall, 0, len(s.Walls)),
		AIWallsLeft:    int(s.AIWallsLeft),
		HumanWallsLeft: int(s.HumanWallsLeft),
	}
	for _, w := range s.Walls {
		ws.Walls = append(ws.Walls, WireWall{X: int(w.Anchor.X()), Y: int(w.Anchor.Y()), Horizontal: w.Horizontal})
	}
	return ws
}

// MoveToWire converts the move to its JSON form.
func MoveToWire(m Move) WireMove {
	switch m.Kind {
	case Movement:
		return WireMove{Kind: KindMove, X: int(m.Target.X()), Y: int(m.Target.Y())}
	case WallPlacement:
		return WireMove{Kind: KindWall, X: int(m.Target.X()), Y: int(m.Target.Y()), Horizontal: m.Horizontal}
	}
	return WireMove{Kind: KindNone}
}

// MoveFromWire converts the move from its JSON form.
func MoveFromWire(wm WireMove) (Move, error) {
	target, err := toPos([2]int{wm.X, wm.Y}, "move")
	if err != nil {
		return NoMove, err
	}
	switch wm.Kind {
	case KindMove:
		return MoveTo(target), nil
	case KindWall:
		return PlaceWall(Wall{Anchor: target, Horizontal: wm.Horizontal}), nil
	case KindNone:
		return NoMove, nil
	}
	return NoMove, errors.Errorf("invalid move kind %q", wm.Kind)
}
