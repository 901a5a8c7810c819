package server

import (
	"context"
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/moves"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	. "github.com/janpfeifer/quoridorGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http/httptest"
	"strings"
	"testing"
)

func newServer(t *testing.T) *Server {
	cfg := controller.DefaultConfig()
	cfg.MaxDepth = 1
	ctrl, err := controller.New(cfg)
	require.NoError(t, err)
	return New(ctrl)
}

func request(t *testing.T, msgType string, data any) []byte {
	raw, err := json.Marshal(newEnvelope(msgType, data))
	require.NoError(t, err)
	return raw
}

func TestWire(t *testing.T) {
	s := Build(Pos{4, 7}, Pos{3, 1}, H(3, 4), V(0, 7))
	decoded, err := FromWire(ToWire(s))
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	for _, m := range []Move{MoveTo(Pos{4, 7}), PlaceWall(H(3, 4)), PlaceWall(V(2, 5)), NoMove} {
		decoded, err := MoveFromWire(MoveToWire(m))
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	}
	_, err = MoveFromWire(WireMove{Kind: "jump"})
	assert.Error(t, err)

	ws := ToWire(s)
	ws.AIPos = [2]int{9, 0}
	_, err = FromWire(ws)
	assert.Error(t, err)
	ws.AIPos = [2]int{1000, 0}
	_, err = FromWire(ws)
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	s := NewGameState()

	reply := srv.Handle(ctx, request(t, TypeGetMove, GetMoveRequest{State: ToWire(s)}))
	require.Equal(t, TypeMove, reply.Type, "reply: %s", reply.Data)
	var moveReply MoveReply
	require.NoError(t, json.Unmarshal(reply.Data, &moveReply))
	m, err := MoveFromWire(moveReply.Move)
	require.NoError(t, err)
	assert.NoError(t, moves.NewGenerator(DefaultGoals, nil).Check(s, SideAI, m))
	assert.GreaterOrEqual(t, moveReply.ElapsedMs, int64(0))

	reply = srv.Handle(ctx, request(t, TypeEpisodeEnd, EpisodeEndRequest{State: ToWire(s.Act(SideAI, m)), Reward: 1}))
	assert.Equal(t, TypeAck, reply.Type)

	// No legal moves: the AI passes.
	boxed := Build(Pos{8, 8}, Pos{4, 4}, H(7, 7), V(7, 7))
	boxed.AIWallsLeft = 0
	reply = srv.Handle(ctx, request(t, TypeGetMove, GetMoveRequest{State: ToWire(boxed)}))
	require.Equal(t, TypeMove, reply.Type, "reply: %s", reply.Data)
	require.NoError(t, json.Unmarshal(reply.Data, &moveReply))
	assert.Equal(t, KindNone, moveReply.Move.Kind)

	// Errors.
	for _, message := range [][]byte{
		[]byte("not json"),
		request(t, "resign", nil),
		request(t, TypeGetMove, GetMoveRequest{State: WireState{AIPos: [2]int{-1, 0}}}),
		[]byte(`{"type":"get_move","data":"state"}`),
	} {
		reply = srv.Handle(ctx, message)
		require.Equalf(t, TypeError, reply.Type, "message %s", message)
		var errReply ErrorReply
		require.NoError(t, json.Unmarshal(reply.Data, &errReply))
		assert.NotEmpty(t, errReply.Message)
	}
}

func TestWebsocket(t *testing.T) {
	httpServer := httptest.NewServer(newServer(t))
	defer httpServer.Close()
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		request(t, TypeGetMove, GetMoveRequest{State: ToWire(NewGameState())})))
	var reply Envelope
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, TypeMove, reply.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		request(t, TypeEpisodeEnd, EpisodeEndRequest{State: ToWire(NewGameState()), Reward: -1})))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, TypeAck, reply.Type)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}
