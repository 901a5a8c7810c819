// Package server bridges a game host to the AI controller over a websocket.
//
// Each message is a JSON Envelope {type, data}. Requests are "get_move" (GetMoveRequest)
// and "episode_end" (EpisodeEndRequest). Replies are "move" (MoveReply), "ack" and
// "error" (ErrorReply). Requests of all connections are served by one controller, one
// at a time.
package server

import (
	"context"
	"encoding/json"
	"github.com/gomlx/exceptions"
	"github.com/gorilla/websocket"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"net/http"
	"sync"
	"time"
)

// Server is an http.Handler that upgrades connections to websockets.
type Server struct {
	muCtrl sync.Mutex
	ctrl   *controller.Controller

	upgrader websocket.Upgrader

	// MoveTimeout, if > 0, limits the time of each get_move request.
	MoveTimeout time.Duration
}

// New returns a Server for the given controller.
func New(ctrl *controller.Controller) *Server {
	return &Server{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Hosts are local game engines, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.Warningf("Failed to upgrade connection from %s: %v", r.RemoteAddr, err)
		return
	}
	defer func() { _ = conn.Close() }()
	klog.V(1).Infof("Host connected from %s", r.RemoteAddr)

	ctx := r.Context()
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				klog.V(1).Infof("Host %s disconnected", r.RemoteAddr)
			} else {
				klog.Warningf("Failed to read from %s: %v", r.RemoteAddr, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		reply := s.Handle(ctx, message)
		if err := conn.WriteJSON(reply); err != nil {
			klog.Warningf("Failed to reply to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

// Handle one request message and returns the reply. Errors, including panics in the
// controller, are returned as "error" replies.
func (s *Server) Handle(ctx context.Context, message []byte) (reply Envelope) {
	s.muCtrl.Lock()
	defer s.muCtrl.Unlock()
	var err error
	exception := exceptions.TryCatch[error](func() {
		reply, err = s.dispatch(ctx, message)
	})
	if exception != nil {
		klog.Errorf("Panic handling request: %+v", exception)
		err = exception
	}
	if err != nil {
		klog.V(1).Infof("Request failed: %v", err)
		reply = newEnvelope(TypeError, ErrorReply{Message: err.Error()})
	}
	return
}

func newEnvelope(msgType string, data any) Envelope {
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			exceptions.Panicf("failed to encode %q reply: %v", msgType, err)
		}
		env.Data = raw
	}
	return env
}

func (s *Server) dispatch(ctx context.Context, message []byte) (Envelope, error) {
	var request Envelope
	if err := json.Unmarshal(message, &request); err != nil {
		return Envelope{}, errors.Wrap(err, "invalid message")
	}
	switch request.Type {
	case TypeGetMove:
		var data GetMoveRequest
		if err := json.Unmarshal(request.Data, &data); err != nil {
			return Envelope{}, errors.Wrapf(err, "invalid %q request", request.Type)
		}
		state, err := FromWire(data.State)
		if err != nil {
			return Envelope{}, errors.WithMessage(err, "invalid state")
		}
		if s.MoveTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.MoveTimeout)
			defer cancel()
		}
		start := time.Now()
		m, err := s.ctrl.GetBestMove(ctx, state)
		if err != nil && !errors.Is(err, controller.ErrNoMove) {
			return Envelope{}, err
		}
		return newEnvelope(TypeMove, MoveReply{Move: MoveToWire(m), ElapsedMs: time.Since(start).Milliseconds()}), nil

	case TypeEpisodeEnd:
		var data EpisodeEndRequest
		if err := json.Unmarshal(request.Data, &data); err != nil {
			return Envelope{}, errors.Wrapf(err, "invalid %q request", request.Type)
		}
		state, err := FromWire(data.State)
		if err != nil {
			return Envelope{}, errors.WithMessage(err, "invalid state")
		}
		s.ctrl.NotifyEpisodeEnd(state, data.Reward)
		return newEnvelope(TypeAck, nil), nil
	}
	return Envelope{}, errors.Errorf("unknown request type %q", request.Type)
}
