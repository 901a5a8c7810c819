// quoridord serves the AI controller to a game host over a websocket, see package server.
//
// Example:
//
//	$ quoridord --addr=localhost:8765 --config="algorithm=qlearning,qtable=qtable.json"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/quoridorGo/internal/controller"
	"github.com/janpfeifer/quoridorGo/internal/parameters"
	"github.com/janpfeifer/quoridorGo/internal/profilers"
	"github.com/janpfeifer/quoridorGo/internal/server"
	"github.com/janpfeifer/quoridorGo/internal/ui/spinning"
	"k8s.io/klog/v2"
	"net/http"
	"time"
)

var (
	flagAddr   = flag.String("addr", "localhost:8765", "Address to listen to.")
	flagConfig = flag.String("config", "", "Controller configuration, a comma-separated list of parameters, "+
		"e.g. \"max_depth=3,entropy\" or \"algorithm=qlearning,qtable=qtable.json\".")
	flagMoveTimeout = flag.Duration("move_timeout", 0, "If > 0, the maximum time to answer a get_move request.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 5*time.Second)
	defer cancel()
	profilers.Setup(ctx)
	defer profilers.OnQuit()

	cfg, err := controller.ConfigFromParams(parameters.NewFromConfigString(*flagConfig))
	if err != nil {
		klog.Exitf("Invalid --config=%q: %+v", *flagConfig, err)
	}
	ctrl := must.M1(controller.New(cfg))
	srv := server.New(ctrl)
	srv.MoveTimeout = *flagMoveTimeout

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "quoridord: Quoridor AI controller\n\nalgorithm: %s\nwebsocket: ws://%s/ws\n",
			ctrl.Algorithm(), r.Host)
		if agent := ctrl.Agent(); agent != nil {
			eps := ctrl.EpsilonInfo()
			_, _ = fmt.Fprintf(w, "Q-table: %d states, epsilon=%.4f, trained=%v\n", agent.Size(), eps.Current, agent.IsTrained())
		}
	})

	httpServer := &http.Server{Addr: *flagAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	klog.Infof("Serving %s controller on ws://%s/ws", ctrl.Algorithm(), *flagAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		klog.Exitf("Server failed: %+v", err)
	}
	if agent := ctrl.Agent(); agent != nil {
		agent.SaveIfAllowed()
	}
}
