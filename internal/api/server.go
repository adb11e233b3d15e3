// Package api serves the websocket endpoint operator clients connect to,
// plus health and metrics routes.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/firewatch/internal/hub"
	"grimm.is/firewatch/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Enforce same-origin policy for WebSocket upgrades; allow localhost
	// for development and proxying.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		host := r.Host
		if len(origin) > 7 && origin[:7] == "http://" {
			return origin[7:] == host
		}
		if len(origin) > 8 && origin[:8] == "https://" {
			return origin[8:] == host
		}
		return false
	},
}

// ServerOptions wires the server's collaborators.
type ServerOptions struct {
	Addr     string
	Hub      *hub.Hub
	Commands *CommandHandler
	Logger   *logging.Logger
}

// Server accepts websocket clients and hands their messages to the
// command handler.
type Server struct {
	addr     string
	hub      *hub.Hub
	commands *CommandHandler
	log      *logging.Logger
	httpSrv  *http.Server
}

// NewServer builds the API server.
func NewServer(opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &Server{
		addr:     opts.Addr,
		hub:      opts.Hub,
		commands: opts.Commands,
		log:      log.WithComponent("api"),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is cancelled, then drains connections and closes
// the hub last so no client sees a partial shutdown message.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("listening", "addr", s.addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpSrv.Shutdown(shutdownCtx)
	s.hub.Close()
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleWS upgrades the connection and runs the client's pumps. The read
// pump feeds the command handler; either pump exiting unregisters the
// client.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}

	client := hub.NewClient(conn)
	s.hub.Register(client)

	go client.WritePump()
	go func() {
		defer s.hub.Unregister(client)
		// The request context dies with the handler; commands outlive it.
		client.ReadPump(func(message []byte) {
			s.commands.Handle(context.Background(), client, message)
		})
	}()
}
