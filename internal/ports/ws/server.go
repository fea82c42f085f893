package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"redking/internal/app"
	"redking/internal/config"
)

// Server owns the HTTP listener, the connection hub and the session
// controller behind it.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	hub      *Hub
	svc      *app.Service
	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, log *zap.Logger) *Server {
	hub := NewHub(log)
	svc := app.NewService(hub, log, nil, cfg.BotTurnDelay, cfg.BotMatchDelay)
	return &Server{
		cfg: cfg,
		log: log,
		hub: hub,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The game client is served from a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Service exposes the controller for tests.
func (s *Server) Service() *app.Service {
	return s.svc
}

// Handler builds the HTTP mux: the game socket and a liveness probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(uuid.NewString(), s.hub, s.svc, conn, s.log)
	s.hub.add(c)
	s.log.Info("client connected", zap.String("player", c.id))
	go c.writePump()
	go c.readPump()
}

// ListenAndServe runs the server until the context is cancelled, then
// drains with a short graceful shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.cfg.Port),
		Handler: s.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.Int("port", s.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
