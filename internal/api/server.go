// Grounded on internal/api/server.go; NewServer/Start/Stop/consumeEvents
// shape unchanged, re-themed to StateProvider/ConfigSummary.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cca-agent/internal/config"
)

// Server is the optional HTTP+WebSocket observability surface. Nothing in
// the orchestrator's hot path depends on it being up.
type Server struct {
	cfg      config.DashboardConfig
	provider StateProvider
	cfgSum   ConfigSummary

	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

func NewServer(cfg config.DashboardConfig, provider StateProvider, cfgSum ConfigSummary, logger *slog.Logger) *Server {
	logger = logger.With("component", "api-server")
	hub := NewHub(logger)
	handlers := NewHandlers(provider, cfg, cfgSum, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)

	return &Server{
		cfg:      cfg,
		provider: provider,
		cfgSum:   cfgSum,
		hub:      hub,
		handlers: handlers,
		logger:   logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start runs the hub's fan-out loop, the dashboard event consumer, and the
// HTTP server. It blocks until the server stops (via Stop or a listener
// error) and returns that error, or nil on a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()
	go s.consumeEvents(ctx)

	s.logger.Info("dashboard server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the HTTP server down, giving in-flight requests up
// to 10s to finish. Hijacked WebSocket connections are not waited for.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// consumeEvents drains the orchestrator's dashboard event channel and
// rebroadcasts each event to every connected WebSocket client.
func (s *Server) consumeEvents(ctx context.Context) {
	events := s.provider.DashboardEvents()
	if events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			s.hub.BroadcastEvent(evt)
		}
	}
}
