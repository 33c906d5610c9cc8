// Package web serves the dashboard JSON API and the avatar proxy.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"minecraft-rewind/internal/config"
	"minecraft-rewind/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the dashboard API server.
type Server struct {
	cfg       *config.WebConfig
	health    HealthChecker
	snapshots *service.SnapshotService
	rankings  *service.RankingService
	compare   *service.CompareService

	httpServer   *http.Server
	avatarClient *http.Client
}

// NewServer creates the dashboard server and wires its routes.
func NewServer(cfg *config.WebConfig, health HealthChecker, snapshots *service.SnapshotService, rankings *service.RankingService, compare *service.CompareService) *Server {
	s := &Server{
		cfg:       cfg,
		health:    health,
		snapshots: snapshots,
		rankings:  rankings,
		compare:   compare,
		avatarClient: &http.Client{
			// Avatar upstreams must never block a page render.
			Timeout: cfg.AvatarTimeout,
		},
	}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboards", s.handleLeaderboards).Methods(http.MethodGet)
	r.HandleFunc("/api/global", s.handleGlobalStats).Methods(http.MethodGet)
	r.HandleFunc("/api/players", s.handlePlayers).Methods(http.MethodGet)
	r.HandleFunc("/api/players/{name}", s.handlePlayer).Methods(http.MethodGet)
	r.HandleFunc("/api/players/{name}/history", s.handlePlayerHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/players/{name}/ranks", s.handlePlayerRanks).Methods(http.MethodGet)
	r.HandleFunc("/api/players/{name}/compare", s.handlePlayerCompare).Methods(http.MethodGet)
	r.HandleFunc("/avatar/{name}", s.handleAvatar).Methods(http.MethodGet)
	r.HandleFunc("/avatar/{name}/{size:[0-9]+}", s.handleAvatar).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.ListenAddr).Msg("Dashboard server listening")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs every request with zerolog.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}
