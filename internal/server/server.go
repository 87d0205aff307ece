package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/failguard/failguard/internal/config"
	"github.com/failguard/failguard/internal/usecase/jail"
)

// Server wraps the HTTP API for the jail engine.
type Server struct {
	http *http.Server
	hub  *Hub
	log  *slog.Logger
}

// New builds the server with its router, middleware chain and hub.
func New(cfg *config.Config, manager *jail.Manager, hub *Hub, logger *slog.Logger) *Server {
	h := NewHandler(manager, hub, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jails", h.ListJails)
		r.Get("/jails/{name}", h.GetJail)
		r.Get("/jails/{name}/bans", h.ListBans)
		r.Post("/jails/{name}/bans", h.CreateBan)
		r.Delete("/jails/{name}/bans/{ip}", h.DeleteBan)
		r.Post("/match", h.MatchLine)
		r.Get("/events/live", h.LiveEvents)
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		hub: hub,
		log: logger,
	}
}

// Start runs the HTTP listener; it blocks until the listener stops.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
