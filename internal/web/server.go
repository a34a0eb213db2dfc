// Package web exposes the league over a JSON HTTP API.
package web

import (
	"log/slog"
	"net/http"

	"unostat-app/internal/league"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	league         *league.Service
	live           http.HandlerFunc
	allowedOrigins []string
	logger         *slog.Logger
}

func NewServer(svc *league.Service, logger *slog.Logger) *Server {
	return &Server{league: svc, logger: logger}
}

// SetLive mounts the websocket endpoint at /ws.
func (s *Server) SetLive(handler http.HandlerFunc) {
	s.live = handler
}

// SetAllowedOrigins restricts CORS. Without origins every origin is allowed.
func (s *Server) SetAllowedOrigins(origins []string) {
	s.allowedOrigins = origins
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(s.corsOptions()))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	if s.live != nil {
		r.Get("/ws", s.live)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/standings", s.handleStandings)

		r.Route("/seasons", func(r chi.Router) {
			r.Get("/", s.handleSeasonList)
			r.Post("/", s.handleSeasonCreate)
			r.Route("/{seasonID}", func(r chi.Router) {
				r.Put("/", s.handleSeasonRename)
				r.Delete("/", s.handleSeasonDelete)
				r.Get("/matches", s.handleSeasonMatches)
				r.Post("/matches", s.handleMatchCreate)
				r.Post("/export", s.handleSeasonExport)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", s.handleMatchShow)
			r.Put("/", s.handleMatchUpdate)
			r.Delete("/", s.handleMatchDelete)
			r.Get("/standings", s.handleMatchStandings)
		})

		r.Get("/players", s.handlePlayerList)
		r.Get("/players/{playerID}", s.handlePlayerShow)
	})

	return r
}

func (s *Server) corsOptions() cors.Options {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
}
