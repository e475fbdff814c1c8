// Package server exposes the deal board over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/ranking"
	"github.com/sells-group/dealboard/internal/refresh"
	"github.com/sells-group/dealboard/internal/store"
)

// Board serves the current enriched deal snapshot.
type Board interface {
	Snapshot() *refresh.Snapshot
}

// Ranker ranks raw listings.
type Ranker interface {
	Rank(ctx context.Context, req ranking.RankRequest) (*ranking.RankResult, error)
}

// AI runs text-generation actions.
type AI interface {
	Do(ctx context.Context, action analyst.Action, data json.RawMessage) (*analyst.Response, error)
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Board       Board
	Store       store.Store
	Ranker      Ranker
	AI          AI
	Scoring     config.ScoringConfig
	CORSOrigins []string
}

// Server is the dashboard API.
type Server struct {
	deps   Deps
	router chi.Router
	now    func() time.Time
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{deps: deps, now: time.Now}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	origins := s.deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", s.listDeals)
			r.Get("/top", s.topDeals)
			r.Post("/filter", s.filterDeals)
			r.Get("/{id}", s.getDeal)
		})
		r.Get("/markets", s.markets)
		r.Get("/map", s.mapData)
		r.Get("/insights/categories", s.categoryInsights)

		r.Post("/estimate", s.estimate)

		r.Route("/rank", func(r chi.Router) {
			r.Post("/", s.rank)
			r.Get("/", s.listRankRuns)
			r.Get("/{id}", s.getRankRun)
		})

		r.Post("/ai", s.ai)

		r.Route("/preferences/{userID}", func(r chi.Router) {
			r.Get("/", s.getPreferences)
			r.Put("/", s.putPreferences)
			r.Patch("/", s.patchPreferences)
			r.Delete("/", s.deletePreferences)
		})
	})
	return r
}

// ListenAndServe serves on port until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Board.Snapshot()
	body := map[string]any{
		"status":   "ok",
		"source":   snap.Source,
		"deals":    len(snap.Deals),
		"loadedAt": snap.LoadedAt,
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			zap.L().Warn("health: store ping failed", zap.Error(err))
			body["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}
