package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movielog/internal/config"
	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/logging"
	"github.com/Clark-Hu/movielog/internal/metadata"
	"github.com/Clark-Hu/movielog/internal/repository"
	"github.com/Clark-Hu/movielog/internal/tmdb"
)

// Catalog serves upstream metadata reads.
type Catalog interface {
	SearchByTitle(ctx context.Context, query string, page int) (metadata.SearchResult, error)
	GetByID(ctx context.Context, id int64) (*tmdb.Movie, error)
	GetCollection(ctx context.Context, name string) (metadata.Collection, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	Languages(ctx context.Context) ([]tmdb.Language, error)
}

// MovieResolver guarantees a local movie row exists before it is referenced.
type MovieResolver interface {
	Resolve(ctx context.Context, id int64) (domain.Movie, error)
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	repo     *repository.Repository
	catalog  Catalog
	resolver MovieResolver
	logger   zerolog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, health HealthChecker, repo *repository.Repository, catalog Catalog, res MovieResolver, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	s := &Server{
		cfg:      cfg,
		health:   health,
		repo:     repo,
		catalog:  catalog,
		resolver: res,
		logger:   logger.With().Str("component", "http").Logger(),
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/movie", func(r chi.Router) {
			r.Get("/search", s.handleSearchMovies)
			r.Get("/genres", s.handleGenres)
			r.Get("/languages", s.handleLanguages)
			r.Get("/list", s.handleMovieCollection)
			r.Get("/list/{listName}", s.handleMovieCollection)
			r.Get("/review", s.handleGetReview)
			r.Get("/review/{movieId}", s.handleListReviews)
			r.Get("/{id}", s.handleGetMovie)

			r.Group(func(r chi.Router) {
				r.Use(s.requireBearer)
				r.Post("/fav", s.handleAddMark(s.repo.Favorites))
				r.Delete("/fav", s.handleRemoveMark(s.repo.Favorites))
				r.Post("/watched", s.handleAddMark(s.repo.Watched))
				r.Delete("/watched", s.handleRemoveMark(s.repo.Watched))
				r.Post("/review", s.handleUpsertReview)
				r.Delete("/review", s.handleDeleteReview)
			})
		})

		r.Route("/user/profile", func(r chi.Router) {
			r.Get("/fav/{username}", s.handleListMarks(s.repo.Favorites))
			r.Get("/watched/{username}", s.handleListMarks(s.repo.Watched))
		})

		r.Route("/list", func(r chi.Router) {
			r.Get("/{listId}", s.handleGetList)

			r.Group(func(r chi.Router) {
				r.Use(s.requireBearer)
				r.Post("/", s.handleCreateList)
				r.Post("/movie", s.handleAddListMovie)
				r.Delete("/movie", s.handleRemoveListMovie)
				r.Put("/{listId}", s.handleUpdateList)
				r.Delete("/{listId}", s.handleDeleteList)
			})
		})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database not configured")
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
