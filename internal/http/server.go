package httpserver

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/auth"
	"github.com/Clark-Hu/movie-reviews/internal/catalog"
	"github.com/Clark-Hu/movie-reviews/internal/config"
	"github.com/Clark-Hu/movie-reviews/internal/metrics"
	"github.com/Clark-Hu/movie-reviews/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	svc     *catalog.Service
	tokens  *auth.TokenIssuer
	pages   map[string]*template.Template
	logger  *zap.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, svc *catalog.Service, tokens *auth.TokenIssuer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		store:  st,
		svc:    svc,
		tokens: tokens,
		pages:  pages,
		logger: logger.Named("http"),
		router: chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.instrument)
	s.router.Use(s.resolvePrincipal)
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/metrics", s.handleMetrics)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: len(s.cfg.CORSAllowedOrigins) > 0,
			MaxAge:           300,
		}))
		if s.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				s.cfg.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByRealIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				}),
			))
		}
		s.registerAPIRoutes(r)
	})

	s.registerWebRoutes(s.router)
}

func (s *Server) registerAPIRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleAPIRegister)
		r.Post("/login", s.handleAPILogin)
		r.Post("/logout", s.handleAPILogout)
	})
	r.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleAPIListMovies)
		r.Post("/", s.handleAPICreateMovie)
		r.Route("/{movieID}", func(r chi.Router) {
			r.Get("/", s.handleAPIGetMovie)
			r.Put("/", s.handleAPIUpdateMovie)
			r.Delete("/", s.handleAPIDeleteMovie)
			r.Get("/reviews", s.handleAPIListReviews)
			r.Post("/reviews", s.handleAPICreateReview)
			r.Get("/favorite", s.handleAPIFavoriteStatus)
			r.Post("/favorite", s.handleAPIAddFavorite)
			r.Delete("/favorite", s.handleAPIRemoveFavorite)
		})
	})
	r.Route("/reviews/{reviewID}", func(r chi.Router) {
		r.Get("/", s.handleAPIGetReview)
		r.Delete("/", s.handleAPIDeleteReview)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleAPIListUsers)
		r.Get("/me/favorites", s.handleAPIListFavorites)
		r.Get("/{userID}", s.handleAPIGetUser)
		r.Post("/{userID}/admin", s.handleAPIGrantAdmin)
		r.Delete("/{userID}/admin", s.handleAPIRevokeAdmin)
	})
	r.Post("/admin/reinit", s.handleAPIReinit)
}

func (s *Server) registerWebRoutes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Get("/movies", s.handleMovies)
	r.Get("/movies/new", s.handleNewMovieForm)
	r.Post("/movies/new", s.handleNewMovie)
	r.Get("/movies/{movieID}", s.handleMovieDetail)
	r.Get("/movies/{movieID}/edit", s.handleEditMovieForm)
	r.Post("/movies/{movieID}/edit", s.handleEditMovie)
	r.Post("/movies/{movieID}/delete", s.handleDeleteMovie)
	r.Post("/movies/{movieID}/reviews", s.handleAddReview)
	r.Post("/movies/{movieID}/favorite", s.handleToggleFavorite)
	r.Post("/reviews/{reviewID}/delete", s.handleDeleteReview)
	r.Get("/favorites", s.handleFavorites)
	r.Get("/profile", s.handleProfile)

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByRealIP(s.cfg.RateLimitPerMinute, time.Minute))
		}
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
		r.Get("/register", s.handleRegisterForm)
		r.Post("/register", s.handleRegister)
	})
	r.Get("/logout", s.handleLogout)
	r.Post("/logout", s.handleLogout)

	r.Get("/admin/users", s.handleAdminUsers)
	r.Post("/admin/users/{userID}/make-admin", s.handleMakeAdmin)
	r.Post("/admin/users/{userID}/remove-admin", s.handleRemoveAdmin)
	r.Post("/admin/reinit", s.handleReinit)
}

// Start boots the HTTP server and blocks until ctx is cancelled or serving fails.
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
		s.logger.Info("http server listening", zap.String("addr", s.httpSrv.Addr))
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

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if stat := s.store.Stats(); stat != nil {
		metrics.UpdatePoolStats(stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns())
	}
	promhttp.Handler().ServeHTTP(w, r)
}
