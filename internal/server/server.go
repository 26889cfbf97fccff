package server

import (
	"fmt"
	"net/http"
	"time"

	"car-showroom/internal/cache"
	"car-showroom/internal/config"
	"car-showroom/internal/form"
	custommiddleware "car-showroom/internal/middleware"
	"car-showroom/internal/service"
	"car-showroom/internal/session"
	"car-showroom/internal/storage"
	"car-showroom/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the collaborators the routes are built from. Redis may be nil, in
// which case the login endpoint is not rate limited.
type Deps struct {
	Auth     service.AuthService
	Queries  service.ListingQueryService
	Listings service.ListingService
	Settings service.SettingsService
	Drafts   *form.Orchestrator
	Objects  storage.ObjectStore
	App      *session.AppContext
	Redis    redis.Cmdable
	Health   func() map[string]string
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	closers []func() error
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}

	return server
}

// NewRouter builds the full route table.
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) chi.Router {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(middleware.Recoverer)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok"}
		code := http.StatusOK
		if deps.Health != nil {
			db := deps.Health()
			status["database"] = db
			if db["status"] != "up" {
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		custommiddleware.RespondWithJSON(w, code, status)
	})

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuth(cfg.JWT.Secret, logger)

	loginLimit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil && cfg.Server.LoginRateLimit > 0 {
		loginLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Server.LoginRateLimit,
			Window:            time.Minute,
			KeyPrefix:         cache.KeyLoginRateLimit,
		}, logger)
	}

	authHandler := transport.NewAuthHandler(deps.Auth, logger)
	catalogHandler := transport.NewCatalogHandler(deps.Queries, logger)
	imageHandler := transport.NewImageHandler(deps.Objects, logger)
	settingsHandler := transport.NewSettingsHandler(deps.Settings, deps.Auth, deps.App, logger)
	listingHandler := transport.NewListingHandler(deps.Queries, deps.Listings, logger)
	draftHandler := transport.NewDraftHandler(deps.Drafts, logger)

	authHandler.RegisterRoutes(router, authMiddleware, loginLimit)
	catalogHandler.RegisterRoutes(router)
	imageHandler.RegisterRoutes(router)
	settingsHandler.RegisterRoutes(router, optionalAuth)

	router.Route("/api/dashboard", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireAdmin(logger))

		listingHandler.RegisterRoutes(r)
		draftHandler.RegisterRoutes(r, custommiddleware.RequireJSON(logger))
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireJSON(logger))
			settingsHandler.RegisterDashboardRoutes(r)
		})
	})

	return router
}

// OnClose registers a resource released by Close, in registration order.
func (s *Server) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, fn := range s.closers {
		if err := fn(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
