package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"car-showroom/internal/cache"
	"car-showroom/internal/config"
	"car-showroom/internal/database"
	"car-showroom/internal/events"
	"car-showroom/internal/form"
	"car-showroom/internal/logger"
	"car-showroom/internal/middleware"
	"car-showroom/internal/repository"
	"car-showroom/internal/server"
	"car-showroom/internal/service"
	"car-showroom/internal/session"
	"car-showroom/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, logger.WithService("api"))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting car showroom API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()
	var closers []func() error

	// Database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := dbService.DB()
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis backs the featured cache, login rate limit and form drafts. The
	// API still runs without it.
	var (
		rdb        *redis.Client
		redisCmd   redis.Cmdable
		jsonCache  service.JSONCache
		draftStore form.StateStore = form.NewMemoryStore()
	)
	rdb, err = cache.NewClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		redisCmd = rdb
		jsonCache = cache.NewJSONCache(rdb, cache.TTLFeatured)
		draftStore = form.NewRedisStore(rdb, cfg.Drafts.TTL)
		closers = append(closers, rdb.Close)
	}

	// Images
	objects, closeObjects, err := storage.Open(ctx, cfg.Storage.Driver, storage.GridFSOptions{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Bucket:   cfg.Mongo.Bucket,
	})
	if err != nil {
		log.Fatal("Failed to open object store", zap.Error(err))
	}
	closers = append(closers, closeObjects)

	var janitor service.ImageJanitor = service.NewInlineJanitor(objects, log)
	if cfg.Kafka.Enabled() {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ListingTopic, 256, log)
		producer.Start(ctx)
		janitor = service.NewEventJanitor(producer, "api")
		closers = append([]func() error{func() error {
			producer.Close()
			producer.WaitClosed()
			return nil
		}}, closers...)
		log.Info("Image cleanup delegated to janitor", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	listingRepo := repository.NewListingRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	observer := session.NewObserver()
	app := session.NewAppContext(loadTheme(ctx, settingsRepo, log))

	authService := service.NewAuthService(userRepo, refreshTokenRepo, observer, service.TokenOptions{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	})
	queryService := service.NewListingQueryService(listingRepo, jsonCache, log)
	listingService := service.NewListingService(listingRepo, jsonCache, janitor, log)
	settingsService := service.NewSettingsService(settingsRepo, app)

	drafts := form.NewOrchestrator(
		draftStore, objects, listingService, listingRepo,
		middleware.Validator(), cfg.Server.PublicBaseURL, log,
	)

	// Drafts die with the session that opened them.
	observer.Subscribe(func(state session.AuthState) {
		if state.Signed || state.User == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := drafts.DiscardOwner(ctx, state.User.ID.String())
		if err != nil {
			log.Error("Failed to discard drafts on sign-out", zap.Error(err), zap.String("user_id", state.User.ID.String()))
			return
		}
		if n > 0 {
			log.Info("Discarded drafts on sign-out", zap.Int("drafts", n), zap.String("user_id", state.User.ID.String()))
		}
	})

	srv := server.NewServer(cfg, log, server.Deps{
		Auth:     authService,
		Queries:  queryService,
		Listings: listingService,
		Settings: settingsService,
		Drafts:   drafts,
		Objects:  objects,
		App:      app,
		Redis:    redisCmd,
		Health:   dbService.Health,
	})
	for _, fn := range closers {
		srv.OnClose(fn)
	}
	srv.OnClose(dbService.Close)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}

// loadTheme seeds the site theme. Missing settings leave the default theme.
func loadTheme(ctx context.Context, repo repository.SettingsRepository, log *zap.Logger) session.Theme {
	settings, err := repo.Get(ctx)
	if err != nil {
		log.Warn("Site settings unavailable, using default theme", zap.Error(err))
		return session.Theme{}
	}
	return session.ThemeFromSettings(settings)
}
