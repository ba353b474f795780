package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketplace-client/internal/api/handlers"
	"marketplace-client/internal/app"
	"marketplace-client/internal/domain"
	"marketplace-client/internal/domain/repositories"
	"marketplace-client/internal/infrastructure/leader"
	"marketplace-client/internal/infrastructure/redis"
	"marketplace-client/internal/infrastructure/websocket"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"
	"marketplace-client/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: search ., ./config, /etc/marketplace-client)")
	extraWatch := flag.String("watch", "", "comma-separated listing ids to watch in addition to watch.listings")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	// Load configuration
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting bidwatch", "version", version, "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Marketplace API
	apiClient, err := app.NewAPIClient(cfg.API, log)
	if err != nil {
		log.Fatal("Failed to build API client", "error", err)
	}
	dialer, err := app.NewStreamDialer(cfg, apiClient, log)
	if err != nil {
		log.Fatal("Failed to build stream dialer", "error", err)
	}

	// Initialize Redis
	rdb, err := app.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("Connected to Redis", "address", cfg.Redis.Address)
	}

	// Initialize MySQL
	db, archiveRepo, err := app.OpenArchive(ctx, cfg.MySQL)
	if err != nil {
		log.Fatal("Failed to open bid archive", "error", err)
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}()
		log.Info("Connected to MySQL")
	}

	// Session: bids need a valid token, watching does not.
	tokenStore, err := app.NewTokenStore(cfg, rdb)
	if err != nil {
		log.Fatal("Failed to open token store", "error", err)
	}
	session := services.NewSessionService(apiClient, tokenStore, log)
	if user, err := session.Restore(ctx); err != nil {
		log.Warn("Running without a session; bids will be refused", "reason", domain.Reason(err))
	} else {
		log.Info("Session restored", "username", user.Username)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	// Downstream sinks
	connManager := websocket.NewConnectionManager(log)
	var (
		publisher domain.BidEventPublisher
		cache     domain.ViewCache
		archive   repositories.BidArchive
	)
	if rdb != nil {
		prefix := app.KeyPrefix(cfg.Redis)
		cache = redis.NewRedisViewCache(rdb, prefix, cfg.Redis.ViewTTL)
		publisher = redis.NewEventPublisher(rdb, cfg.Redis.Channel)

		if cfg.Leader.Enabled {
			instanceID := cfg.Leader.InstanceID
			if instanceID == "" {
				instanceID = utils.GenerateID("bidwatch")
			}
			election := leader.NewRedisLeaderElection(rdb, prefix, instanceID, cfg.Leader.TTL, log)
			publisher = leader.NewGatedPublisher(publisher, election)
			go election.Run(runCtx)
		}
	}
	if archiveRepo != nil {
		archive = archiveRepo
	}

	dispatcher := services.NewUpdateDispatcher(websocket.NewNotifier(connManager), connManager, publisher, archive, cache, log)

	reconcilerCfg := app.ReconcilerConfig(cfg.Stream)
	watches := services.NewWatchManager(func() *services.Reconciler {
		return services.NewReconciler(apiClient, dialer, apiClient, reconcilerCfg, log)
	}, dispatcher, cfg.Stream.SubscriberBuffer, log)

	// Initialize scheduler
	var scheduler *services.CronResyncScheduler
	if cfg.Resync.Enabled {
		scheduler, err = services.NewCronResyncScheduler(cfg.Resync.Schedule, watches, log)
		if err != nil {
			log.Fatal("Failed to build resync scheduler", "error", err)
		}
		watches.SetResyncScheduler(scheduler)
		if err := scheduler.Start(runCtx); err != nil {
			log.Fatal("Failed to start scheduler", "error", err)
		}
	}

	for _, id := range watchList(cfg.Watch.Listings, *extraWatch) {
		if err := watches.Watch(id); err != nil {
			log.Error("Failed to watch listing", "listing_id", id, "error", err)
		}
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return utils.GenerateID("req") },
	}))
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	handlers.Register(e,
		handlers.NewListingHandler(watches, archive, cache, log),
		handlers.NewWebSocketHandlers(watches, connManager, log),
		version)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting mirror server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidwatch...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			log.Error("Failed to stop scheduler", "error", err)
		}
	}
	watches.Close()
	stopRun()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bidwatch stopped")
}

// watchList merges configured and flag-supplied ids, dropping blanks and
// duplicates.
func watchList(configured []string, extra string) []domain.ID {
	seen := make(map[string]bool)
	var ids []domain.ID
	add := func(raw string) {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, domain.ID(id))
	}
	for _, id := range configured {
		add(id)
	}
	for _, id := range strings.Split(extra, ",") {
		add(id)
	}
	return ids
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug("Request handled",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"remote_addr", c.RealIP(),
				"latency", time.Since(start))
			return nil
		}
	}
}
