package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/adapters/cache"
	"sitetrack-service/internal/adapters/messaging"
	"sitetrack-service/internal/adapters/repositories"
	"sitetrack-service/internal/alerts"
	"sitetrack-service/internal/api"
	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/config"
	"sitetrack-service/internal/hub"
	"sitetrack-service/internal/platform/db"
	"sitetrack-service/internal/platform/obs"
	"sitetrack-service/internal/ports"
	"sitetrack-service/internal/services"
	"sitetrack-service/internal/tracking"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, NATS) behind ports and starts the HTTP server.
func main() {
	envFound := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := obs.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if !envFound {
		log.Info("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	// A missing database degrades the service instead of stopping it: live
	// tracking keeps working and store-backed endpoints answer 503.
	conn := openStore(ctx, cfg, log)
	if conn != nil {
		defer conn.Close()
	}
	store := repositories.NewSQLStore(conn, cfg.DBDriver, log)
	if conn != nil {
		if n, err := store.SeedRoutes(ctx, cat.Routes); err != nil {
			log.WithError(err).Warn("catalog routes not seeded")
		} else {
			log.WithField("inserted", n).Info("catalog routes seeded")
		}
	}

	var routeCache ports.RouteCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		defer rdb.Close()
		routeCache = cache.NewRedisRouteCache(rdb, cfg.RouteCacheTTL, log)
		logRedis(ctx, rdb, log)
	}

	var publisher ports.AlertPublisher
	if cfg.NATSURL != "" {
		nc, err := messaging.Connect(cfg.NATSURL, "sitetrack-service", log)
		if err != nil {
			log.WithError(err).Warn("nats unavailable, alerts stay local")
		} else {
			defer drain(nc, log)
			publisher = messaging.NewNATSAlertPublisher(nc, cfg.NATSSubjectPrefix, log)
		}
	}

	h := hub.New(log)
	resolver := services.NewRouteResolver(store, routeCache, cat, log)
	tracker := services.NewTracker(services.TrackerDeps{
		Store:  store,
		Routes: resolver,
		Evaluator: alerts.NewEvaluator(alerts.Policy{
			Tolerance:  cfg.DeviationToleranceM,
			SpeedLimit: cfg.SpeedLimitKmh,
		}),
		Registry:  tracking.NewRegistry(),
		Hub:       h,
		Publisher: publisher,
		Log:       log,
	})

	router := api.NewRouter(api.Deps{
		Tracker:        tracker,
		Routes:         services.NewRouteService(store, resolver, cat, log),
		Deliveries:     services.NewDeliveryService(store, resolver, log),
		Alerts:         services.NewAlertService(store),
		Cameras:        services.NewCameraService(cat),
		Stats:          services.NewStatsService(store, tracker.ActiveDriverCount),
		Hub:            h,
		Site:           cat.Site,
		Store:          store,
		AllowedOrigins: cfg.AllowedOrigins,
		WSSendBuffer:   cfg.WSSendBuffer,
		Log:            log,
	})

	// No WriteTimeout: WebSocket connections are long-lived and manage
	// their own write deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("run: listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("run: shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) *sql.DB {
	if cfg.DBDriver == "pgx" && cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is empty, running without a store")
		return nil
	}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DataSource())
	if err != nil {
		log.WithError(err).Warn("database unavailable, running without a store")
		return nil
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.WithError(err).Warn("schema initialization failed, running without a store")
		_ = conn.Close()
		return nil
	}
	log.WithField("driver", cfg.DBDriver).Info("database ready")
	return conn
}

func logRedis(ctx context.Context, rdb *redis.Client, log logrus.FieldLogger) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, route cache will be bypassed")
		return
	}
	log.Info("route cache ready")
}

func drain(nc *nats.Conn, log logrus.FieldLogger) {
	if err := nc.Drain(); err != nil {
		log.WithError(err).Warn("nats drain failed")
	}
}
