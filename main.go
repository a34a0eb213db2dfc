package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"unostat-app/internal/config"
	"unostat-app/internal/events"
	"unostat-app/internal/export"
	"unostat-app/internal/league"
	"unostat-app/internal/live"
	"unostat-app/internal/scoring"
	"unostat-app/internal/store"
	"unostat-app/internal/web"
	"unostat-app/internal/worker"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = config.DefaultConfig()
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	appStore, err := openStore(cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver(), "error", err)
		os.Exit(1)
	}
	if closer, ok := appStore.(io.Closer); ok {
		defer closer.Close()
	}
	logger.Info("store ready", "driver", cfg.Store.Driver())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := league.NewService(appStore, logger)

	hub := live.NewHub(cfg.Live, logger)
	if cfg.Live.Enabled {
		hub.SetSnapshot(svc.Standings)
		svc.SetNotifier(hub)
		go hub.Run()
		defer hub.Stop()
	}

	if cfg.Export.Enabled {
		exporter, err := export.NewS3Exporter(ctx, cfg.Export)
		if err != nil {
			logger.Error("failed to configure standings export", "error", err)
			os.Exit(1)
		}
		svc.SetExporter(exporter)
		logger.Info("standings export enabled", "bucket", cfg.Export.Bucket)
	}

	var syncWorker *worker.SyncWorker
	if client := newScoringClient(cfg, logger); client != nil {
		svc.SetMirror(scoring.NewMirror(client))
		if cfg.Sync.Enabled {
			syncWorker = worker.NewSyncWorker(client, appStore, svc, &cfg.Sync, logger)
			if err := syncWorker.Start(ctx); err != nil {
				logger.Error("failed to start sync worker", "error", err)
				os.Exit(1)
			}
		}
	}

	var consumer *events.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = events.NewConsumer(&cfg.Kafka, svc, appStore, logger)
		if err != nil {
			logger.Error("failed to create Kafka consumer", "error", err)
			os.Exit(1)
		}
		if err := consumer.Start(); err != nil {
			logger.Error("failed to start Kafka consumer", "error", err)
			os.Exit(1)
		}
	}

	server := web.NewServer(svc, logger)
	server.SetAllowedOrigins(cfg.Server.AllowedOrigins)
	if cfg.Live.Enabled {
		server.SetLive(hub.ServeWs)
	}
	handler := server.Routes()

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		logger.Info("starting in Lambda mode")
		adapter := httpadapter.New(handler)
		lambda.Start(adapter.ProxyWithContext)
		return
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}
	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Error("failed to stop sync worker", "error", err)
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver() {
	case "postgres":
		return store.NewPostgresStore(cfg.PostgresDSN, store.PostgresOptions{MigrationsDir: cfg.PostgresMigrations})
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath, store.SQLiteOptions{MigrationsDir: cfg.SQLiteMigrations})
	}
	return store.NewMemoryStore(), nil
}

// newScoringClient returns nil when no scoring API is configured. The Redis cache is
// optional; the client works uncached when Redis is unreachable.
func newScoringClient(cfg *config.Config, logger *slog.Logger) *scoring.Client {
	client, err := scoring.NewClient(cfg.Scoring, logger)
	if err != nil {
		if !errors.Is(err, scoring.ErrNotConfigured) {
			logger.Warn("scoring client disabled", "error", err)
		}
		return nil
	}
	if cfg.Redis.Enabled {
		cache, err := scoring.NewRedisCache(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, scoring cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			client.SetCache(cache, cfg.Redis.CacheTTL)
			logger.Info("scoring cache enabled", "addr", cfg.Redis.Addr)
		}
	}
	logger.Info("scoring API configured", "base_url", cfg.Scoring.BaseURL)
	return client
}
