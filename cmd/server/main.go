package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nwestbury/digitduel/internal/api"
	"github.com/nwestbury/digitduel/internal/config"
	"github.com/nwestbury/digitduel/internal/factory"
	"github.com/nwestbury/digitduel/internal/services/auth"
	"github.com/nwestbury/digitduel/internal/services/session"
	redisstorage "github.com/nwestbury/digitduel/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Local development convenience; a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage.Backend,
		SessionConfig: session.Config{
			RoomCodeLength:    cfg.Game.RoomCodeLength,
			TokenLength:       cfg.Game.TokenLength,
			TurnTimeout:       cfg.Game.TurnTimeout,
			InactivityTimeout: cfg.Game.InactivityTimeout,
		},
		AdminKey: cfg.Admin.Key,
		AuthConfig: auth.Config{
			RateLimit:  cfg.Admin.RateLimit,
			RateWindow: cfg.Admin.RateWindow,
		},
	}

	if cfg.Storage.Backend == factory.StorageTypeRedis {
		factoryCfg.RedisConfig = &redisstorage.Config{
			URL:          cfg.Storage.RedisURL,
			PoolSize:     cfg.Storage.PoolSize,
			MinIdleConns: cfg.Storage.MinIdleConns,
			RoomTTL:      cfg.Storage.RoomTTL,
		}
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Shutdown()

	if app.AuthService == nil {
		logger.Warn("no admin key configured, admin API disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: app.Coordinator,
		AuthService: app.AuthService,
		WSHandler:   app.WSHandler,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Backend),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// newLogger builds the process logger from the log config
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
