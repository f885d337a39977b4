// Package factory wires the application components together
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/nwestbury/digitduel/internal/dependencies/clock"
	"github.com/nwestbury/digitduel/internal/dependencies/random"
	"github.com/nwestbury/digitduel/internal/registry"
	"github.com/nwestbury/digitduel/internal/services/auth"
	"github.com/nwestbury/digitduel/internal/services/session"
	"github.com/nwestbury/digitduel/internal/storage"
	"github.com/nwestbury/digitduel/internal/storage/memory"
	redisstorage "github.com/nwestbury/digitduel/internal/storage/redis"
	"github.com/nwestbury/digitduel/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	Registry    *registry.Registry
	Hub         *ws.Hub
	Coordinator *session.Coordinator
	WSHandler   *ws.Handler

	// AuthService is nil when no admin key is configured; the admin
	// surface is disabled in that case
	AuthService *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig holds room lifecycle tunables
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
	// AdminKey guards the admin surface; empty disables it
	AdminKey string
	// AuthConfig tunes the admin rate limiter (optional)
	AuthConfig auth.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	sessionCfg := cfg.SessionConfig
	if sessionCfg == (session.Config{}) {
		sessionCfg = session.DefaultConfig()
	}

	app := newWithDependencies(store, clk, rnd, sessionCfg, logger)

	if cfg.AdminKey != "" {
		authCfg := cfg.AuthConfig
		authCfg.AdminKey = cfg.AdminKey
		authService, err := auth.New(authCfg, clk, logger)
		if err != nil {
			return nil, err
		}
		app.AuthService = authService
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sessionCfg session.Config,
	logger *slog.Logger,
) *App {
	reg := registry.New()
	hub := ws.NewHub(logger)
	coordinator := session.NewCoordinator(store, reg, clk, rnd, hub, logger, sessionCfg)
	wsHandler := ws.NewHandler(hub, coordinator, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Registry:    reg,
		Hub:         hub,
		Coordinator: coordinator,
		WSHandler:   wsHandler,
	}
}

// Shutdown releases the app's background resources
func (a *App) Shutdown() {
	a.Coordinator.Shutdown()
}
