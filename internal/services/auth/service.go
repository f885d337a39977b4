// Package auth guards the administrative surface: a shared admin key
// checked without leaking timing, backed by a fixed-window rate limiter on
// failures and successes alike.
package auth

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nwestbury/digitduel/internal/dependencies/clock"
	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/ratelimit"
)

// Config holds configuration for the admin auth service
type Config struct {
	// AdminKey is the shared secret for the admin surface
	AdminKey string
	// RateLimit is the number of attempts allowed per window per caller
	RateLimit int
	// RateWindow is the fixed rate-limit window
	RateWindow time.Duration
}

// DefaultConfig returns default admin auth configuration
func DefaultConfig() Config {
	return Config{
		RateLimit:  5,
		RateWindow: time.Minute,
	}
}

// Service validates admin credentials
type Service struct {
	keyHash []byte
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New creates an admin auth service. The configured key is hashed once at
// startup; presented keys are checked with bcrypt so the comparison does
// not leak timing.
func New(cfg Config, clk clock.Clock, logger *slog.Logger) (*Service, error) {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultConfig().RateLimit
	}
	if cfg.RateWindow == 0 {
		cfg.RateWindow = DefaultConfig().RateWindow
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Service{
		keyHash: hash,
		limiter: ratelimit.New(cfg.RateLimit, cfg.RateWindow, clk),
		logger:  logger,
	}, nil
}

// Verify checks a presented admin key on behalf of caller (an identity such
// as a remote address). It returns model.ErrRateLimited once the caller has
// exhausted its attempt window, model.ErrAdminKeyMissing for an absent key
// and model.ErrAdminKeyWrong for a wrong one. Failures are logged with the
// caller identity for audit.
func (s *Service) Verify(caller, key string) error {
	if !s.limiter.Allow(caller) {
		s.logger.Warn("admin rate limit exceeded", slog.String("caller", caller))
		return model.ErrRateLimited
	}

	if key == "" {
		s.logger.Warn("admin access attempt without key", slog.String("caller", caller))
		return model.ErrAdminKeyMissing
	}

	if err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(key)); err != nil {
		s.logger.Warn("invalid admin key attempt", slog.String("caller", caller))
		return model.ErrAdminKeyWrong
	}

	return nil
}
