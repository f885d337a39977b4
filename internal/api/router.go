package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nwestbury/digitduel/internal/api/handler"
	"github.com/nwestbury/digitduel/internal/api/middleware"
	"github.com/nwestbury/digitduel/internal/services/auth"
	"github.com/nwestbury/digitduel/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *session.Coordinator
	// AuthService guards the admin surface; nil disables it entirely
	AuthService *auth.Service
	// WSHandler serves the game WebSocket endpoint
	WSHandler http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	healthHandler := handler.NewHealthHandler(cfg.Coordinator)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Game clients connect here; no middleware so the upgrade hijack is
	// unobstructed
	r.Handle("/ws", cfg.WSHandler)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	if cfg.AuthService != nil {
		adminHandler := handler.NewAdminHandler(cfg.Coordinator)

		admin := api.PathPrefix("/admin").Subrouter()
		admin.Use(middleware.AdminAuth(cfg.AuthService))
		admin.HandleFunc("/rooms", adminHandler.ListRooms).Methods(http.MethodGet)
		admin.HandleFunc("/rooms/{room_id}", adminHandler.GetRoom).Methods(http.MethodGet)
		admin.HandleFunc("/rooms/{room_id}", adminHandler.KillRoom).Methods(http.MethodDelete)
		admin.HandleFunc("/rooms/{room_id}/reset", adminHandler.ResetRoom).Methods(http.MethodPost)
	}

	return r
}
