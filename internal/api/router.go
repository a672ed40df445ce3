package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dalessandro07/bancopoly/internal/api/handler"
	"github.com/dalessandro07/bancopoly/internal/api/middleware"
	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/services/auth"
	"github.com/dalessandro07/bancopoly/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Engine      *ledger.Engine
	Bridge      *sse.Bridge
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService)
	boardHandler := handler.NewBoardHandler(cfg.Engine)
	transferHandler := handler.NewTransferHandler(cfg.Engine)
	eventsHandler := handler.NewEventsHandler(cfg.Engine, cfg.Bridge)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// User routes (no auth required for creating users/logging in)
	api.HandleFunc("/users/guest", userHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost)

	// Protected user routes
	userProtected := api.PathPrefix("/users").Subrouter()
	userProtected.Use(authMiddleware)
	userProtected.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)

	// Board routes (all require auth)
	boards := api.PathPrefix("/boards").Subrouter()
	boards.Use(authMiddleware)
	boards.HandleFunc("", boardHandler.Create).Methods(http.MethodPost)
	boards.HandleFunc("", boardHandler.List).Methods(http.MethodGet)
	boards.HandleFunc("/{id}", boardHandler.Get).Methods(http.MethodGet)
	boards.HandleFunc("/{id}", boardHandler.Delete).Methods(http.MethodDelete)
	boards.HandleFunc("/{id}/join", boardHandler.Join).Methods(http.MethodPost)
	boards.HandleFunc("/{id}/leave", boardHandler.Leave).Methods(http.MethodPost)
	boards.HandleFunc("/{id}/close", boardHandler.Close).Methods(http.MethodPost)
	boards.HandleFunc("/{id}/players/{player_id}", boardHandler.RemovePlayer).Methods(http.MethodDelete)
	boards.HandleFunc("/{id}/transfers", transferHandler.Create).Methods(http.MethodPost)
	boards.HandleFunc("/{id}/transactions", transferHandler.List).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// SSE stream, outside the /api/v1 prefix; no logging middleware so the
	// long-lived connection doesn't hold a log entry open
	events := r.PathPrefix("/boards").Subrouter()
	events.Use(recoveryMiddleware)
	events.Use(authMiddleware)
	events.HandleFunc("/{id}/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
