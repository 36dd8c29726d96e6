package api

import (
	"net/http"

	"github.com/dtran/focus-rival/internal/api/handlers"
	"github.com/dtran/focus-rival/internal/api/middleware"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/dtran/focus-rival/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewRouter(services *service.Services, manager *engine.Manager, hub *websocket.Hub, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	requireAuth := middleware.Auth(services.Auth, log)

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	focusHandler := handlers.NewFocusHandler(manager)
	challengeHandler := handlers.NewChallengeHandler(manager, services.Resolver)
	groupHandler := handlers.NewGroupHandler(services.Group, services.Pairing)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			// Focus session routes
			r.Route("/focus", func(r chi.Router) {
				r.Post("/start", focusHandler.Start)
				r.Post("/cancel", focusHandler.Cancel)
				r.Get("/status", focusHandler.Status)
				r.Post("/recheck", focusHandler.Recheck)
			})

			// Challenge routes
			r.Route("/challenge", func(r chi.Router) {
				r.Get("/", challengeHandler.Current)
				r.Post("/rotate", challengeHandler.ForceRotate)
				r.Get("/history", challengeHandler.History)
			})

			// Group routes
			r.Route("/groups", func(r chi.Router) {
				r.Post("/", groupHandler.Create)
				r.Get("/{id}", groupHandler.Get)
				r.Post("/{id}/join", groupHandler.Join)
				r.Get("/{id}/pairs", groupHandler.Pairs)
				r.Post("/{id}/pairs/regenerate", groupHandler.RegeneratePairs)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
