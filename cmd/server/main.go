package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtran/focus-rival/internal/api"
	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/config"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/dtran/focus-rival/internal/logger"
	"github.com/dtran/focus-rival/internal/repository/postgres"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/dtran/focus-rival/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Initialize repositories and durable clock store
	repos := postgres.NewRepositories(db)
	store := clockstore.NewPostgresStore(db)

	// Event bus
	bus := events.NewBus()

	// Initialize services
	services := service.NewServices(repos, cfg, bus, log)

	// Timer engine manager
	manager := engine.NewManager(
		engine.SystemClock(),
		store,
		services.Resolver,
		services.Pairing,
		services.Ledger,
		bus,
		log,
		cfg.RotationPeriod,
		cfg.TickInterval,
	)
	go manager.Run()

	// WebSocket hub streaming bus events
	hub := websocket.NewHub(bus, log)
	go hub.Run()

	// Initialize router
	router := api.NewRouter(services, manager, hub, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	manager.Stop()
	hub.Stop()

	log.Info().Msg("server stopped")
}
