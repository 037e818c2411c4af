package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fleet-dashboard/internal/backend"
	"fleet-dashboard/internal/client"
	"fleet-dashboard/internal/config"
	"fleet-dashboard/internal/db"
	httphandler "fleet-dashboard/internal/http"
	"fleet-dashboard/internal/live"
	"fleet-dashboard/internal/logger"
	"fleet-dashboard/internal/repository"
	"fleet-dashboard/internal/service"
	"fleet-dashboard/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment, cfg.Log)

	store, err := newBackend(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to set up backend")
	}

	dashboardService := service.NewDashboardService(store, store, cfg.Dashboard.IncludeEmptyJobs, appLogger)
	jobService := service.NewJobService(store, store, store, dashboardService, cfg.Dashboard.VehicleTypes, appLogger)

	hub := live.NewHub(dashboardService.State, appLogger)
	dashboardService.OnPublish(hub.Broadcast)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher := worker.NewRefresher(dashboardService, cfg.Dashboard.RefreshInterval, appLogger)
	if err := refresher.Start(ctx); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start refresher")
	}

	handler := httphandler.NewHandler(dashboardService, jobService, hub, appLogger)
	router := httphandler.NewRouter(handler, appLogger, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Str("addr", addr).Str("backend", cfg.Backend.Driver).Msg("starting fleet dashboard")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	refresher.Stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}

func newBackend(cfg *config.Config, log zerolog.Logger) (backend.Backend, error) {
	switch cfg.Backend.Driver {
	case config.BackendDriverPostgres:
		database, err := db.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return repository.NewBackend(database), nil
	default:
		info, err := client.InspectAPIKey(cfg.Backend.APIKey)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("backend api key is not a JWT, cannot check its role or expiry")
		case info.Expired(time.Now()):
			log.Warn().Time("expires_at", *info.ExpiresAt).Msg("backend api key has expired")
		default:
			log.Info().Str("role", info.Role).Msg("using backend api key")
		}
		return client.NewBackendClient(cfg.Backend), nil
	}
}
