package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"welchpower/app"
	"welchpower/internal"
	"welchpower/internal/api"
	"welchpower/internal/config"
	"welchpower/internal/metrics"
	"welchpower/internal/simulation"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	service := app.NewPowerService(app.PowerServiceConfig{
		Bounds:       appConfig.Solver.Bounds(),
		MaxSample:    appConfig.Solver.MaxSample,
		SweepWorkers: appConfig.Sweep.Workers,
		Simulation: simulation.Options{
			Replicates: appConfig.Simulation.Replicates,
			Workers:    appConfig.Simulation.Workers,
			Seed:       appConfig.Simulation.Seed,
		},
		Metrics: collector,
		Logger:  logger,
	})

	gin.SetMode(appConfig.Server.GinMode)
	server := api.NewServer(service, api.ServerOptions{
		Metrics:  collector,
		Gatherer: registry,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting welchpower API on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
