// Main entry point for the Go ML wrapper service
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-mlwrapper/internal/clients"
	"go-mlwrapper/internal/config"
	"go-mlwrapper/internal/handlers"
	applogger "go-mlwrapper/internal/logger"
	"go-mlwrapper/internal/repo"
	"go-mlwrapper/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger, err := applogger.NewLogger(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional prediction audit log
	var audit services.AuditStore
	if cfg.AuditEnabled() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := repo.InitDB(ctx, pool); err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		audit = repo.NewPredictionLogRepo(pool)
		logger.Info("Prediction audit log enabled")
	}

	// Initialize client and service
	mlClient := clients.NewMLClient(cfg.MLService.URL, cfg.MLService.Timeout, logger)
	predictionService := services.NewPredictionService(mlClient, audit, logger)

	// Setup HTTP server
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := handlers.NewHandler(predictionService, cfg.ServiceName, logger)
	router := handlers.NewRouter(handler, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// must outlast the ML service timeout so 500s can still be written
		WriteTimeout: cfg.MLService.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("ML wrapper listening",
			zap.String("addr", server.Addr),
			zap.String("ml_service_url", mlClient.PredictURL()),
			zap.Bool("debug", cfg.Debug))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("ML wrapper stopped")
}
