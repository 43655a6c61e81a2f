package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/api"
	"github.com/user/staffscout/internal/config"
	"github.com/user/staffscout/internal/monitoring"
	"github.com/user/staffscout/internal/output"
	"github.com/user/staffscout/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", zap.Error(err))
		return err
	}
	defer st.close()

	client, err := newLinkedInClient(cfg, logger)
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	opts := service.Options{
		Workers:     cfg.DimensionWorkers,
		OrgCacheTTL: cfg.OrgCacheTTL(),
		LockTTL:     cfg.ScrapeLockTTL(),
		Metrics:     metrics,
		Logger:      logger,
		AsyncWrites: true,
	}
	if cfg.WriteFiles {
		opts.Writer = output.NewWriter(cfg.OutputDir, logger)
	}
	st.apply(&opts)
	svc := service.New(client, opts)

	server := api.NewServer(cfg.ServerPort, svc, prometheus.DefaultGatherer, metrics, logger)

	// Graceful Shutdown
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("could not start server", zap.Error(err))
		return err
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	svc.Wait()

	logger.Info("server exiting")
	return nil
}
