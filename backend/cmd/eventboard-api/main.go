package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/eventboard/backend/internal/router"
	"github.com/itchan-dev/eventboard/backend/internal/setup"
	"github.com/itchan-dev/eventboard/shared/config"
	"github.com/itchan-dev/eventboard/shared/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	if cfg.Public.GC.Enabled {
		deps.GC.StartBackgroundCleanup(ctx, cfg.Public.GC.Interval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Public.Port),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("server started", "addr", srv.Addr, "blob_backend", cfg.Public.Blob.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Log.Error("server error", "error", err)
			deps.Storage.Cleanup()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
	logger.Log.Info("shutdown complete")
}
