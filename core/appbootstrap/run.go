package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel-ehs/api"
	"sentinel-ehs/config"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

const shutdownGrace = 15 * time.Second

// Run wires the whole service together and blocks until a termination signal
// arrives or the listener fails.
func Run(configPath string) error {
	logger := utils.NewLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		return err
	}

	runtime, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}

	for _, worker := range runtime.workers {
		worker.StartWithContext(ctx)
	}

	server := api.NewServer(cfg, runtime.serverDeps, logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server shutdown: %v", err)
	}
	for _, worker := range runtime.workers {
		if err := worker.StopWithContext(shutdownCtx); err != nil {
			logger.Printf("worker shutdown: %v", err)
		}
	}
	logger.Printf("stopped")
	return nil
}
