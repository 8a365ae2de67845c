// Package app wires storage and servers together for the deepcut server.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/managers"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defaults, err := a.configProvider.GetDetectionParams()
	if err != nil {
		return err
	}
	storageCfg, err := a.configProvider.GetStorageConfig()
	if err != nil {
		return err
	}
	serverCfg, err := a.configProvider.GetServerConfig()
	if err != nil {
		return err
	}

	health := storage.NewHealthManager()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, storageCfg, health)
	if err != nil {
		return err
	}
	defer storageManager.Close()

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, serverCfg, defaults, storageManager.Store(), health, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
