package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/deepcut/internal/controllers/grpc"
	"github.com/chrissnell/deepcut/internal/controllers/restserver"
	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/config"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a controller for every server section present in c.
// store and health may be nil.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, c *config.ServerData, defaults profile.Params,
	store storage.Store, health *storage.HealthManager, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		wg:          wg,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	if c.REST != nil {
		ctrl, err := restserver.NewController(ctx, wg, *c.REST, defaults, store, health, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating REST controller: %v", err)
		}
		cm.controllers = append(cm.controllers, ctrl)
	}

	if c.GRPC != nil {
		ctrl, err := grpc.NewController(ctx, wg, *c.GRPC, defaults, store, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating gRPC controller: %v", err)
		}
		cm.controllers = append(cm.controllers, ctrl)
	}

	if len(cm.controllers) == 0 {
		return nil, fmt.Errorf("no server configured: add a server.rest or server.grpc section")
	}

	return cm, nil
}

type controllerManager struct {
	wg          *sync.WaitGroup
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}
