// Package restserver serves profile detection and stored runs over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/config"
)

// DefaultMaxSamples caps submitted records when the configuration sets no limit
const DefaultMaxSamples = 5_000_000

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	Store      storage.Store
	Health     *storage.HealthManager
	Defaults   profile.Params
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. store and health may be nil, in
// which case runs are neither saved nor listed.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, defaults profile.Params,
	store storage.Store, health *storage.HealthManager, logger *zap.SugaredLogger) (*Controller, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default detection parameters: %w", err)
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	if rc.MaxSamples == 0 {
		rc.MaxSamples = DefaultMaxSamples
	}

	if health == nil {
		health = storage.NewHealthManager()
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		Store:      store,
		Health:     health,
		Defaults:   defaults,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.StopController()
	}()

	return nil
}

// StopController shuts the server down, waiting up to five seconds for requests in flight
func (c *Controller) StopController() error {
	log.Info("shutting down the REST server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Server.Shutdown(ctx)
}

// Handler returns the router wrapped in recovery, access logging, compression and CORS
func (c *Controller) Handler() http.Handler {
	router := c.setupRouter()

	var h http.Handler = router
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedOrigins([]string{"*"}),
	)(h)
	h = handlers.CustomLoggingHandler(nil, h, log.HTTPLogFormatter)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{c.logger}))(h)
	return h
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/profiles", c.handlers.PostProfiles).Methods(http.MethodPost)
	api.HandleFunc("/params", c.handlers.GetParams).Methods(http.MethodGet)
	api.HandleFunc("/runs", c.handlers.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)

	return router
}

// recoveryLogger adapts zap to the handlers.RecoveryHandlerLogger interface
type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (r recoveryLogger) Println(args ...interface{}) {
	r.logger.Error(args...)
}
