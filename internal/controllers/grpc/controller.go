// Package grpc serves profile detection over gRPC.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/chrissnell/deepcut/internal/grpcutil"
	"github.com/chrissnell/deepcut/internal/log"
	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/config"
)

// Controller represents the gRPC controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	Server     *grpc.Server
	GRPCConfig *config.GRPCData
	Store      storage.Store
	Defaults   profile.Params
	health     *health.Server
	logger     *zap.SugaredLogger
}

var _ ProfilerServer = (*Controller)(nil)

// NewController creates a new gRPC controller instance. store may be nil.
func NewController(ctx context.Context, wg *sync.WaitGroup, grpcConfig config.GRPCData, defaults profile.Params,
	store storage.Store, logger *zap.SugaredLogger) (*Controller, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default detection parameters: %w", err)
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		GRPCConfig: &grpcConfig,
		Store:      store,
		Defaults:   defaults,
		health:     health.NewServer(),
		logger:     logger,
	}

	opts := []grpc.ServerOption{grpc.UnaryInterceptor(grpcutil.LoggingInterceptor(logger))}

	// Create gRPC server with optional TLS
	if grpcConfig.Cert != "" && grpcConfig.Key != "" {
		creds, err := credentials.NewServerTLSFromFile(grpcConfig.Cert, grpcConfig.Key)
		if err != nil {
			return nil, fmt.Errorf("could not create TLS server from keypair: %v", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	ctrl.Server = grpc.NewServer(opts...)

	RegisterProfilerServer(ctrl.Server, ctrl)
	healthpb.RegisterHealthServer(ctrl.Server, ctrl.health)
	ctrl.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return ctrl, nil
}

// StartController starts the gRPC controller
func (c *Controller) StartController() error {
	listenAddr := fmt.Sprintf("%s:%v", c.GRPCConfig.ListenAddr, c.GRPCConfig.Port)
	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("gRPC controller could not create listener: %w", err)
	}
	return c.Serve(l)
}

// Serve accepts connections on l until the controller's context is cancelled
func (c *Controller) Serve(l net.Listener) error {
	log.Infof("gRPC controller listening on %s", l.Addr())
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(l); err != nil {
			log.Errorf("gRPC controller serve error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.StopController()
	}()

	return nil
}

// StopController stops the gRPC controller
func (c *Controller) StopController() {
	log.Info("stopping gRPC controller...")
	c.health.Shutdown()
	c.Server.GracefulStop()
}

// FindProfiles runs detection over the submitted record
func (c *Controller) FindProfiles(ctx context.Context, in *FindProfilesRequest) (*FindProfilesResponse, error) {
	params := c.Defaults
	if in.Params != nil {
		params = *in.Params
	}

	segments, err := profile.FindProfiles(in.Pressure, params)
	if err != nil {
		return nil, grpcutil.StatusFromError(err)
	}

	resp := &FindProfilesResponse{
		Segments: segments,
		Summary:  profile.Summarize(segments, len(in.Pressure)),
	}

	if in.Deployment != "" && c.Store != nil {
		run := storage.NewRun(in.Deployment, len(in.Pressure), params, segments)
		if err := c.Store.SaveRun(ctx, run); err != nil {
			return nil, grpcutil.StatusFromError(err)
		}
		resp.RunID = run.ID.String()
	}

	return resp, nil
}

// GetRun returns one stored run
func (c *Controller) GetRun(ctx context.Context, in *GetRunRequest) (*storage.Run, error) {
	if c.Store == nil {
		return nil, status.Error(codes.Unavailable, "no results store configured")
	}

	id, err := uuid.Parse(in.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid run id %q", in.ID)
	}

	run, err := c.Store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, grpcutil.StatusFromError(err)
	}
	return &run, nil
}

// ListRuns returns the stored runs of a deployment, or every run when none is named
func (c *Controller) ListRuns(ctx context.Context, in *ListRunsRequest) (*ListRunsResponse, error) {
	if c.Store == nil {
		return nil, status.Error(codes.Unavailable, "no results store configured")
	}

	runs, err := c.Store.ListRuns(ctx, in.Deployment)
	if err != nil {
		return nil, grpcutil.StatusFromError(err)
	}
	return &ListRunsResponse{Runs: runs}, nil
}
