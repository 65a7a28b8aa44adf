package server

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService exposes the standard gRPC health checking protocol.
// The overall status ("") is SERVING from Start until Shutdown.
type HealthService struct {
	addr   string
	logger *zap.Logger
	status *health.Server
	grpc   *grpc.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewHealthService creates a health service that will listen on addr.
//
// Precondition: addr must be a "host:port" string; logger must be non-nil.
func NewHealthService(addr string, logger *zap.Logger) *HealthService {
	status := health.NewServer()
	status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, status)
	return &HealthService{
		addr:   addr,
		logger: logger,
		status: status,
		grpc:   srv,
	}
}

// Start listens and serves until Stop is called.
//
// Postcondition: Returns nil after Stop, or the listen/serve error.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	h.mu.Lock()
	h.listener = lis
	h.mu.Unlock()

	h.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.logger.Info("health service listening",
		zap.String("addr", lis.Addr().String()),
	)
	if err := h.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("serving health: %w", err)
	}
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (h *HealthService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// SetServing marks a named component as serving or not.
func (h *HealthService) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.status.SetServingStatus(service, st)
}

// Shutdown flips every status to NOT_SERVING. Watchers are told before
// the server goes away.
func (h *HealthService) Shutdown() {
	h.status.Shutdown()
}

// Stop shuts the status down and stops the gRPC server gracefully.
func (h *HealthService) Stop() {
	h.status.Shutdown()
	h.grpc.GracefulStop()
}
