package grpc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/spounge-ai/logshipper/pkg/patterns/lifecycle"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the log shipper.
const ServiceName = "logshipper.v1.LogShipper"

// HealthServer exposes the gRPC health protocol for orchestrators that probe
// over gRPC.
type HealthServer struct {
	grpcServer *grpc.Server
	healthSrv  *health.Server
	lis        net.Listener
	logger     *zap.Logger
	serving    atomic.Bool
}

func NewHealthServer(port int, logger *zap.Logger) (*HealthServer, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		grpcServer: grpcServer,
		healthSrv:  healthSrv,
		lis:        lis,
		logger:     logger,
	}, nil
}

// Addr returns the address the server listens on.
func (s *HealthServer) Addr() net.Addr {
	return s.lis.Addr()
}

func (s *HealthServer) Start(ctx context.Context) error {
	if !s.serving.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("gRPC health server listening", zap.String("address", s.lis.Addr().String()))
	s.healthSrv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		if err := s.grpcServer.Serve(s.lis); err != nil {
			s.logger.Error("gRPC health server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

func (s *HealthServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gRPC health server")
	s.healthSrv.Shutdown()
	s.serving.Store(false)

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	return nil
}

func (s *HealthServer) Health(ctx context.Context) lifecycle.HealthStatus {
	if !s.serving.Load() {
		return lifecycle.HealthStatus{Ready: false, Message: "not serving"}
	}
	return lifecycle.HealthStatus{Ready: true}
}
