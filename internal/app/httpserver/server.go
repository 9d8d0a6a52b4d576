package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spounge-ai/logshipper/pkg/patterns/lifecycle"
	"go.uber.org/zap"
)

// Server serves the trigger endpoint.
type Server struct {
	httpServer *http.Server
	lis        net.Listener
	logger     *zap.Logger
	running    atomic.Bool
}

func New(port int, handler http.Handler, logger *zap.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		lis:    lis,
		logger: logger,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("HTTP server listening", zap.String("address", s.lis.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(s.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
		s.running.Store(false)
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	// Serve closes the listener on shutdown; this covers a server that never started.
	if err := s.lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("failed to close listener", zap.Error(err))
	}
	s.running.Store(false)
	return nil
}

func (s *Server) Health(ctx context.Context) lifecycle.HealthStatus {
	if !s.running.Load() {
		return lifecycle.HealthStatus{Ready: false, Message: "not serving"}
	}
	return lifecycle.HealthStatus{Ready: true}
}
