package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
)

const healthProbeInterval = 15 * time.Second

// GRPCServer serves the standard health service and reflection. Its status
// follows the same dependency checks as /health.
type GRPCServer struct {
	config     *conf.Config
	logger     *logger.Logger
	grpcServer *grpc.Server
	health     *health.Server
	checker    HealthChecker

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewGRPCServer(config *conf.Config, log *logger.Logger, checker HealthChecker) *GRPCServer {
	log = log.Named("grpc")

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logger.UnaryServerInterceptor(log, healthpb.Health_Check_FullMethodName)),
		grpc.ChainStreamInterceptor(logger.StreamServerInterceptor(log, healthpb.Health_Watch_FullMethodName)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	return &GRPCServer{
		config:     config,
		logger:     log,
		grpcServer: grpcServer,
		health:     hs,
		checker:    checker,
		stopCh:     make(chan struct{}),
	}
}

func (s *GRPCServer) Start() error {
	addr := s.config.Server.GRPCAddr()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.probe()
	go s.watch()

	s.logger.Info("starting gRPC server", zap.String("addr", addr))
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (s *GRPCServer) watch() {
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.probe()
		}
	}
}

func (s *GRPCServer) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for name, err := range s.checker.Check(ctx) {
		if err != nil {
			s.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
}

func (s *GRPCServer) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping gRPC server")
		close(s.stopCh)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}
