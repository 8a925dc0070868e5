package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"market-confluence/src/logger"
	"market-confluence/src/models"

	"google.golang.org/grpc"
)

// Server hosts the ControlService.
type Server struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Service *ControlService
	grpc    *grpc.Server
}

func NewServer(cfg *models.MConfig, log *logger.Logger, svc *ControlService) *Server {
	s := &Server{Config: cfg, Logger: log, Service: svc}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logCalls))
	RegisterControlServer(s.grpc, svc)
	return s
}

// -----------------------------------------------------------------------------

// Start listens on grpc_host:grpc_port and blocks until Stop.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", addr, err)
	}
	s.Logger.Info("Starting gRPC Control Server on %s", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// -----------------------------------------------------------------------------

func (s *Server) logCalls(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Warning("gRPC %s failed after %s: %v", info.FullMethod, time.Since(start), err)
	} else {
		s.Logger.Debug("gRPC %s served in %s", info.FullMethod, time.Since(start))
	}
	return resp, err
}
