package main

import (
	"market-confluence/src/grpc_control"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
)

// -----------------------------------------------------------------------------

// startServers starts the HTTP/WebSocket server and, when configured, the
// gRPC control server. The first fatal error of either arrives on the
// returned channel.
func startServers(
	srv interfaces.IDataExchanger,
	control *grpc_control.Server,
	appLogger *logger.Logger,
) <-chan error {
	errCh := make(chan error, 2)

	// 1. FastAPIServer
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
			errCh <- err
		}
	}()

	// 2. gRPC Control Server
	if control != nil {
		go func() {
			if err := control.Start(); err != nil {
				appLogger.Critical("gRPC server failed: %v", err)
				errCh <- err
			}
		}()
	}

	return errCh
}

// stopServers shuts both servers down.
func stopServers(srv interfaces.IDataExchanger, control *grpc_control.Server, appLogger *logger.Logger) {
	if control != nil {
		control.Stop()
	}
	if err := srv.Stop(); err != nil {
		appLogger.Warning("Server shutdown: %v", err)
	}
}
