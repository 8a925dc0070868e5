package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"market-confluence/src/grpc_control"
	"market-confluence/src/logger"
	"market-confluence/src/metrics"
	"market-confluence/src/server"
	"market-confluence/src/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler with the HTTP, WebSocket and gRPC servers",
	Long: `Starts the confluence scheduler, which rebuilds the snapshot every poll
interval, journals transition events and pushes both to WebSocket
listeners. HTTP and gRPC expose the same engine on demand.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// -----------------------------------------------------------------------------

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				a.log.Warning("Closing event journal: %v", err)
			}
		}()
	}

	rec := metrics.NewRecorder()
	srv := server.NewFastAPIServer(a.cfg.MConfig, logger.NewLogger(a.cfg.MConfig, "FastAPIServer"), a.engine, store, rec)

	var control *grpc_control.Server
	if a.cfg.GrpcPort > 0 {
		svc := grpc_control.NewControlService(a.engine, store, a.params(), logger.NewLogger(a.cfg.MConfig, "ControlService"))
		control = grpc_control.NewServer(a.cfg.MConfig, logger.NewLogger(a.cfg.MConfig, "GrpcServer"), svc)
	}

	scheduler := utils.NewMarketScheduler(a.cfg.MConfig, a.engine, store, srv, rec, logger.NewLogger(a.cfg.MConfig, "MarketScheduler"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := startServers(srv, control, a.log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	a.log.Info("Market confluence running for %s (poll every %s)", a.cfg.Calendar.Exchange, scheduler.Interval)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down...")
	case err := <-errCh:
		runErr = fmt.Errorf("server stopped: %w", err)
		stop()
	}

	wg.Wait()
	stopServers(srv, control, a.log)
	return runErr
}
