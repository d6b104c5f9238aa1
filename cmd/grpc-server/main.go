package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"muebles-catalog/internal/app"
	"muebles-catalog/internal/config"
	grpcHandler "muebles-catalog/internal/handler/grpc"
	"muebles-catalog/internal/logger"
	middleware_grpc "muebles-catalog/internal/middleware/grpc"
	"muebles-catalog/internal/telemetry"
	"muebles-catalog/internal/version"
)

const healthInterval = 15 * time.Second

func main() {
	// Create cancellable context for graceful shutdown
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Instance()
	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
		slog.Bool("gracefulShutdown", cfg.IsProduction()),
	)

	shutdown, err := telemetry.Init(globalCtx, cfg)
	if err != nil {
		logger.Warn(globalCtx, "Telemetry disabled", logger.Err(err))
	}
	defer shutdown()

	a, err := app.New(globalCtx, cfg)
	if err != nil {
		logger.Error(globalCtx, "Failed to start application", logger.Err(err))
		os.Exit(1)
	}
	defer a.Close(context.WithoutCancel(globalCtx))

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware_grpc.UnaryRecoveryInterceptor(),
			middleware_grpc.UnaryTracingInterceptor(),
		),
	)
	grpcHandler.RegisterCatalogServiceServer(grpcServer, grpcHandler.NewProductGRPCHandler(a.Products))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		logger.Error(globalCtx, "failed to listen", logger.Err(err))
		os.Exit(1)
	}

	logger.Info(globalCtx, "gRPC server running", slog.String("port", cfg.GrpcPort))

	go watchHealth(globalCtx, a, healthServer)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(globalCtx, "failed to serve", logger.Err(err))
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-globalCtx.Done()

	healthServer.Shutdown()
	if !cfg.IsProduction() {
		logger.Info(globalCtx, "Received shutdown signal, stopping immediately")
		grpcServer.Stop()
		return
	}

	logger.Info(globalCtx, "Shutting down gRPC server")
	grpcServer.GracefulStop()
	logger.Info(globalCtx, "gRPC server exited cleanly")
}

// watchHealth mirrors the catalog health check into the standard gRPC
// health service, both for the overall server and the catalog service.
func watchHealth(ctx context.Context, a *app.App, hs *health.Server) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		st := healthpb.HealthCheckResponse_SERVING
		if !a.Health.Check(ctx).Healthy() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(grpcHandler.ServiceName, st)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
