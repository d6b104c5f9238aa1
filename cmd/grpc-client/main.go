package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"muebles-catalog/internal/config"
	grpcHandler "muebles-catalog/internal/handler/grpc"
	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/telemetry"
	"muebles-catalog/internal/version"

	"go.opentelemetry.io/otel"
)

// grpc-client polls ListProducts against a running grpc-server, spreading
// calls over every resolved address.
func main() {
	tipo := flag.String("tipo", "", "only list products of this tipo")
	maxSleep := flag.Duration("max-sleep", time.Second, "upper bound of the random pause between calls")
	once := flag.Bool("once", false, "make a single call and exit")
	flag.Parse()
	if *maxSleep <= 0 {
		*maxSleep = time.Millisecond
	}

	globalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Instance()
	cfg := config.Instance()
	tracer := otel.Tracer("CatalogGrpcClient")

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdown, err := telemetry.Init(globalCtx, cfg)
	if err != nil {
		logger.Warn(globalCtx, "Telemetry disabled", logger.Err(err))
	}
	defer shutdown()

	conn, err := grpc.NewClient(
		cfg.GrpcTarget,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
	)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to gRPC server",
			logger.Err(err),
			slog.String("target", cfg.GrpcTarget),
		)
		os.Exit(1)
	}
	defer func() {
		logger.Info(globalCtx, "Closing gRPC connection")
		_ = conn.Close()
	}()

	client := grpcHandler.NewCatalogClient(conn)
	filter, _ := structpb.NewStruct(map[string]any{"tipo": *tipo})

	logger.Info(globalCtx, "gRPC client started",
		slog.String("target", cfg.GrpcTarget),
		slog.String("tipo", *tipo),
		slog.Duration("max_sleep", *maxSleep),
	)

	for {
		ctx, cancel := context.WithTimeout(globalCtx, 3*time.Second)
		ctx, span := tracer.Start(ctx, "CatalogGrpcClient.ListProducts")

		md := metadata.MD{}
		otel.GetTextMapPropagator().Inject(ctx, telemetry.MetadataTextMapCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		var trailer metadata.MD
		resp, err := client.ListProducts(ctx, filter, grpc.Trailer(&trailer))
		span.End()
		cancel()

		traceID := "empty"
		if ids := trailer.Get("x-trace-id"); len(ids) > 0 {
			traceID = ids[0]
		}

		if err != nil {
			logger.Error(globalCtx, "Error calling ListProducts",
				logger.Err(err),
				slog.String("trace_id", traceID),
			)
		} else {
			logger.Info(globalCtx, "Received products",
				slog.String("resolver", resp.GetFields()["resolver"].GetStringValue()),
				slog.String("trace_id", traceID),
				slog.Int("count", len(resp.GetFields()["items"].GetListValue().GetValues())),
			)
		}

		if *once {
			if err != nil {
				os.Exit(1)
			}
			return
		}

		delay := time.Duration(rand.Int63n(int64(*maxSleep)) + 1)
		select {
		case <-globalCtx.Done():
			logger.Info(globalCtx, "Shutting down gRPC client")
			return
		case <-time.After(delay):
		}
	}
}
