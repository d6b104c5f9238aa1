package middleware_grpc

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

const (
	requestIDKey = "x-request-id"
	traceIDKey   = "x-trace-id"
)

// UnaryTracingInterceptor continues the caller's trace from the incoming
// metadata, tags the call with a request id and logs request and response.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		md, _ := metadata.FromIncomingContext(ctx)
		md = md.Copy()
		ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.MetadataTextMapCarrier(md))

		ctx, span := tracer.Start(ctx, info.FullMethod)
		defer span.End()

		requestID := telemetry.MetadataTextMapCarrier(md).Get(requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, requestID))
		_ = grpc.SetTrailer(ctx, metadata.Pairs(traceIDKey, span.SpanContext().TraceID().String()))

		attrs := logger.LogGRPCRequest(ctx, info.FullMethod, md, req, "incoming::request")
		if p, ok := peer.FromContext(ctx); ok {
			attrs = append(attrs, slog.String("grpc.remote", p.Addr.String()))
		}
		logger.Info(ctx, "GrpcMiddleware", attrs...)

		start := time.Now()
		resp, err = handler(ctx, req)

		code := status.Code(err)
		if code != codes.OK {
			span.SetStatus(otelcodes.Error, code.String())
		}
		logger.Info(ctx, "GrpcMiddleware",
			logger.LogGRPCResponse(ctx, info.FullMethod, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}

// UnaryRecoveryInterceptor answers a handler panic with codes.Internal.
func UnaryRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(ctx, "Handler panic",
					slog.String("grpc.method", info.FullMethod),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
