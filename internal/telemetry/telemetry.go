package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"muebles-catalog/internal/config"
	"muebles-catalog/internal/logger"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}()

func newExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	switch {
	case cfg.RemoteTraceRpcURI != "":
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
	case cfg.OtelStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	return nil, nil
}

// Init installs the tracer provider, the propagators and, when configured,
// the Pyroscope profiler. The returned func flushes and stops all of them
// and is never nil.
func Init(ctx context.Context, cfg *config.Config) (func(), error) {
	log := logger.Instance()

	// Propagation is installed even without an exporter so trace ids still
	// flow through logs and outgoing calls.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return func() {}, errors.Join(errors.New("create trace exporter"), err)
	}

	env := cfg.Env
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			attribute.String("env", env),
		),
	)
	if err != nil {
		return func() {}, errors.Join(errors.New("create resource"), err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	log.Info("OpenTelemetry Tracer initialized", slog.Bool("exporting", exp != nil))

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"env": env},
		})
		if err != nil {
			log.Error("Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			log.Info("Pyroscope started successfully")
		}
	}

	return func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("Error shutting down tracer provider", slog.String("error", err.Error()))
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", slog.String("error", err.Error()))
			}
		}
	}, nil
}
