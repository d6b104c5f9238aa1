package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"muebles-catalog/internal/app"
	"muebles-catalog/internal/config"
	handler "muebles-catalog/internal/handler/http"
	"muebles-catalog/internal/logger"
	middleware_http "muebles-catalog/internal/middleware/http"
	"muebles-catalog/internal/telemetry"
	"muebles-catalog/internal/version"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Instance()
	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	// Initialize telemetry (OpenTelemetry + Pyroscope)
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

	// Wiring
	router := handler.NewRouter(handler.Handlers{
		Product: handler.NewProductHandler(a.Products, app.MaxUploadBytes(cfg)),
		User:    handler.NewUserHandler(a.Users),
		Health:  handler.NewHealthHandler(a.Health),
	})

	var h http.Handler = router
	h = middleware_http.CORS(cfg.AllowedOrigins)(h)
	h = middleware_http.Recover(h)
	h = middleware_http.Trace(h)
	h = middleware_http.RequestID(h)

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-globalCtx.Done():
		logger.Info(globalCtx, "Received shutdown signal")
	case err := <-serveErr:
		logger.Error(globalCtx, "Server failed", logger.Err(err))
		exitCode = 1
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP shutdown failed", logger.Err(err))
	}
	a.Close(shutdownCtx)
	logger.Info(shutdownCtx, "HTTP server exited")

	if exitCode != 0 {
		stop()
		shutdown()
		os.Exit(exitCode)
	}
}
