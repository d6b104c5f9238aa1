package service

import (
	"context"
	"time"

	"muebles-catalog/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp      = "UP"
	StatusDown    = "DOWN"
	StatusSkipped = "SKIPPED"

	pingTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthService struct {
	mongo Pinger
	redis Pinger
}

type HealthStatus struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo"`
	Redis  string `json:"redis"`
}

func (h HealthStatus) Healthy() bool {
	return h.Status == StatusUp
}

var HealthServiceTracer = otel.Tracer("HealthService")

// NewHealthService takes nil for a dependency that is not in use.
func NewHealthService(mongo, redis Pinger) *HealthService {
	return &HealthService{mongo: mongo, redis: redis}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Info(ctx, "Service")

	status := HealthStatus{
		Mongo: ping(ctx, s.mongo),
		Redis: ping(ctx, s.redis),
	}
	// Redis only backs the cache, so losing it does not fail the check.
	status.Status = StatusUp
	if status.Mongo == StatusDown {
		status.Status = StatusDown
	}
	return status
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return StatusSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		logger.Warn(ctx, "Health check failed", logger.Err(err))
		return StatusDown
	}
	return StatusUp
}
