package service

import (
	"context"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"

	"go.opentelemetry.io/otel"
)

type UserRepository interface {
	FindAll(ctx context.Context, rol string) ([]model.User, error)
}

type UserService struct {
	repo UserRepository
}

var UserServiceTracer = otel.Tracer("UserService")

// NewUserService accepts a nil repo for stores without a users collection;
// List then returns no users.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, rol string) ([]model.User, error) {
	ctx, span := UserServiceTracer.Start(ctx, "UserService.List")
	defer span.End()
	logger.Info(ctx, "Service")

	if s.repo == nil {
		return []model.User{}, nil
	}
	return s.repo.FindAll(ctx, rol)
}
