package http

import (
	"net/http"
	"strings"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/service"

	"go.opentelemetry.io/otel"
)

type UserHandler struct {
	service *service.UserService
}

var HttpUserHandlerTracer = otel.Tracer("HttpUserHandler")

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpUserHandlerTracer.Start(r.Context(), "HttpUserHandler.List")
	defer span.End()
	logger.Info(ctx, "HttpUserHandler")

	users, err := h.service.List(ctx, strings.TrimSpace(r.URL.Query().Get("rol")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
