package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/service"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Status  int                  `json:"status"`
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"status":500,"error":"internal_error","message":"Error al generar la respuesta"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeErrorResponse(w http.ResponseWriter, code int, kind, message string, fields ...service.FieldError) {
	writeJSON(w, code, ErrorResponse{
		Status:  code,
		Error:   kind,
		Message: message,
		Errors:  fields,
	})
}

// writeError maps service and repository errors onto HTTP responses.
// Anything unrecognised is logged and answered with a generic 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		verr *service.ValidationError
		dup  *service.DuplicateError
		nf   *service.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorResponse(w, http.StatusBadRequest, "validation_error", "Datos de producto inválidos", verr.Fields...)
	case errors.As(err, &dup):
		writeErrorResponse(w, http.StatusConflict, "duplicate_name", dup.Error(),
			service.FieldError{Field: "nombre", Message: "ya existe un producto con este nombre"})
	case errors.As(err, &nf):
		writeErrorResponse(w, http.StatusNotFound, "not_found", nf.Error())
	case errors.Is(err, service.ErrAssetStoreDisabled):
		writeErrorResponse(w, http.StatusServiceUnavailable, "asset_store_disabled", "El almacenamiento de archivos no está configurado")
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Error(ctx, "Store unavailable", logger.Err(err))
		writeErrorResponse(w, http.StatusServiceUnavailable, "store_unavailable", "La base de datos no está disponible")
	default:
		logger.Error(ctx, "Request failed", logger.Err(err))
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Error interno del servidor")
	}
}
