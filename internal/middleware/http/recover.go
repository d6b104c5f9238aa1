package middleware_http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"muebles-catalog/internal/logger"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recover turns a handler panic into a 500 JSON response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*ResponseWriter)
		if !ok {
			rw = NewResponseWriter(w)
		}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ctx := r.Context()
			err := errFromRecover(rec)
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic occurred")
			logger.Error(ctx, "Handler panic", logger.Err(err), slog.String("stack", string(debug.Stack())))

			if rw.WroteHeader() {
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusInternalServerError)
			_, _ = rw.Write([]byte(`{"status":500,"error":"internal_error","message":"Error interno del servidor"}`))
		}()
		next.ServeHTTP(rw, r)
	})
}

func errFromRecover(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}
