package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"muebles-catalog/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler_Check(t *testing.T) {
	up := service.PingFunc(func(context.Context) error { return nil })
	down := service.PingFunc(func(context.Context) error { return errors.New("no reachable servers") })

	tests := []struct {
		name  string
		mongo service.Pinger
		code  int
		body  string
	}{
		{"up", up, http.StatusOK, `{"status":"UP","mongo":"UP","redis":"SKIPPED"}`},
		{"mongo down", down, http.StatusServiceUnavailable, `{"status":"DOWN","mongo":"DOWN","redis":"SKIPPED"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(service.NewHealthService(tc.mongo, nil))
			rec := httptest.NewRecorder()
			h.Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tc.code, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestUserHandler_ListWithoutStore(t *testing.T) {
	h := NewUserHandler(service.NewUserService(nil))
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/users?rol=admin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
