package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthService_Check(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errBoom })

	tests := []struct {
		name  string
		mongo Pinger
		redis Pinger
		want  HealthStatus
	}{
		{"all up", up, up, HealthStatus{Status: StatusUp, Mongo: StatusUp, Redis: StatusUp}},
		{"no redis", up, nil, HealthStatus{Status: StatusUp, Mongo: StatusUp, Redis: StatusSkipped}},
		{"mongo down", down, up, HealthStatus{Status: StatusDown, Mongo: StatusDown, Redis: StatusUp}},
		{"redis down", up, down, HealthStatus{Status: StatusUp, Mongo: StatusUp, Redis: StatusDown}},
		{"memory store", nil, nil, HealthStatus{Status: StatusUp, Mongo: StatusSkipped, Redis: StatusSkipped}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewHealthService(tc.mongo, tc.redis).Check(context.Background())
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Status == StatusUp, got.Healthy())
		})
	}
}
