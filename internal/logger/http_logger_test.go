package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestCaptureBodyKeepsFullBody(t *testing.T) {
	payload := strings.Repeat("a", MaxBodyLogged+10)
	r := httptest.NewRequest(http.MethodPost, "/api/productos", strings.NewReader(payload))

	captured, err := CaptureBody(r)
	require.NoError(t, err)
	assert.Len(t, captured, MaxBodyLogged)

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(rest))
}

func TestHeaderAttrsFiltersAndRedacts(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Authorization", "Bearer abc")
	hdr.Set("X-Internal", "skip")

	m := attrMap(HeaderAttrs(hdr))
	assert.Equal(t, "application/json", m["http.header.content-type"])
	assert.Equal(t, "***", m["http.header.authorization"])
	assert.NotContains(t, m, "http.header.x-internal")
}

func TestDecodeBodyJSONRedactsCredentials(t *testing.T) {
	attrs, err := DecodeBody("application/json; charset=utf-8",
		[]byte(`{"nombre":"silla","password":"hunter2","tags":["a","b","c"]}`))
	require.NoError(t, err)

	m := attrMap(attrs)
	assert.Equal(t, "silla", m["http.body.nombre"])
	assert.Equal(t, "***", m["http.body.password"])
	assert.Equal(t, "a", m["http.body.tags.0"])
	assert.Equal(t, "c", m["http.body.tags.2"])
	assert.NotContains(t, m, "http.body.tags.1")
}

func TestDecodeBodyMultipartOnlyLogsSize(t *testing.T) {
	attrs, err := DecodeBody("multipart/form-data; boundary=x", []byte("0123456789"))
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, int64(10), attrs[0].Value.Int64())
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))

	m := attrMap(enrich(ctx))
	assert.Equal(t, "req-1", m["request_id"])
}
