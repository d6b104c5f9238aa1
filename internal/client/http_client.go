package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient talks to the catalog REST API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// Response is a decoded reply. Data is only set on 2xx.
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

// APIError is the JSON error body the catalog API returns on 4xx and 5xx.
type APIError struct {
	Status  int             `json:"status"`
	Code    string          `json:"error"`
	Message string          `json:"message"`
	Errors  []APIFieldError `json:"errors,omitempty"`
}

type APIFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response[T]) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response[T]) IsServerError() bool {
	return r.StatusCode >= 500
}

// APIError decodes the error body, or returns nil on success.
func (r *Response[T]) APIError() *APIError {
	if r.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: r.StatusCode}
	if err := json.Unmarshal(r.RawBody, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(r.StatusCode)
		apiErr.Message = strings.TrimSpace(string(r.RawBody))
	}
	return apiErr
}

// Do sends one request and decodes a 2xx body into Response.Data. Non-2xx
// replies are not errors here; callers inspect StatusCode or APIError.
func Do[T any](ctx context.Context, c *HTTPClient, method, path string, query url.Values, body any) (*Response[T], error) {
	ctx, span := HttpClientTracer.Start(ctx, "HttpClient."+method)
	defer span.End()

	fullURL := c.buildURL(path, query)

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	traceID := span.SpanContext().TraceID().String()
	req.Header.Set("X-Trace-ID", traceID)
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", fullURL),
	)

	logger.Info(ctx, "HttpClient request",
		slog.String("method", method),
		slog.String("url", fullURL),
		slog.String("trace_id", traceID),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "HttpClient request failed", logger.Err(err))
		return nil, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    raw,
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info(ctx, "HttpClient response",
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if out.IsSuccess() && len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Data); err != nil {
			return out, fmt.Errorf("decode response: %w", err)
		}
	}
	return out, nil
}

func (c *HTTPClient) buildURL(path string, query url.Values) string {
	full := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// ListProducts calls GET /api/productos, filtered by tipo when set.
func (c *HTTPClient) ListProducts(ctx context.Context, tipo string) ([]model.Product, error) {
	q := url.Values{}
	if tipo != "" {
		q.Set("tipo", tipo)
	}
	resp, err := Do[[]model.Product](ctx, c, http.MethodGet, "/api/productos", q, nil)
	if err != nil {
		return nil, err
	}
	if apiErr := resp.APIError(); apiErr != nil {
		return nil, apiErr
	}
	return resp.Data, nil
}

// CreateProduct calls POST /api/productos. The full response is returned so
// callers can tell a rejected duplicate from a transport failure.
func (c *HTTPClient) CreateProduct(ctx context.Context, in model.ProductInput) (*Response[model.Product], error) {
	return Do[model.Product](ctx, c, http.MethodPost, "/api/productos", nil, in)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id string) error {
	resp, err := Do[map[string]any](ctx, c, http.MethodDelete, "/api/productos/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	if apiErr := resp.APIError(); apiErr != nil {
		return apiErr
	}
	return nil
}
