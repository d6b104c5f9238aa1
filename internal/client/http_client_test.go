package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"muebles-catalog/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsSendsTipo(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/productos", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Trace-ID"))
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]model.Product{{Nombre: "Silla", Tipo: "interior"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second)
	products, err := c.ListProducts(context.Background(), "interior")
	require.NoError(t, err)
	assert.Equal(t, "tipo=interior", gotQuery)
	require.Len(t, products, 1)
	assert.Equal(t, "Silla", products[0].Nombre)
}

func TestCreateProductDuplicateIsClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in model.ProductInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  409,
			"error":   "duplicate_name",
			"message": "ya existe un producto con el nombre \"" + in.Nombre + "\"",
			"errors":  []map[string]string{{"field": "nombre", "message": "duplicado"}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	resp, err := c.CreateProduct(context.Background(), model.ProductInput{Nombre: "Silla"})
	require.NoError(t, err)
	assert.True(t, resp.IsClientError())
	assert.Empty(t, resp.Data.Nombre)

	apiErr := resp.APIError()
	require.NotNil(t, apiErr)
	assert.Equal(t, "duplicate_name", apiErr.Code)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "nombre", apiErr.Errors[0].Field)
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	resp := &Response[any]{StatusCode: http.StatusBadGateway, RawBody: []byte("upstream down\n")}
	apiErr := resp.APIError()
	require.NotNil(t, apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.True(t, resp.IsServerError())
}

func TestDeleteProductReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"error":"not_found","message":"producto no encontrado"}`))
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, time.Second).DeleteProduct(context.Background(), "abc")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
