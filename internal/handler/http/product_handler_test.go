package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"muebles-catalog/internal/model"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubAssets struct{}

func (stubAssets) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "https://assets.test/" + objectName, err
}

func (stubAssets) Delete(context.Context, string) error { return nil }

func newTestRouter(t *testing.T, opts ...service.Option) (*mux.Router, *repository.MemoryProductRepository) {
	t.Helper()
	repo := repository.NewMemoryProductRepository()
	products := service.NewProductService(repo, opts...)
	return NewRouter(Handlers{
		Product: NewProductHandler(products, 1<<20),
		User:    NewUserHandler(service.NewUserService(nil)),
		Health:  NewHealthHandler(service.NewHealthService(nil, nil)),
	}), repo
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProductHandler_CreateThenDuplicate(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/productos",
		`{"nombre":"silla","color":"rojo","categoria":"sillas","codigo":"S-1","tipo":"Producto Terminado"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decode[model.Product](t, rec)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "silla", created.Nombre)

	rec = do(t, router, http.MethodPost, "/api/productos",
		`{"nombre":"silla","color":"azul","categoria":"mesas","codigo":"S-9","tipo":"Materia Prima"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, http.StatusConflict, body.Status)
	assert.Equal(t, "duplicate_name", body.Error)
	assert.Contains(t, body.Message, "silla")
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "nombre", body.Errors[0].Field)

	n, err := repo.Count(context.Background(), model.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProductHandler_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/productos", `{"nombre":"  ","color":"rojo"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
	var fields []string
	for _, f := range body.Errors {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"nombre", "categoria", "codigo", "tipo"}, fields)
}

func TestProductHandler_CreateBadJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/productos", `{"nombre":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decode[ErrorResponse](t, rec).Error)
}

func TestProductHandler_ListFiltersByTipo(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, p := range []string{
		`{"nombre":"silla","categoria":"sillas","codigo":"S-1","tipo":"Producto Terminado"}`,
		`{"nombre":"tabla de pino","categoria":"maderas","codigo":"M-1","tipo":"Materia Prima"}`,
		`{"nombre":"mesa","categoria":"mesas","codigo":"T-1","tipo":"Producto Terminado"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/productos", p).Code)
	}

	rec := do(t, router, http.MethodGet, "/api/productos?tipo=Producto+Terminado", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]model.Product](t, rec)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "Producto Terminado", p.Tipo)
	}

	rec = do(t, router, http.MethodGet, "/api/productos?tipo=Insumo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/productos", "")
	assert.Len(t, decode[[]model.Product](t, rec), 3)
}

func TestProductHandler_GetUpdateDelete(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/productos",
		`{"nombre":"silla","categoria":"sillas","codigo":"S-1","tipo":"Producto Terminado"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.Product](t, rec).ID.Hex()

	rec = do(t, router, http.MethodGet, "/api/productos/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "silla", decode[model.Product](t, rec).Nombre)

	rec = do(t, router, http.MethodPut, "/api/productos/"+id,
		`{"nombre":"silla","color":"negro","categoria":"sillas","codigo":"S-1","tipo":"Producto Terminado","precioVenta":1500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Product](t, rec)
	assert.Equal(t, "negro", updated.Color)
	assert.Equal(t, 1500.0, updated.PrecioVenta)

	rec = do(t, router, http.MethodDelete, "/api/productos/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Producto eliminado"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/productos/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Error)

	rec = do(t, router, http.MethodGet, "/api/productos/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPatch, "/api/productos", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decode[ErrorResponse](t, rec).Error)
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestProductHandler_AttachAsset(t *testing.T) {
	router, _ := newTestRouter(t, service.WithAssetStore(stubAssets{}))

	rec := do(t, router, http.MethodPost, "/api/productos",
		`{"nombre":"silla","categoria":"sillas","codigo":"S-1","tipo":"Producto Terminado"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.Product](t, rec).ID.Hex()

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	body, ct := multipartBody(t, "silla.png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/productos/"+id+"/assets?kind=imagen", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[model.Product](t, rec)
	assert.True(t, strings.HasPrefix(got.Imagen, "https://assets.test/productos/silla/imagen/"), got.Imagen)
}

func TestProductHandler_AttachAssetErrors(t *testing.T) {
	t.Run("store disabled", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body, ct := multipartBody(t, "a.png", []byte("\x89PNG\r\n\x1a\n"))
		req := httptest.NewRequest(http.MethodPost, "/api/productos/"+primitive.NewObjectID().Hex()+"/assets?kind=imagen", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("bad kind", func(t *testing.T) {
		router, _ := newTestRouter(t, service.WithAssetStore(stubAssets{}))
		rec := do(t, router, http.MethodPost, "/api/productos/"+primitive.NewObjectID().Hex()+"/assets?kind=video", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		router, _ := newTestRouter(t, service.WithAssetStore(stubAssets{}))
		rec := do(t, router, http.MethodPost, "/api/productos/"+primitive.NewObjectID().Hex()+"/assets?kind=imagen", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_form", decode[ErrorResponse](t, rec).Error)
	})
}

type unavailableRepo struct {
	*repository.MemoryProductRepository
}

func (unavailableRepo) FindAll(context.Context, model.ProductFilter) ([]model.Product, error) {
	return nil, repository.ErrUnavailable
}

func TestProductHandler_StoreFailureIsNotACrash(t *testing.T) {
	products := service.NewProductService(unavailableRepo{repository.NewMemoryProductRepository()})
	router := NewRouter(Handlers{
		Product: NewProductHandler(products, 1<<20),
		User:    NewUserHandler(service.NewUserService(nil)),
		Health:  NewHealthHandler(service.NewHealthService(nil, nil)),
	})

	rec := do(t, router, http.MethodGet, "/api/productos", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store_unavailable", decode[ErrorResponse](t, rec).Error)
}
