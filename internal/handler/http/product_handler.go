package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"
	"muebles-catalog/internal/service"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
)

const (
	maxJSONBody     = 1 << 20
	multipartMemory = 8 << 20
)

type ProductHandler struct {
	service       *service.ProductService
	maxUploadSize int64
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service *service.ProductService, maxUploadSize int64) *ProductHandler {
	return &ProductHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

func filterFromQuery(r *http.Request) model.ProductFilter {
	q := r.URL.Query()
	return model.ProductFilter{
		Tipo:      strings.TrimSpace(q.Get("tipo")),
		Nombre:    strings.TrimSpace(q.Get("nombre")),
		Categoria: strings.TrimSpace(q.Get("categoria")),
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (model.ProductInput, bool) {
	var in model.ProductInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "payload_too_large", "El cuerpo de la petición es demasiado grande")
			return in, false
		}
		writeErrorResponse(w, http.StatusBadRequest, "invalid_json", "JSON inválido: "+err.Error())
		return in, false
	}
	return in, true
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	products, err := h.service.List(ctx, filterFromQuery(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Get")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	product, err := h.service.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(ctx, in)
	if err != nil {
		var dup *service.DuplicateError
		if errors.As(err, &dup) {
			logger.Warn(ctx, "Duplicate product rejected", slog.String("nombre", dup.Nombre))
		}
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	if err := h.service.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Producto eliminado"})
}

// AttachAsset expects a multipart form with a "file" part and ?kind=imagen|objeto3D.
func (h *ProductHandler) AttachAsset(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.AttachAsset")
	defer span.End()
	logger.Info(ctx, "HttpProductHandler")

	kind, err := service.ParseAssetKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+maxJSONBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "payload_too_large", "El archivo supera el tamaño máximo")
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, "invalid_form", "Se esperaba un formulario multipart")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "validation_error", "Falta el archivo",
			service.FieldError{Field: "file", Message: "es obligatorio"})
		return
	}
	defer file.Close()

	updated, err := h.service.AttachAsset(ctx, mux.Vars(r)["id"], kind, service.AssetUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
