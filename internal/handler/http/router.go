package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Product *ProductHandler
	User    *UserHandler
	Health  *HealthHandler
}

func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "not_found", "Ruta no encontrada")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método no permitido")
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/productos", h.Product.List).Methods(http.MethodGet)
	api.HandleFunc("/productos", h.Product.Create).Methods(http.MethodPost)
	api.HandleFunc("/productos/{id}", h.Product.Get).Methods(http.MethodGet)
	api.HandleFunc("/productos/{id}", h.Product.Update).Methods(http.MethodPut)
	api.HandleFunc("/productos/{id}", h.Product.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/productos/{id}/assets", h.Product.AttachAsset).Methods(http.MethodPost)
	api.HandleFunc("/users", h.User.List).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.Health.Check).Methods(http.MethodGet)
	return r
}
