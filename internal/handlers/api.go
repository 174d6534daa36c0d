package handlers

import (
	"net/http"

	"github.com/diewo77/estate-listings/httpx"
	"github.com/diewo77/estate-listings/internal/services"
)

// APIHandler exposes the read-only JSON surface.
type APIHandler struct {
	Properties *services.PropertyService
}

func NewAPIHandler(props *services.PropertyService) *APIHandler {
	return &APIHandler{Properties: props}
}

func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/properties", h.list)
}

// list returns every published listing with its lookup relations.
func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) {
	props, err := h.Properties.Latest(0, 0)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_properties", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, props)
}
