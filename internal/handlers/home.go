package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/services"

	"gorm.io/gorm"
)

// HomeHandler serves the public browse pages.
type HomeHandler struct {
	DB         *gorm.DB
	Properties *services.PropertyService
}

func NewHomeHandler(db *gorm.DB, props *services.PropertyService) *HomeHandler {
	return &HomeHandler{DB: db, Properties: props}
}

func (h *HomeHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /category/{id}", h.category)
	mux.HandleFunc("GET /search", h.search)
	mux.HandleFunc("GET /404", h.notFound)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	var cats []models.Category
	_ = h.DB.Order("name asc").Find(&cats).Error
	latest, err := h.Properties.Latest(0, 6)
	if err != nil {
		h.fail(w, err)
		return
	}
	renderTemplate(w, r, "index", map[string]any{
		"Page":       "Houses and Apartments",
		"Categories": cats,
		"Properties": latest,
	})
}

func (h *HomeHandler) category(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/404", statusSeeOther)
		return
	}
	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		http.Redirect(w, r, "/404", statusSeeOther)
		return
	}
	props, err := h.Properties.Latest(cat.ID, 0)
	if err != nil {
		h.fail(w, err)
		return
	}
	renderTemplate(w, r, "category", map[string]any{
		"Page":       cat.Name + "s for Sale",
		"Category":   cat,
		"Properties": props,
	})
}

func (h *HomeHandler) search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		http.Redirect(w, r, "/", statusSeeOther)
		return
	}
	props, err := h.Properties.Search(term)
	if err != nil {
		h.fail(w, err)
		return
	}
	renderTemplate(w, r, "search", map[string]any{
		"Page":       "Search Results: " + term,
		"Term":       term,
		"Properties": props,
	})
}

func (h *HomeHandler) notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	renderTemplate(w, r, "404", map[string]any{"Page": "Not Found"})
}

func (h *HomeHandler) fail(w http.ResponseWriter, err error) {
	log.Printf("home handler: %v", err)
	w.WriteHeader(http.StatusInternalServerError)
	if _, werr := w.Write([]byte("internal error")); werr != nil {
		_ = werr
	}
}
