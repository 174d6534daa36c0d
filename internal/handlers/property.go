package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/diewo77/estate-listings/auth"
	"github.com/diewo77/estate-listings/httpx"
	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/services"
	"github.com/diewo77/estate-listings/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var pageExpr = regexp.MustCompile(`^[1-9][0-9]*$`)

const maxImageSize = 5 << 20 // 5MB, mirrors the upload widget's client-side cap

type PropertyHandler struct {
	DB         *gorm.DB
	Properties *services.PropertyService
	Messages   *services.MessageService
}

func NewPropertyHandler(db *gorm.DB, props *services.PropertyService, msgs *services.MessageService) *PropertyHandler {
	return &PropertyHandler{DB: db, Properties: props, Messages: msgs}
}

// Register mounts the owner routes; public routes (detail page) are mounted
// separately by the router so they skip RequireAuth.
func (h *PropertyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /my-properties", h.index)
	mux.HandleFunc("GET /properties/new", h.newForm)
	mux.HandleFunc("POST /properties/new", h.create)
	mux.HandleFunc("GET /properties/add-image/{id}", h.addImageForm)
	mux.HandleFunc("POST /properties/add-image/{id}", h.storeImage)
	mux.HandleFunc("GET /properties/edit/{id}", h.editForm)
	mux.HandleFunc("POST /properties/edit/{id}", h.update)
	mux.HandleFunc("POST /properties/delete/{id}", h.delete)
	mux.HandleFunc("POST /properties/toggle/{id}", h.togglePublished)
	mux.HandleFunc("GET /properties/messages/{id}", h.inbox)
	mux.HandleFunc("POST /properties/message/{id}", h.postMessage)
}

// caller returns the authenticated user id; the auth middleware guarantees it
// on owner routes.
func caller(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// fail translates service errors. Every business-rule failure becomes the
// same silent redirect to the owner's index, so a refused operation does not
// reveal whether the listing exists.
func (h *PropertyHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrAlreadyPublished),
		errors.Is(err, services.ErrNoImage):
		http.Redirect(w, r, "/my-properties", statusSeeOther)
	default:
		log.Printf("property handler: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("internal error")); werr != nil {
			_ = werr
		}
	}
}

// lookups loads the category and price-range reference rows for the forms.
func (h *PropertyHandler) lookups() ([]models.Category, []models.PriceRange) {
	var cats []models.Category
	var prices []models.PriceRange
	_ = h.DB.Order("name asc").Find(&cats).Error
	_ = h.DB.Order("id asc").Find(&prices).Error
	return cats, prices
}

func (h *PropertyHandler) index(w http.ResponseWriter, r *http.Request) {
	pageParam := r.URL.Query().Get("page")
	if !pageExpr.MatchString(pageParam) {
		http.Redirect(w, r, "/my-properties?page=1", statusSeeOther)
		return
	}
	page, _ := strconv.Atoi(pageParam)
	props, total, err := h.Properties.Owned(caller(r), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pages := int((total + services.OwnedPageSize - 1) / services.OwnedPageSize)
	renderTemplate(w, r, "properties/index", map[string]any{
		"Page":        "My Properties",
		"Properties":  props,
		"Total":       total,
		"Pages":       pages,
		"CurrentPage": page,
	})
}

func (h *PropertyHandler) newForm(w http.ResponseWriter, r *http.Request) {
	cats, prices := h.lookups()
	renderTemplate(w, r, "properties/new", map[string]any{
		"Page":        "New Property",
		"Categories":  cats,
		"PriceRanges": prices,
		"Values":      services.PropertyInput{},
	})
}

// parsePropertyForm reads the shared listing form into typed fields,
// collecting violations as it goes.
func parsePropertyForm(r *http.Request, v validation.Violations) services.PropertyInput {
	in := services.PropertyInput{}
	in.Title = strings.TrimSpace(r.FormValue("title"))
	in.Description = strings.TrimSpace(r.FormValue("description"))
	validation.Required("title", in.Title, v)
	validation.MinLen("description", in.Description, 10, v)
	in.Bedrooms, _ = strconv.Atoi(r.FormValue("bedrooms"))
	in.Parking, _ = strconv.Atoi(r.FormValue("parking"))
	in.Bathrooms, _ = strconv.Atoi(r.FormValue("bathrooms"))
	validation.RangeInt("bedrooms", in.Bedrooms, 1, 9, v)
	validation.RangeInt("parking", in.Parking, 0, 9, v)
	validation.RangeInt("bathrooms", in.Bathrooms, 1, 9, v)
	in.Street = strings.TrimSpace(r.FormValue("street"))
	validation.Required("street", in.Street, v)
	in.Lat, _ = strconv.ParseFloat(r.FormValue("lat"), 64)
	in.Lng, _ = strconv.ParseFloat(r.FormValue("lng"), 64)
	if in.Lat == 0 || in.Lng == 0 {
		v["location"] = "locate the property on the map"
	} else {
		validation.RangeFloat("lat", in.Lat, -90, 90, v)
		validation.RangeFloat("lng", in.Lng, -180, 180, v)
	}
	in.PriceRangeID = validation.PositiveID("price_range_id", r.FormValue("price_range_id"), v)
	in.CategoryID = validation.PositiveID("category_id", r.FormValue("category_id"), v)
	return in
}

func (h *PropertyHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	v := validation.Violations{}
	in := parsePropertyForm(r, v)
	if !v.Empty() {
		cats, prices := h.lookups()
		w.WriteHeader(http.StatusBadRequest)
		renderTemplate(w, r, "properties/new", map[string]any{
			"Page":        "New Property",
			"Categories":  cats,
			"PriceRanges": prices,
			"Errors":      v,
			"Values":      in,
		})
		return
	}
	p, err := h.Properties.Create(caller(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/properties/add-image/"+strconv.FormatUint(uint64(p.ID), 10), statusSeeOther)
}

func (h *PropertyHandler) addImageForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	p, err := h.Properties.Draft(id, caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderTemplate(w, r, "properties/add-image", map[string]any{
		"Page":     "Add an Image: " + p.Title,
		"Property": p,
	})
}

func (h *PropertyHandler) storeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	// Revalidate the draft before touching the filesystem.
	p, err := h.Properties.Draft(id, caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxImageSize); err != nil {
			h.renderUploadError(w, r, p, "could not read the upload")
			return
		}
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		h.renderUploadError(w, r, p, "select an image to upload")
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		h.renderUploadError(w, r, p, "only .png, .jpg and .jpeg files are accepted")
		return
	}
	if header.Size > maxImageSize {
		h.renderUploadError(w, r, p, "the image exceeds the 5MB limit")
		return
	}
	name := uuid.NewString() + ext
	if err := saveUpload(file, filepath.Join(h.Properties.UploadDir, name)); err != nil {
		log.Printf("store image for property %d: %v", p.ID, err)
		h.renderUploadError(w, r, p, "could not store the image")
		return
	}
	if _, err := h.Properties.AttachImage(id, caller(r), name); err != nil {
		// Guard raced with another request; drop the freshly written file.
		_ = os.Remove(filepath.Join(h.Properties.UploadDir, name))
		h.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"result": true, "image": name})
		return
	}
	http.Redirect(w, r, "/my-properties", statusSeeOther)
}

func (h *PropertyHandler) renderUploadError(w http.ResponseWriter, r *http.Request, p *models.Property, msg string) {
	if wantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_upload", msg)
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	renderTemplate(w, r, "properties/add-image", map[string]any{
		"Page":     "Add an Image: " + p.Title,
		"Property": p,
		"Error":    msg,
	})
}

func saveUpload(src io.Reader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func (h *PropertyHandler) editForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	p, err := h.Properties.Owner(id, caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cats, prices := h.lookups()
	renderTemplate(w, r, "properties/edit", map[string]any{
		"Page":        "Edit: " + p.Title,
		"Categories":  cats,
		"PriceRanges": prices,
		"Property":    p,
		"Values": services.PropertyInput{
			Title: p.Title, Description: p.Description,
			Bedrooms: p.Bedrooms, Parking: p.Parking, Bathrooms: p.Bathrooms,
			Street: p.Street, Lat: p.Lat, Lng: p.Lng,
			PriceRangeID: p.PriceRangeID, CategoryID: p.CategoryID,
		},
	})
}

func (h *PropertyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	v := validation.Violations{}
	in := parsePropertyForm(r, v)
	if !v.Empty() {
		cats, prices := h.lookups()
		w.WriteHeader(http.StatusBadRequest)
		renderTemplate(w, r, "properties/edit", map[string]any{
			"Page":        "Edit Property",
			"Categories":  cats,
			"PriceRanges": prices,
			"Errors":      v,
			"Values":      in,
		})
		return
	}
	if _, err := h.Properties.Update(id, caller(r), in); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/my-properties", statusSeeOther)
}

func (h *PropertyHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	if err := h.Properties.Delete(id, caller(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/my-properties", statusSeeOther)
}

func (h *PropertyHandler) togglePublished(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	var p models.Property
	if err := h.DB.Select("published").First(&p, id).Error; err != nil {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	if _, err := h.Properties.SetPublished(id, caller(r), !p.Published); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"result": true})
}

// Show is the public detail page. Mounted outside RequireAuth so anyone can
// browse published listings.
func (h *PropertyHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/404", statusSeeOther)
		return
	}
	p, err := h.Properties.Published(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Redirect(w, r, "/404", statusSeeOther)
			return
		}
		h.fail(w, r, err)
		return
	}
	uid, loggedIn := auth.UserIDFromContext(r.Context())
	isOwner := loggedIn && uid == p.UserID
	renderTemplate(w, r, "properties/show", map[string]any{
		"Page":     p.Title,
		"Property": p,
		"IsOwner":  isOwner,
		// only signed-in non-owners get the inquiry form
		"CanMessage": loggedIn && !isOwner,
	})
}

func (h *PropertyHandler) postMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/404", statusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	body := strings.TrimSpace(r.FormValue("message"))
	v := validation.Violations{}
	validation.MinLen("message", body, 10, v)
	if !v.Empty() {
		p, err := h.Properties.Published(id)
		if err != nil {
			http.Redirect(w, r, "/404", statusSeeOther)
			return
		}
		uid, loggedIn := auth.UserIDFromContext(r.Context())
		isOwner := loggedIn && uid == p.UserID
		w.WriteHeader(http.StatusBadRequest)
		renderTemplate(w, r, "properties/show", map[string]any{
			"Page":       p.Title,
			"Property":   p,
			"IsOwner":    isOwner,
			"CanMessage": loggedIn && !isOwner,
			"Errors":     v,
		})
		return
	}
	if err := h.Messages.Post(id, caller(r), body); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Redirect(w, r, "/404", statusSeeOther)
			return
		}
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", statusSeeOther)
}

func (h *PropertyHandler) inbox(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/my-properties", statusSeeOther)
		return
	}
	msgs, err := h.Messages.ForProperty(id, caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderTemplate(w, r, "properties/messages", map[string]any{
		"Page":     "Messages",
		"Messages": msgs,
	})
}
