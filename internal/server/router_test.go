package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/diewo77/estate-listings/internal/config"
	"github.com/diewo77/estate-listings/internal/db"
	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.Seed(conn)
	cfg := config.Config{Port: "0", Env: "test", BaseURL: "http://localhost", UploadDir: t.TempDir()}
	return New(conn, cfg), conn
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if payload["status"] != "ok" {
			t.Fatalf("%s: unexpected payload %v", path, payload)
		}
	}
}

func TestOwnerRoutesNeedLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	paths := []string{"/my-properties", "/properties/new", "/properties/edit/1", "/properties/messages/1"}
	for _, path := range paths {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/auth/login" {
			t.Fatalf("%s: expected redirect to login, got %d %q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestPostsRequireCSRFToken(t *testing.T) {
	h, _ := newTestHandler(t)
	form := url.Values{"email": {"ana@test.dev"}, "password": {"secret1"}}
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", w.Code)
	}
}

// csrfPost builds a POST carrying a freshly minted token in both cookie and field.
func csrfPost(t *testing.T, h http.Handler, target string, form url.Values) *http.Request {
	t.Helper()
	get := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	got := httptest.NewRecorder()
	h.ServeHTTP(got, get)
	var token string
	var cookie *http.Cookie
	for _, c := range got.Result().Cookies() {
		if c.Name == "csrf_token" {
			token = c.Value
			cookie = c
		}
	}
	if token == "" {
		t.Fatal("no csrf cookie minted on GET")
	}
	form.Set("_csrf", token)
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookie)
	return r
}

func TestLoginThroughFullStack(t *testing.T) {
	h, conn := newTestHandler(t)
	identity := services.NewIdentityService(conn, noopMailer{})
	u, err := identity.Register(services.RegisterInput{Name: "Ana", Email: "ana@test.dev", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	conn.Model(&models.User{}).Where("id = ?", u.ID).Update("confirmed", true)

	r := csrfPost(t, h, "/auth/login", url.Values{"email": {"ana@test.dev"}, "password": {"secret1"}})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/my-properties" {
		t.Fatalf("login: expected 303 to /my-properties, got %d %q body=%s", w.Code, w.Header().Get("Location"), w.Body.String())
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie after login")
	}

	// The session now opens the owner index.
	r2 := httptest.NewRequest(http.MethodGet, "/my-properties?page=1", nil)
	r2.AddCookie(session)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusOK {
		t.Fatalf("owner index: expected 200 got %d body=%s", w2.Code, w2.Body.String())
	}
}

func TestInquiryPostNeedsLogin(t *testing.T) {
	h, conn := newTestHandler(t)
	p := seedPublishedListing(t, conn)

	r := csrfPost(t, h, "/properties/message/"+strconv.FormatUint(uint64(p.ID), 10), url.Values{"message": {"Is this still available?"}})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/auth/login" {
		t.Fatalf("anonymous inquiry: expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestPublicDetailMissingListing(t *testing.T) {
	h, _ := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/properties/999", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/404" {
		t.Fatalf("expected redirect to /404, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestAPIPropertiesJSON(t *testing.T) {
	h, conn := newTestHandler(t)
	seedPublishedListing(t, conn)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/properties", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var listings []models.Property
	if err := json.Unmarshal(w.Body.Bytes(), &listings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listings) != 1 || listings[0].Title != "House by the lake" {
		t.Fatalf("unexpected listings: %+v", listings)
	}
}

type noopMailer struct{}

func (noopMailer) SendConfirmation(name, email, token string) error  { return nil }
func (noopMailer) SendPasswordReset(name, email, token string) error { return nil }

func seedPublishedListing(t *testing.T, conn *gorm.DB) models.Property {
	t.Helper()
	owner := models.User{Name: "Owner", Email: "owner@test.dev", Password: "x", Confirmed: true}
	if err := conn.Create(&owner).Error; err != nil {
		t.Fatalf("owner: %v", err)
	}
	var cat models.Category
	conn.First(&cat)
	var pr models.PriceRange
	conn.First(&pr)
	p := models.Property{
		Title: "House by the lake", Description: "A lovely house with a view",
		Bedrooms: 3, Parking: 1, Bathrooms: 2, Street: "12 Lakeside Drive",
		Lat: 45.5, Lng: -73.5, Image: "a.jpg", Published: true,
		UserID: owner.ID, PriceRangeID: pr.ID, CategoryID: cat.ID,
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("listing: %v", err)
	}
	return p
}
