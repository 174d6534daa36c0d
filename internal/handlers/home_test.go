package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func newHomeMux(t *testing.T) (*http.ServeMux, *testApp) {
	t.Helper()
	app := newTestApp(t)
	home := NewHomeHandler(app.db, app.props)
	mux := http.NewServeMux()
	home.Register(mux)
	return mux, app
}

func TestHomeShowsLatestPublished(t *testing.T) {
	mux, app := newHomeMux(t)
	owner := app.user(t, "owner@test")
	app.listing(t, owner.ID, "a.jpg")
	app.listing(t, owner.ID, "") // draft stays hidden

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "House by the lake") {
		t.Fatalf("published listing missing from home: %s", body)
	}
	if strings.Count(body, "House by the lake") != 1 {
		t.Fatalf("draft leaked onto home page: %s", body)
	}
}

func TestCategoryPage(t *testing.T) {
	mux, app := newHomeMux(t)
	owner := app.user(t, "owner@test")
	app.listing(t, owner.ID, "a.jpg")

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/category/"+strconv.FormatUint(uint64(app.cat.ID), 10), nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "House by the lake") {
		t.Fatalf("category page: got %d body=%s", w.Code, w.Body.String())
	}

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/category/999", nil))
	if w.Code != statusSeeOther || w.Header().Get("Location") != "/404" {
		t.Fatalf("missing category: got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestSearch(t *testing.T) {
	mux, app := newHomeMux(t)
	owner := app.user(t, "owner@test")
	app.listing(t, owner.ID, "a.jpg")

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/search?q=lake", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "House by the lake") {
		t.Fatalf("search hit: got %d body=%s", w.Code, w.Body.String())
	}

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/search?q=castle", nil))
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "House by the lake") {
		t.Fatalf("search miss must render empty results: got %d", w.Code)
	}

	// Blank query goes home.
	w = serve(mux, httptest.NewRequest(http.MethodGet, "/search?q=++", nil))
	if w.Code != statusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("blank search: got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestNotFoundPage(t *testing.T) {
	mux, _ := newHomeMux(t)
	w := serve(mux, httptest.NewRequest(http.MethodGet, "/404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestAPIList(t *testing.T) {
	app := newTestApp(t)
	owner := app.user(t, "owner@test")
	app.listing(t, owner.ID, "a.jpg")
	api := NewAPIHandler(app.props)
	mux := http.NewServeMux()
	api.Register(mux)

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/api/properties", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %q", ct)
	}
	if !strings.Contains(w.Body.String(), "House by the lake") {
		t.Fatalf("listing missing from api payload: %s", w.Body.String())
	}
}
