package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/diewo77/estate-listings/auth"
	"github.com/diewo77/estate-listings/httpx"
	"github.com/diewo77/estate-listings/internal/config"
	"github.com/diewo77/estate-listings/internal/handlers"
	"github.com/diewo77/estate-listings/internal/mail"
	"github.com/diewo77/estate-listings/internal/models"
	"github.com/diewo77/estate-listings/internal/services"

	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	mailer := mail.New(cfg)
	identity := services.NewIdentityService(db, mailer)
	props := services.NewPropertyService(db, cfg.UploadDir)
	msgs := services.NewMessageService(db)

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check (SELECT 1); detailed errors stay out of the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Account endpoints
	authHandler := handlers.NewAuthHandler(identity)
	authHandler.Register(mux)

	// Owner endpoints live behind RequireAuth. Mounts are method-qualified so
	// every literal pattern stays strictly more specific than the public
	// GET /properties/{id} wildcard below.
	ph := handlers.NewPropertyHandler(db, props, msgs)
	ownerMux := http.NewServeMux()
	ph.Register(ownerMux)
	owner := auth.RequireAuth(ownerMux)
	mux.Handle("GET /my-properties", owner)
	mux.Handle("GET /properties/new", owner)
	mux.Handle("POST /properties/new", owner)
	mux.Handle("GET /properties/add-image/{id}", owner)
	mux.Handle("POST /properties/add-image/{id}", owner)
	mux.Handle("GET /properties/edit/{id}", owner)
	mux.Handle("POST /properties/edit/{id}", owner)
	mux.Handle("POST /properties/delete/{id}", owner)
	mux.Handle("POST /properties/toggle/{id}", owner)
	mux.Handle("GET /properties/messages/{id}", owner)
	// Posting an inquiry needs a signed-in sender; reading the page does not.
	mux.Handle("POST /properties/message/{id}", owner)
	mux.HandleFunc("GET /properties/{id}", ph.Show)

	// Public browse pages
	home := handlers.NewHomeHandler(db, props)
	home.Register(mux)

	// Read-only JSON API
	api := handlers.NewAPIHandler(props)
	api.Register(mux)

	return auth.Middleware(auth.CSRF(withRecover(withLogging(mux))))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
