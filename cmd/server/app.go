package main

import (
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/diewo77/estate-listings/internal/config"
	"github.com/diewo77/estate-listings/internal/server"

	"gorm.io/gorm"
)

// NewApp bundles static assets, uploaded images, and the application routes
// into one handler. End-to-end tests drive the app through this.
func NewApp(dbConn *gorm.DB, cfg config.Config) http.Handler {
	routes := server.New(dbConn, cfg)

	mux := http.NewServeMux()
	mux.Handle("/static/", staticHandler())
	// uploaded listing images are served straight from the upload directory
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	mux.Handle("/", routes)
	return mux
}

// staticHandler serves CSS/JS under /static/ with an ETag and long cache
// headers outside DEV.
func staticHandler() http.Handler {
	fs := http.FileServer(http.Dir("static"))
	return http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		ext := filepath.Ext(name)
		// open file manually to compute ETag
		f, err := os.Open(filepath.Join("static", name))
		if err == nil {
			h := sha1.New()
			// small files only; large could be optimized with stat modtime
			if _, cerr := io.Copy(h, f); cerr == nil {
				etag := fmt.Sprintf("\"%x\"", h.Sum(nil)[:8])
				w.Header().Set("ETag", etag)
				if match := r.Header.Get("If-None-Match"); match == etag {
					f.Close()
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
			f.Close()
		}
		if ext == ".css" {
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		} else if ext == ".js" {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		}
		if os.Getenv("DEV") != "1" {
			// Long cache for versioned assets (1 year)
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fs.ServeHTTP(w, r)
	}))
}
