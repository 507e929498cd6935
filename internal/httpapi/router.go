// Package httpapi wires the HTTP surface of the service.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sceneforge/internal/httpapi/handlers"
	"sceneforge/internal/httpkit"
	"sceneforge/internal/pkg/middleware"
)

// NewRouter assembles the API router with the shared middleware chain.
func NewRouter(d handlers.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.Cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(d)

	r.Get("/health", h.Health)

	r.Post("/generate", h.PostGenerate)
	r.Post("/edit", h.PostEdit)
	r.Get("/status/{jobID}", h.GetStatus)
	r.Get("/download/{jobID}", h.Download)

	return r
}
