// Package http provides the HTTP delivery layer for the URL shortener service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, formatting responses and redirecting
// short links to their original URLs.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/indicina/url-shortener/pkg/middleware/recoverer"
)

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
// store backs the health check and may be nil.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, store pinger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	h := newURLHandler(urlUseCase, validator.New())
	hh := &healthHandler{store: store}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", hh.health)

		r.Route("/url", func(r chi.Router) {
			r.Post("/encode", h.encode)
			r.Get("/decode/{code}", h.decode)
			r.Get("/list", h.list)

			r.Route("/statistic/{code}", func(r chi.Router) {
				r.Get("/", h.statistic)
				r.Patch("/", h.updateStatus)
			})
		})
	})

	r.Get("/{code}", h.redirect)

	return r
}
