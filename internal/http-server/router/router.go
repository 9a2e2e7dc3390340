package router

import (
	"encoding/json"
	"net/http"

	"image-resizer/internal/http-server/handler/image"
	"image-resizer/internal/http-server/handler/image/dto"
	"image-resizer/internal/http-server/handler/job"
	"image-resizer/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ImageHandler *image.ImageHandler
	// JobHandler is optional. Without it the job routes are not mounted.
	JobHandler *job.JobHandler
	// Modes lists the registered resize modes reported by the health check.
	Modes []string
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Post("/resize", h.ImageHandler.Resize)
			r.Post("/analyze", h.ImageHandler.Analyze)
		})

		if h.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", h.JobHandler.Submit)
				r.Get("/{id}", h.JobHandler.Get)
			})
		}

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(dto.HealthResponse{Status: "ok", Modes: h.Modes})
		})
	})

	return r
}
