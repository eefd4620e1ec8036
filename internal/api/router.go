package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/frames", app.FramesHandler)
		r.Post("/scan", app.ScanHandler)
		r.Get("/scan/progress", app.ScanProgressHandler)

		r.Route("/frames/{id}", func(r chi.Router) {
			r.Post("/select", app.SelectHandler)
			r.Delete("/select", app.DeselectHandler)
			r.Post("/enhance", app.EnhanceHandler)
			r.Post("/save-version", app.SaveVersionHandler)
		})

		r.Post("/enhance/batch", app.BatchEnhanceHandler)
		r.Post("/export", app.ExportHandler)
		r.Post("/reset", app.ResetHandler)
	})

	return r
}
