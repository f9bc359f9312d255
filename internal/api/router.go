// Package api implements the JSON API under /api/v1.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/catalog"
)

// Describer suggests item descriptions. *llm.Client implements it.
type Describer interface {
	GenerateDescription(ctx context.Context, name, existing string) (string, error)
}

// SearchLimits bounds the by-image search parameters.
type SearchLimits struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultThreshold float64
}

// Deps are the dependencies shared by the API handlers.
type Deps struct {
	DB            *sqlx.DB
	Catalog       *catalog.Service
	Describer     Describer
	MaxUploadSize int64
	Search        SearchLimits
}

// NewRouter creates the API router with all endpoints registered. It is
// meant to be mounted at /api/v1.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	itemsHandler := &ItemsHandler{DB: d.DB, Catalog: d.Catalog, Describer: d.Describer, MaxUploadSize: d.MaxUploadSize}
	locationsHandler := &LocationsHandler{DB: d.DB}
	categoriesHandler := &CategoriesHandler{DB: d.DB}
	searchHandler := &SearchHandler{DB: d.DB, Catalog: d.Catalog, MaxUploadSize: d.MaxUploadSize, Limits: d.Search}
	exportHandler := &ExportHandler{DB: d.DB}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", itemsHandler.List)
		r.Post("/", itemsHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", itemsHandler.Get)
			r.Put("/", itemsHandler.Update)
			r.Delete("/", itemsHandler.Delete)
			r.Get("/images", itemsHandler.ListImages)
			r.Post("/images", itemsHandler.UploadImage)
			r.Put("/images/{imageID}/primary", itemsHandler.SetPrimaryImage)
			r.Delete("/images/{imageID}", itemsHandler.DeleteImage)
			r.Post("/move", itemsHandler.Move)
			r.Get("/history", itemsHandler.GetHistory)
			r.Post("/describe", itemsHandler.Describe)
		})
	})

	r.Get("/images/{imageID}/file", itemsHandler.ImageFile)

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", locationsHandler.List)
		r.Post("/", locationsHandler.Create)
		r.Get("/{id}", locationsHandler.Get)
		r.Put("/{id}", locationsHandler.Update)
		r.Delete("/{id}", locationsHandler.Delete)
		r.Get("/{id}/items", locationsHandler.Items)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoriesHandler.List)
		r.Post("/", categoriesHandler.Create)
		r.Get("/{id}", categoriesHandler.Get)
		r.Put("/{id}", categoriesHandler.Update)
		r.Delete("/{id}", categoriesHandler.Delete)
	})

	r.Get("/search/items", searchHandler.Items)
	r.Post("/search/by-image", searchHandler.ByImage)

	r.Get("/export/items.xlsx", exportHandler.Items)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Health handles GET /health.
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy", "version": version})
	}
}
