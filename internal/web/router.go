// Package web serves the HTML front-end.
package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/locography/internal/catalog"
	webembed "github.com/erazemk/locography/web"
)

const (
	defaultSearchLimit   = 10
	defaultMaxUploadSize = 10 << 20
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(s *Server) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}
	if s.SearchLimit <= 0 {
		s.SearchLimit = defaultSearchLimit
	}
	if s.MaxUploadSize <= 0 {
		s.MaxUploadSize = defaultMaxUploadSize
	}

	r := chi.NewRouter()

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	r.Get("/", s.Dashboard)

	r.Get("/items", s.ItemsPage)
	r.Post("/items", s.ItemCreateSubmit)
	r.Get("/items/{id}", s.ItemDetailPage)
	r.Post("/items/{id}", s.ItemUpdateSubmit)
	r.Post("/items/{id}/delete", s.ItemDeleteSubmit)
	r.Post("/items/{id}/images", s.ItemImageSubmit)
	r.Post("/items/{id}/images/{imageID}/primary", s.ItemImagePrimarySubmit)
	r.Post("/items/{id}/images/{imageID}/delete", s.ItemImageDeleteSubmit)
	r.Post("/items/{id}/move", s.ItemMoveSubmit)
	r.Post("/items/{id}/describe", s.ItemDescribeSubmit)
	r.Get("/images/{imageID}", s.ImageGet)

	r.Get("/locations", s.LocationsPage)
	r.Post("/locations", s.LocationCreateSubmit)
	r.Get("/locations/{id}", s.LocationDetailPage)
	r.Post("/locations/{id}", s.LocationUpdateSubmit)
	r.Post("/locations/{id}/delete", s.LocationDeleteSubmit)

	r.Get("/categories", s.CategoriesPage)
	r.Post("/categories", s.CategoryCreateSubmit)
	r.Post("/categories/{id}", s.CategoryUpdateSubmit)
	r.Post("/categories/{id}/delete", s.CategoryDeleteSubmit)

	r.Get("/search", s.SearchPage)
	r.Post("/search", s.SearchImageSubmit)

	return r, nil
}

// ImageGet handles GET /images/{imageID}.
func (s *Server) ImageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "imageID")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	img, data, err := s.Catalog.ImageFile(r.Context(), id)
	if errors.Is(err, catalog.ErrImageNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to get image", "image_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// formID parses an optional id form field; empty means none.
func formID(r *http.Request, name string) (*int64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

// formFloat parses an optional decimal form field.
func formFloat(r *http.Request, name string) (*float64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &f, nil
}

// splitTags splits a comma separated tag field.
func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// redirectError redirects to path with an error flash message.
func redirectError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(message), http.StatusSeeOther)
}

// redirectOK redirects to path with a success flash message.
func redirectOK(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?ok="+url.QueryEscape(message), http.StatusSeeOther)
}
