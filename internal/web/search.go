package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/search"
	"github.com/erazemk/locography/internal/store"
)

type searchPage struct {
	PageData
	Query      string
	Tags       string
	CategoryID *int64
	LocationID *int64
	Threshold  float64
	Searched   bool
	Items      []model.Item
	Matches    []catalog.SearchResult
	Locations  []model.Location
	Categories []model.Category
}

// SearchPage handles GET /search, the text search.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	data := searchPage{
		PageData:  s.page(r, "Search"),
		Query:     strings.TrimSpace(r.URL.Query().Get("q")),
		Tags:      r.URL.Query().Get("tags"),
		Threshold: s.SearchThreshold,
	}

	var err error
	if data.CategoryID, err = formID(r, "category_id"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if data.LocationID, err = formID(r, "location_id"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tags := splitTags(data.Tags)
	if data.Query != "" || len(tags) > 0 || data.CategoryID != nil || data.LocationID != nil {
		data.Searched = true
		data.Items, err = store.SearchItems(r.Context(), s.DB, store.ItemQuery{
			Q:          data.Query,
			CategoryID: data.CategoryID,
			LocationID: data.LocationID,
			Tags:       tags,
		})
		if err != nil {
			slog.Error("failed to search items", "error", err)
			data.Error = "search failed"
		}
	}

	s.loadChoices(r, &data.Locations, &data.Categories)
	s.Templates.Render(w, "search.html", &data)
}

// SearchImageSubmit handles POST /search, the photo search.
func (s *Server) SearchImageSubmit(w http.ResponseWriter, r *http.Request) {
	data := searchPage{
		PageData:  s.page(r, "Search"),
		Threshold: s.SearchThreshold,
		Searched:  true,
	}
	s.loadChoices(r, &data.Locations, &data.Categories)

	upload, _, err := s.readUpload(w, r)
	if err != nil {
		data.Error = err.Error()
		s.Templates.Render(w, "search.html", &data)
		return
	}
	if v := r.FormValue("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 1 {
			data.Error = "threshold must be between 0 and 1"
			s.Templates.Render(w, "search.html", &data)
			return
		}
		data.Threshold = t
	}

	data.Matches, err = s.Catalog.SearchByImage(r.Context(), upload, s.SearchLimit, data.Threshold)
	switch {
	case errors.Is(err, search.ErrInvalidInput):
		data.Error = "that file is not a photo we can read"
	case err != nil:
		slog.Error("failed to search by image", "error", err)
		data.Error = "search failed"
	}
	s.Templates.Render(w, "search.html", &data)
}
