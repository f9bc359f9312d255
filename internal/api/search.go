package api

import (
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

// SearchHandler handles text and image search.
type SearchHandler struct {
	DB            *sqlx.DB
	Catalog       *catalog.Service
	MaxUploadSize int64
	Limits        SearchLimits
}

// Items handles GET /api/v1/search/items.
func (h *SearchHandler) Items(w http.ResponseWriter, r *http.Request) {
	q := store.ItemQuery{
		Q:    r.URL.Query().Get("q"),
		Tags: r.URL.Query()["tags"],
	}

	var err error
	if q.CategoryID, err = queryID(r, "category_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.LocationID, err = queryID(r, "location_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit, err = queryInt(r, "limit", store.DefaultSearchLimit); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit > store.MaxSearchLimit {
		jsonError(w, http.StatusBadRequest, "limit must be at most "+strconv.Itoa(store.MaxSearchLimit))
		return
	}

	items, err := store.SearchItems(r.Context(), h.DB, q)
	if err != nil {
		serviceError(w, r, err, "failed to search items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// ByImage handles POST /api/v1/search/by-image.
func (h *SearchHandler) ByImage(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.Limits.DefaultLimit)
	if err != nil || limit < 1 || limit > h.Limits.MaxLimit {
		jsonError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(h.Limits.MaxLimit))
		return
	}

	threshold := h.Limits.DefaultThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		threshold, err = strconv.ParseFloat(s, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			jsonError(w, http.StatusBadRequest, "threshold must be between 0 and 1")
			return
		}
	}

	data, _, ok := readUpload(w, r, h.MaxUploadSize)
	if !ok {
		return
	}

	results, err := h.Catalog.SearchByImage(r.Context(), data, limit, threshold)
	if err != nil {
		serviceError(w, r, err, "failed to search by image")
		return
	}
	if results == nil {
		results = []catalog.SearchResult{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}
