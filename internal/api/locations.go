package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

// LocationsHandler handles location CRUD endpoints.
type LocationsHandler struct {
	DB *sqlx.DB
}

// List handles GET /api/v1/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	parentID, err := queryID(r, "parent_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	locations, err := store.ListLocations(r.Context(), h.DB, store.LocationFilter{
		Type:     r.URL.Query().Get("location_type"),
		ParentID: parentID,
	})
	if err != nil {
		serviceError(w, r, err, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Create handles POST /api/v1/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.LocationInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	location, err := store.CreateLocation(r.Context(), h.DB, req)
	if err != nil {
		serviceError(w, r, err, "failed to create location")
		return
	}

	slog.Info("location created", "location_id", location.ID, "name", location.Name)
	jsonResponse(w, http.StatusCreated, location)
}

// Get handles GET /api/v1/locations/{id}.
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	location, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

// Update handles PUT /api/v1/locations/{id}.
func (h *LocationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	var req model.LocationPatch
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
		if *req.Name == "" {
			jsonError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
	}

	location, err := store.UpdateLocation(r.Context(), h.DB, id, req)
	if err != nil {
		serviceError(w, r, err, "failed to update location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

// Delete handles DELETE /api/v1/locations/{id}.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	location, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}

	if err := store.DeleteLocation(r.Context(), h.DB, id); err != nil {
		serviceError(w, r, err, "failed to delete location")
		return
	}

	slog.Info("location deleted", "location_id", id, "name", location.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "location deleted"})
}

// Items handles GET /api/v1/locations/{id}/items.
func (h *LocationsHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	location, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}

	items, err := store.ListLocationItems(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to list location items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}
