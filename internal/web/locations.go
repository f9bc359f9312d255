package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

// LocationTypes are offered in the location forms.
var LocationTypes = []string{
	model.LocationTypeRoom,
	model.LocationTypeFurniture,
	model.LocationTypeContainer,
	model.LocationTypeShelf,
}

// LocationsPage handles GET /locations.
func (s *Server) LocationsPage(w http.ResponseWriter, r *http.Request) {
	locationType := r.URL.Query().Get("location_type")
	locations, err := store.ListLocations(r.Context(), s.DB, store.LocationFilter{Type: locationType})
	if err != nil {
		slog.Error("failed to list locations", "error", err)
	}

	s.Templates.Render(w, "locations.html", &struct {
		PageData
		Locations    []model.Location
		Types        []string
		SelectedType string
	}{
		PageData:     s.page(r, "Locations"),
		Locations:    locations,
		Types:        LocationTypes,
		SelectedType: locationType,
	})
}

// LocationCreateSubmit handles POST /locations.
func (s *Server) LocationCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := model.LocationInput{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		LocationType: strings.TrimSpace(r.FormValue("location_type")),
	}
	if in.Name == "" {
		redirectError(w, r, "/locations", "name required")
		return
	}

	var err error
	if in.ParentID, err = formID(r, "parent_id"); err != nil {
		redirectError(w, r, "/locations", err.Error())
		return
	}

	location, err := store.CreateLocation(r.Context(), s.DB, in)
	if err != nil {
		slog.Warn("failed to create location", "error", err)
		redirectError(w, r, "/locations", "could not create location: "+err.Error())
		return
	}

	slog.Info("location created", "location_id", location.ID, "name", location.Name)
	redirectOK(w, r, "/locations", "Location created.")
}

// LocationDetailPage handles GET /locations/{id}.
func (s *Server) LocationDetailPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	location, err := store.GetLocation(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to get location", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if location == nil {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}

	path, err := store.LocationPath(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to get location path", "error", err)
	}
	children, err := store.ListLocations(ctx, s.DB, store.LocationFilter{ParentID: &id})
	if err != nil {
		slog.Error("failed to list child locations", "error", err)
	}
	items, err := store.ListLocationItems(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to list location items", "error", err)
	}
	all, err := store.ListLocations(ctx, s.DB, store.LocationFilter{})
	if err != nil {
		slog.Error("failed to list locations", "error", err)
	}

	s.Templates.Render(w, "location_detail.html", &struct {
		PageData
		Location  *model.Location
		Path      []model.Location
		Children  []model.Location
		Items     []model.Item
		Locations []model.Location
		Types     []string
	}{
		PageData:  s.page(r, location.Name),
		Location:  location,
		Path:      path,
		Children:  children,
		Items:     items,
		Locations: all,
		Types:     LocationTypes,
	})
}

// LocationUpdateSubmit handles POST /locations/{id}.
func (s *Server) LocationUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/locations/%d", id)

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	locationType := strings.TrimSpace(r.FormValue("location_type"))
	if name == "" {
		redirectError(w, r, back, "name required")
		return
	}
	parentID, err := formID(r, "parent_id")
	if err != nil {
		redirectError(w, r, back, err.Error())
		return
	}

	location, err := store.UpdateLocation(r.Context(), s.DB, id, model.LocationPatch{
		Name:         &name,
		Description:  &description,
		LocationType: &locationType,
		ParentID:     model.Optional[int64]{Set: true, Value: parentID},
	})
	if errors.Is(err, store.ErrCycle) || errors.Is(err, store.ErrInvalidReference) {
		redirectError(w, r, back, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to update location", "location_id", id, "error", err)
		http.Error(w, "failed to update", http.StatusInternalServerError)
		return
	}
	if location == nil {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}

	slog.Info("location updated", "location_id", id, "name", name)
	redirectOK(w, r, back, "Saved.")
}

// LocationDeleteSubmit handles POST /locations/{id}/delete.
func (s *Server) LocationDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	err := store.DeleteLocation(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrHasChildren) {
		redirectError(w, r, fmt.Sprintf("/locations/%d", id), "move or delete the nested locations first")
		return
	}
	if err != nil {
		slog.Error("failed to delete location", "location_id", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	slog.Info("location deleted", "location_id", id)
	redirectOK(w, r, "/locations", "Location deleted.")
}
