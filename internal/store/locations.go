package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/model"
)

const locationColumns = `l.id, l.name, l.description, l.location_type,
	l.x_coord, l.y_coord, l.z_coord, l.latitude, l.longitude, l.model_url,
	l.parent_id, l.created_at, l.updated_at,
	(SELECT COUNT(*) FROM items i WHERE i.location_id = l.id) AS item_count`

// LocationFilter narrows location listings. Zero values match everything.
type LocationFilter struct {
	Type     string
	ParentID *int64
}

// CreateLocation creates a new location.
func CreateLocation(ctx context.Context, db *sqlx.DB, in model.LocationInput) (*model.Location, error) {
	if err := checkParent(ctx, db, tableLocations, nil, in.ParentID); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO locations (name, description, location_type, x_coord, y_coord, z_coord,
		                        latitude, longitude, model_url, parent_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.LocationType, in.XCoord, in.YCoord, in.ZCoord,
		in.Latitude, in.Longitude, in.ModelURL, in.ParentID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}

	return GetLocation(ctx, db, id)
}

// GetLocation returns a location by ID.
func GetLocation(ctx context.Context, db *sqlx.DB, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := db.GetContext(ctx, l,
		`SELECT `+locationColumns+` FROM locations l WHERE l.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// ListLocations returns locations ordered by name.
func ListLocations(ctx context.Context, db *sqlx.DB, f LocationFilter) ([]model.Location, error) {
	var where []string
	var args []any
	if f.Type != "" {
		where = append(where, "l.location_type = ?")
		args = append(args, f.Type)
	}
	if f.ParentID != nil {
		where = append(where, "l.parent_id = ?")
		args = append(args, *f.ParentID)
	}

	query := `SELECT ` + locationColumns + ` FROM locations l`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY l.name, l.id"

	locations := []model.Location{}
	if err := db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	return locations, nil
}

// UpdateLocation applies a partial update. Returns nil if the location doesn't exist.
func UpdateLocation(ctx context.Context, db *sqlx.DB, id int64, p model.LocationPatch) (*model.Location, error) {
	existing, err := GetLocation(ctx, db, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if p.ParentID.Set {
		if err := checkParent(ctx, db, tableLocations, &id, p.ParentID.Value); err != nil {
			return nil, err
		}
	}

	var up patch
	if p.Name != nil {
		up.set("name", *p.Name)
	}
	if p.Description != nil {
		up.set("description", *p.Description)
	}
	if p.LocationType != nil {
		up.set("location_type", *p.LocationType)
	}
	if p.XCoord.Set {
		up.set("x_coord", p.XCoord.Value)
	}
	if p.YCoord.Set {
		up.set("y_coord", p.YCoord.Value)
	}
	if p.ZCoord.Set {
		up.set("z_coord", p.ZCoord.Value)
	}
	if p.Latitude.Set {
		up.set("latitude", p.Latitude.Value)
	}
	if p.Longitude.Set {
		up.set("longitude", p.Longitude.Value)
	}
	if p.ModelURL != nil {
		up.set("model_url", *p.ModelURL)
	}
	if p.ParentID.Set {
		up.set("parent_id", p.ParentID.Value)
	}
	if up.empty() {
		return existing, nil
	}

	query := `UPDATE locations SET ` + strings.Join(up.sets, ", ") +
		`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, append(up.args, id)...); err != nil {
		return nil, fmt.Errorf("updating location: %w", err)
	}

	return GetLocation(ctx, db, id)
}

// DeleteLocation deletes a location. Items stored there lose their location.
// Fails with ErrHasChildren if other locations are nested inside it.
func DeleteLocation(ctx context.Context, db *sqlx.DB, id int64) error {
	children, err := hasChildren(ctx, db, tableLocations, id)
	if err != nil {
		return err
	}
	if children {
		return ErrHasChildren
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}

// ListLocationItems returns the items stored in a location or any location nested in it.
func ListLocationItems(ctx context.Context, db *sqlx.DB, id int64) ([]model.Item, error) {
	return SearchItems(ctx, db, ItemQuery{LocationID: &id, Limit: MaxSearchLimit})
}

// LocationPath returns the chain of locations from the root down to id.
func LocationPath(ctx context.Context, db *sqlx.DB, id int64) ([]model.Location, error) {
	var path []model.Location
	seen := make(map[int64]bool)
	next := &id
	for next != nil && !seen[*next] {
		seen[*next] = true
		l, err := GetLocation(ctx, db, *next)
		if err != nil {
			return nil, err
		}
		if l == nil {
			break
		}
		path = append([]model.Location{*l}, path...)
		next = l.ParentID
	}
	return path, nil
}
