package model

import "time"

// Location is a place where items are stored. Locations form a tree.
type Location struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description,omitempty"`
	LocationType string    `db:"location_type" json:"location_type,omitempty"`
	XCoord       *float64  `db:"x_coord" json:"x_coord"`
	YCoord       *float64  `db:"y_coord" json:"y_coord"`
	ZCoord       *float64  `db:"z_coord" json:"z_coord"`
	Latitude     *float64  `db:"latitude" json:"latitude"`
	Longitude    *float64  `db:"longitude" json:"longitude"`
	ModelURL     string    `db:"model_url" json:"model_url,omitempty"`
	ParentID     *int64    `db:"parent_id" json:"parent_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not always populated).
	ItemCount int `db:"item_count" json:"item_count"`
}

// Common location types. Any string is accepted.
const (
	LocationTypeRoom      = "room"
	LocationTypeFurniture = "furniture"
	LocationTypeContainer = "container"
	LocationTypeShelf     = "shelf"
)

// LocationInput holds the fields accepted when creating a location.
// The coordinate fields are stored but not interpreted.
type LocationInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	LocationType string   `json:"location_type"`
	XCoord       *float64 `json:"x_coord"`
	YCoord       *float64 `json:"y_coord"`
	ZCoord       *float64 `json:"z_coord"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	ModelURL     string   `json:"model_url"`
	ParentID     *int64   `json:"parent_id"`
}

// LocationPatch holds a partial location update.
type LocationPatch struct {
	Name         *string           `json:"name"`
	Description  *string           `json:"description"`
	LocationType *string           `json:"location_type"`
	XCoord       Optional[float64] `json:"x_coord"`
	YCoord       Optional[float64] `json:"y_coord"`
	ZCoord       Optional[float64] `json:"z_coord"`
	Latitude     Optional[float64] `json:"latitude"`
	Longitude    Optional[float64] `json:"longitude"`
	ModelURL     *string           `json:"model_url"`
	ParentID     Optional[int64]   `json:"parent_id"`
}
