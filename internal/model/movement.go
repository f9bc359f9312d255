package model

import "time"

// Movement records an item being moved between locations.
type Movement struct {
	ID             int64     `db:"id" json:"id"`
	ItemID         int64     `db:"item_id" json:"item_id"`
	FromLocationID *int64    `db:"from_location_id" json:"from_location_id"`
	ToLocationID   *int64    `db:"to_location_id" json:"to_location_id"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	MovedAt        time.Time `db:"moved_at" json:"moved_at"`

	// Joined fields (not always populated).
	ItemName         string  `db:"item_name" json:"item_name,omitempty"`
	FromLocationName *string `db:"from_location_name" json:"from_location_name,omitempty"`
	ToLocationName   *string `db:"to_location_name" json:"to_location_name,omitempty"`
}

// Stats summarizes the catalog for the dashboard.
type Stats struct {
	Items      int     `db:"items" json:"items"`
	Quantity   int     `db:"quantity" json:"quantity"`
	Images     int     `db:"images" json:"images"`
	Locations  int     `db:"locations" json:"locations"`
	Categories int     `db:"categories" json:"categories"`
	TotalValue float64 `db:"total_value" json:"total_value"`
}
