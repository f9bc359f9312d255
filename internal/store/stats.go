package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/model"
)

// GetStats returns catalog totals for the dashboard.
func GetStats(ctx context.Context, db *sqlx.DB) (*model.Stats, error) {
	s := &model.Stats{}
	err := db.GetContext(ctx, s,
		`SELECT
		     (SELECT COUNT(*) FROM items) AS items,
		     (SELECT COALESCE(SUM(quantity), 0) FROM items) AS quantity,
		     (SELECT COUNT(*) FROM item_images) AS images,
		     (SELECT COUNT(*) FROM locations) AS locations,
		     (SELECT COUNT(*) FROM categories) AS categories,
		     (SELECT COALESCE(SUM(quantity * estimated_value), 0.0) FROM items
		      WHERE estimated_value IS NOT NULL) AS total_value`)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return s, nil
}
