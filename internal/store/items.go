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

const itemColumns = `i.id, i.name, i.description, i.category_id, i.location_id, i.quantity,
	i.unit, i.estimated_value, i.currency, i.tags, i.ai_description, i.ai_tags,
	i.model_url, i.last_seen_at, i.created_at, i.updated_at,
	c.name AS category_name, l.name AS location_name,
	(SELECT im.id FROM item_images im WHERE im.item_id = i.id
	 ORDER BY im.is_primary DESC, im.created_at, im.id LIMIT 1) AS primary_image_id`

const itemFrom = ` FROM items i
	LEFT JOIN categories c ON c.id = i.category_id
	LEFT JOIN locations l ON l.id = i.location_id`

// Paging limits for item listings.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// CreateItem creates a new item.
func CreateItem(ctx context.Context, db *sqlx.DB, in model.ItemInput) (*model.Item, error) {
	if err := checkRef(ctx, db, tableCategories, in.CategoryID); err != nil {
		return nil, err
	}
	if err := checkRef(ctx, db, tableLocations, in.LocationID); err != nil {
		return nil, err
	}

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	currency := in.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, category_id, location_id, quantity, unit,
		                    estimated_value, currency, tags, model_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.CategoryID, in.LocationID, quantity, in.Unit,
		in.EstimatedValue, currency, model.Tags(in.Tags), in.ModelURL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sqlx.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := db.GetContext(ctx, item, `SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items ordered by most recently updated.
// Category and location filters match the exact node only.
func ListItems(ctx context.Context, db *sqlx.DB, f model.ItemFilter) ([]model.Item, error) {
	var where []string
	var args []any
	if f.CategoryID != nil {
		where = append(where, "i.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.LocationID != nil {
		where = append(where, "i.location_id = ?")
		args = append(args, *f.LocationID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	skip := max(f.Skip, 0)

	query := `SELECT ` + itemColumns + itemFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.updated_at DESC, i.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	items := []model.Item{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListAllItems returns every item ordered by name.
func ListAllItems(ctx context.Context, db *sqlx.DB) ([]model.Item, error) {
	items := []model.Item{}
	err := db.SelectContext(ctx, &items, `SELECT `+itemColumns+itemFrom+` ORDER BY i.name, i.id`)
	if err != nil {
		return nil, fmt.Errorf("listing all items: %w", err)
	}
	return items, nil
}

// UpdateItem applies a partial update. Returns nil if the item doesn't exist.
// A changed location is recorded as a movement.
func UpdateItem(ctx context.Context, db *sqlx.DB, id int64, p model.ItemPatch) (*model.Item, error) {
	existing, err := GetItem(ctx, db, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if p.CategoryID.Set {
		if err := checkRef(ctx, db, tableCategories, p.CategoryID.Value); err != nil {
			return nil, err
		}
	}
	if p.LocationID.Set {
		if err := checkRef(ctx, db, tableLocations, p.LocationID.Value); err != nil {
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
	if p.CategoryID.Set {
		up.set("category_id", p.CategoryID.Value)
	}
	if p.LocationID.Set {
		up.set("location_id", p.LocationID.Value)
	}
	if p.Quantity != nil {
		up.set("quantity", *p.Quantity)
	}
	if p.Unit != nil {
		up.set("unit", *p.Unit)
	}
	if p.EstimatedValue.Set {
		up.set("estimated_value", p.EstimatedValue.Value)
	}
	if p.Currency != nil {
		up.set("currency", *p.Currency)
	}
	if p.Tags != nil {
		up.set("tags", model.Tags(*p.Tags))
	}
	if p.ModelURL != nil {
		up.set("model_url", *p.ModelURL)
	}
	if up.empty() {
		return existing, nil
	}

	moved := p.LocationID.Set && !sameID(existing.LocationID, p.LocationID.Value)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE items SET ` + strings.Join(up.sets, ", ") + `, updated_at = CURRENT_TIMESTAMP`
	if moved {
		query += `, last_seen_at = CURRENT_TIMESTAMP`
	}
	query += ` WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, append(up.args, id)...); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if moved {
		if _, err := insertMovement(ctx, tx, id, existing.LocationID, p.LocationID.Value, ""); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	return GetItem(ctx, db, id)
}

// SetItemAI stores AI-generated description and tags on an item.
func SetItemAI(ctx context.Context, db *sqlx.DB, id int64, description string, tags []string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET ai_description = ?, ai_tags = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		description, model.Tags(tags), id,
	)
	if err != nil {
		return fmt.Errorf("setting item ai fields: %w", err)
	}
	return nil
}

// DeleteItem deletes an item together with its images and movements and
// returns the storage keys of the deleted images.
func DeleteItem(ctx context.Context, db *sqlx.DB, id int64) ([]string, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var paths []string
	if err := tx.SelectContext(ctx, &paths,
		`SELECT file_path FROM item_images WHERE item_id = ? ORDER BY id`, id,
	); err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item deletion: %w", err)
	}
	return paths, nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
