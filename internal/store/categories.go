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

const categoryColumns = `c.id, c.name, c.description, c.parent_id, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM items i WHERE i.category_id = c.id) AS item_count`

// CreateCategory creates a new category.
func CreateCategory(ctx context.Context, db *sqlx.DB, in model.CategoryInput) (*model.Category, error) {
	if err := checkParent(ctx, db, tableCategories, nil, in.ParentID); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description, parent_id) VALUES (?, ?, ?)`,
		in.Name, in.Description, in.ParentID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db *sqlx.DB, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := db.GetContext(ctx, c,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns categories ordered by name, optionally only the
// direct children of parentID.
func ListCategories(ctx context.Context, db *sqlx.DB, parentID *int64) ([]model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c`
	var args []any
	if parentID != nil {
		query += ` WHERE c.parent_id = ?`
		args = append(args, *parentID)
	}
	query += ` ORDER BY c.name, c.id`

	categories := []model.Category{}
	if err := db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory applies a partial update. Returns nil if the category doesn't exist.
func UpdateCategory(ctx context.Context, db *sqlx.DB, id int64, p model.CategoryPatch) (*model.Category, error) {
	existing, err := GetCategory(ctx, db, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if p.ParentID.Set {
		if err := checkParent(ctx, db, tableCategories, &id, p.ParentID.Value); err != nil {
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
	if p.ParentID.Set {
		up.set("parent_id", p.ParentID.Value)
	}
	if up.empty() {
		return existing, nil
	}

	query := `UPDATE categories SET ` + strings.Join(up.sets, ", ") +
		`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, append(up.args, id)...); err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// DeleteCategory deletes a category. Its items become uncategorized.
func DeleteCategory(ctx context.Context, db *sqlx.DB, id int64) error {
	children, err := hasChildren(ctx, db, tableCategories, id)
	if err != nil {
		return err
	}
	if children {
		return ErrHasChildren
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}
