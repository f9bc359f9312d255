package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/model"
)

const movementQuery = `SELECT m.id, m.item_id, m.from_location_id, m.to_location_id, m.notes,
	        m.moved_at, i.name AS item_name,
	        fl.name AS from_location_name, tl.name AS to_location_name
	 FROM movements m
	 JOIN items i ON i.id = m.item_id
	 LEFT JOIN locations fl ON fl.id = m.from_location_id
	 LEFT JOIN locations tl ON tl.id = m.to_location_id`

// MoveItem moves an item to another location (nil for none) and records the
// movement in a single transaction.
func MoveItem(ctx context.Context, db *sqlx.DB, itemID int64, to *int64, notes string) (*model.Movement, error) {
	if err := checkRef(ctx, db, tableLocations, to); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var from *int64
	err = tx.GetContext(ctx, &from, `SELECT location_id FROM items WHERE id = ?`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item location: %w", err)
	}
	if sameID(from, to) {
		return nil, ErrSameLocation
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET location_id = ?, last_seen_at = CURRENT_TIMESTAMP,
		                  updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		to, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("moving item: %w", err)
	}

	movementID, err := insertMovement(ctx, tx, itemID, from, to, notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing movement: %w", err)
	}

	return GetMovement(ctx, db, movementID)
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, itemID int64, from, to *int64, notes string) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO movements (item_id, from_location_id, to_location_id, notes)
		 VALUES (?, ?, ?, ?)`,
		itemID, from, to, notes,
	)
	if err != nil {
		return 0, fmt.Errorf("recording movement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting movement id: %w", err)
	}
	return id, nil
}

// GetMovement returns a movement by ID.
func GetMovement(ctx context.Context, db *sqlx.DB, id int64) (*model.Movement, error) {
	m := &model.Movement{}
	err := db.GetContext(ctx, m, movementQuery+` WHERE m.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting movement: %w", err)
	}
	return m, nil
}

// GetItemHistory returns the movements of an item, newest first.
func GetItemHistory(ctx context.Context, db *sqlx.DB, itemID int64) ([]model.Movement, error) {
	movements := []model.Movement{}
	err := db.SelectContext(ctx, &movements,
		movementQuery+` WHERE m.item_id = ? ORDER BY m.moved_at DESC, m.id DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	return movements, nil
}

// ListRecentMovements returns the latest movements across all items.
func ListRecentMovements(ctx context.Context, db *sqlx.DB, limit int) ([]model.Movement, error) {
	movements := []model.Movement{}
	err := db.SelectContext(ctx, &movements,
		movementQuery+` ORDER BY m.moved_at DESC, m.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	return movements, nil
}
