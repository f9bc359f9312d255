package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SettingFeatureDescriptor holds the identifier of the feature extractor that
// produced the stored image vectors.
const SettingFeatureDescriptor = "feature_descriptor"

// GetSetting returns a setting value and whether it exists.
func GetSetting(ctx context.Context, db *sqlx.DB, key string) (string, bool, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a setting value, replacing any existing one.
func SetSetting(ctx context.Context, db *sqlx.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// EnsureDescriptor records descriptor as the feature descriptor if none is
// stored yet, and returns the stored one. A result different from descriptor
// means the stored vectors were produced by another extractor.
// Uses INSERT OR IGNORE + re-SELECT to avoid a race on concurrent startup.
func EnsureDescriptor(ctx context.Context, db *sqlx.DB, descriptor string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		SettingFeatureDescriptor, descriptor,
	)
	if err != nil {
		return "", fmt.Errorf("storing feature descriptor: %w", err)
	}

	// Always read back (either our insert or the existing value).
	stored, _, err := GetSetting(ctx, db, SettingFeatureDescriptor)
	if err != nil {
		return "", err
	}
	return stored, nil
}
