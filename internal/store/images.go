package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/erazemk/locography/internal/model"
)

const imageColumns = `id, item_id, file_path, filename, mime, size, width, height, checksum,
	ai_caption, ai_tags, is_primary, features IS NOT NULL AS has_features, created_at`

// CreateImage stores a new image row. The first image of an item always
// becomes primary; a primary image clears the flag on the item's other images.
func CreateImage(ctx context.Context, db *sqlx.DB, img *model.ItemImage) (*model.ItemImage, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM item_images WHERE item_id = ?`, img.ItemID,
	); err != nil {
		return nil, fmt.Errorf("counting item images: %w", err)
	}

	primary := img.IsPrimary || count == 0
	if primary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE item_images SET is_primary = 0 WHERE item_id = ?`, img.ItemID,
		); err != nil {
			return nil, fmt.Errorf("clearing primary image: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO item_images (item_id, file_path, filename, mime, size, width, height,
		                          checksum, features, ai_caption, ai_tags, is_primary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ItemID, img.FilePath, img.Filename, img.MIME, img.Size, img.Width, img.Height,
		img.Checksum, encodeFeatures(img.Features), img.AICaption, img.AITags, primary,
	)
	if err != nil {
		return nil, fmt.Errorf("creating image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting image id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing image: %w", err)
	}

	return GetImage(ctx, db, id)
}

// GetImage returns an image by ID.
func GetImage(ctx context.Context, db *sqlx.DB, id int64) (*model.ItemImage, error) {
	img := &model.ItemImage{}
	err := db.GetContext(ctx, img, `SELECT `+imageColumns+` FROM item_images WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return img, nil
}

// ListItemImages returns an item's images, primary first, then oldest first.
func ListItemImages(ctx context.Context, db *sqlx.DB, itemID int64) ([]model.ItemImage, error) {
	images := []model.ItemImage{}
	err := db.SelectContext(ctx, &images,
		`SELECT `+imageColumns+` FROM item_images WHERE item_id = ?
		 ORDER BY is_primary DESC, created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	return images, nil
}

// ListAllImages returns every stored image ordered by ID.
func ListAllImages(ctx context.Context, db *sqlx.DB) ([]model.ItemImage, error) {
	images := []model.ItemImage{}
	err := db.SelectContext(ctx, &images, `SELECT `+imageColumns+` FROM item_images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

// FindImageByChecksum returns the item's image with the given checksum, if any.
func FindImageByChecksum(ctx context.Context, db *sqlx.DB, itemID int64, checksum string) (*model.ItemImage, error) {
	img := &model.ItemImage{}
	err := db.GetContext(ctx, img,
		`SELECT `+imageColumns+` FROM item_images WHERE item_id = ? AND checksum = ?
		 ORDER BY id LIMIT 1`, itemID, checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding image by checksum: %w", err)
	}
	return img, nil
}

// SetPrimaryImage marks an image as the item's primary image.
// Returns false if the image doesn't belong to the item.
func SetPrimaryImage(ctx context.Context, db *sqlx.DB, itemID, imageID int64) (bool, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := imageBelongsTo(ctx, tx, itemID, imageID)
	if err != nil || !ok {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE item_images SET is_primary = (id = ?) WHERE item_id = ?`, imageID, itemID,
	); err != nil {
		return false, fmt.Errorf("setting primary image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing primary image: %w", err)
	}
	return true, nil
}

// DeleteImage deletes one of an item's images and returns it, or nil if the
// image doesn't belong to the item. If the deleted image was primary, the
// oldest remaining image is promoted.
func DeleteImage(ctx context.Context, db *sqlx.DB, itemID, imageID int64) (*model.ItemImage, error) {
	img, err := GetImage(ctx, db, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil || img.ItemID != itemID {
		return nil, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_images WHERE id = ?`, imageID); err != nil {
		return nil, fmt.Errorf("deleting image: %w", err)
	}

	if img.IsPrimary {
		_, err := tx.ExecContext(ctx,
			`UPDATE item_images SET is_primary = 1
			 WHERE id = (SELECT id FROM item_images WHERE item_id = ?
			             ORDER BY created_at, id LIMIT 1)`, itemID)
		if err != nil {
			return nil, fmt.Errorf("promoting primary image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing image deletion: %w", err)
	}
	return img, nil
}

// SetImageFeatures replaces the stored feature vector of an image.
func SetImageFeatures(ctx context.Context, db *sqlx.DB, imageID int64, features []float32) error {
	_, err := db.ExecContext(ctx,
		`UPDATE item_images SET features = ? WHERE id = ?`,
		encodeFeatures(features), imageID,
	)
	if err != nil {
		return fmt.Errorf("setting image features: %w", err)
	}
	return nil
}

// ListImageVectors returns the feature vectors of all images that have one.
// Rows whose stored vector cannot be parsed are skipped.
func ListImageVectors(ctx context.Context, db *sqlx.DB) ([]model.ImageVector, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, features FROM item_images
		 WHERE features IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing image vectors: %w", err)
	}
	defer rows.Close()

	var vectors []model.ImageVector
	for rows.Next() {
		var v model.ImageVector
		var raw string
		if err := rows.Scan(&v.ImageID, &v.ItemID, &raw); err != nil {
			return nil, fmt.Errorf("scanning image vector: %w", err)
		}

		var vec pgvector.Vector
		if err := vec.Scan(raw); err != nil {
			slog.Warn("skipping unreadable feature vector", "image_id", v.ImageID, "error", err)
			continue
		}
		v.Features = vec.Slice()
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

// encodeFeatures returns the text form stored in the features column, or nil.
func encodeFeatures(features []float32) any {
	if len(features) == 0 {
		return nil
	}
	return pgvector.NewVector(features).String()
}

func imageBelongsTo(ctx context.Context, tx *sqlx.Tx, itemID, imageID int64) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM item_images WHERE id = ? AND item_id = ?`, imageID, itemID)
	if err != nil {
		return false, fmt.Errorf("checking image owner: %w", err)
	}
	return count > 0, nil
}
