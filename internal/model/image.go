package model

import "time"

// ItemImage is a photo attached to an item.
type ItemImage struct {
	ID          int64     `db:"id" json:"id"`
	ItemID      int64     `db:"item_id" json:"item_id"`
	FilePath    string    `db:"file_path" json:"file_path"`
	Filename    string    `db:"filename" json:"filename,omitempty"`
	MIME        string    `db:"mime" json:"mime"`
	Size        int64     `db:"size" json:"size"`
	Width       int       `db:"width" json:"width"`
	Height      int       `db:"height" json:"height"`
	Checksum    string    `db:"checksum" json:"checksum"`
	AICaption   string    `db:"ai_caption" json:"ai_caption,omitempty"`
	AITags      Tags      `db:"ai_tags" json:"ai_tags"`
	IsPrimary   bool      `db:"is_primary" json:"is_primary"`
	HasFeatures bool      `db:"has_features" json:"has_features"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Features is only populated on insert.
	Features []float32 `db:"-" json:"-"`
}

// ImageVector is the feature vector of one stored image.
type ImageVector struct {
	ImageID  int64
	ItemID   int64
	Features []float32
}
