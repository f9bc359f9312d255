package model

import "time"

// Category groups items. Categories form a tree.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	ParentID    *int64    `db:"parent_id" json:"parent_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not always populated).
	ItemCount int `db:"item_count" json:"item_count"`
}

// CategoryInput holds the fields accepted when creating a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

// CategoryPatch holds a partial category update.
type CategoryPatch struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ParentID    Optional[int64] `json:"parent_id"`
}
