package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Item is a cataloged physical thing.
type Item struct {
	ID             int64      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Description    string     `db:"description" json:"description,omitempty"`
	CategoryID     *int64     `db:"category_id" json:"category_id"`
	LocationID     *int64     `db:"location_id" json:"location_id"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Unit           string     `db:"unit" json:"unit,omitempty"`
	EstimatedValue *float64   `db:"estimated_value" json:"estimated_value"`
	Currency       string     `db:"currency" json:"currency"`
	Tags           Tags       `db:"tags" json:"tags"`
	AIDescription  string     `db:"ai_description" json:"ai_description,omitempty"`
	AITags         Tags       `db:"ai_tags" json:"ai_tags"`
	ModelURL       string     `db:"model_url" json:"model_url,omitempty"`
	LastSeenAt     *time.Time `db:"last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields (not always populated).
	CategoryName   *string `db:"category_name" json:"category_name,omitempty"`
	LocationName   *string `db:"location_name" json:"location_name,omitempty"`
	PrimaryImageID *int64  `db:"primary_image_id" json:"primary_image_id,omitempty"`
}

// DefaultCurrency is used when an item is created without one.
const DefaultCurrency = "USD"

// ItemInput holds the fields accepted when creating an item.
type ItemInput struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CategoryID     *int64   `json:"category_id"`
	LocationID     *int64   `json:"location_id"`
	Quantity       *int     `json:"quantity"`
	Unit           string   `json:"unit"`
	EstimatedValue *float64 `json:"estimated_value"`
	Currency       string   `json:"currency"`
	Tags           []string `json:"tags"`
	ModelURL       string   `json:"model_url"`
}

// ItemPatch holds a partial item update. Nil pointers and unset optionals
// leave the stored value untouched.
type ItemPatch struct {
	Name           *string           `json:"name"`
	Description    *string           `json:"description"`
	CategoryID     Optional[int64]   `json:"category_id"`
	LocationID     Optional[int64]   `json:"location_id"`
	Quantity       *int              `json:"quantity"`
	Unit           *string           `json:"unit"`
	EstimatedValue Optional[float64] `json:"estimated_value"`
	Currency       *string           `json:"currency"`
	Tags           *[]string         `json:"tags"`
	ModelURL       *string           `json:"model_url"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	CategoryID *int64
	LocationID *int64
	Skip       int
	Limit      int
}

// Tags is an ordered list of free-text labels stored as a JSON array.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scanning tags: unsupported type %T", src)
	}

	var out []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scanning tags: %w", err)
		}
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}
