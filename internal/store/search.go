package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/model"
)

// Limits for text search.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// ItemQuery describes a text search over items.
type ItemQuery struct {
	// Q is matched case-insensitively as a substring of the name,
	// description and AI description.
	Q string
	// CategoryID and LocationID match the node and all its descendants.
	CategoryID *int64
	LocationID *int64
	// Tags must all be present in the item's tags or AI tags.
	Tags  []string
	Limit int
}

// SearchItems returns items matching q ordered by name.
func SearchItems(ctx context.Context, db *sqlx.DB, q ItemQuery) ([]model.Item, error) {
	var where []string
	var args []any

	if term := strings.TrimSpace(q.Q); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = append(where, `(lower(i.name) LIKE ? ESCAPE '\'
			OR lower(i.description) LIKE ? ESCAPE '\'
			OR lower(i.ai_description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if q.CategoryID != nil {
		ids, err := subtreeIDs(ctx, db, tableCategories, *q.CategoryID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []model.Item{}, nil
		}
		clause, inArgs, err := sqlx.In("i.category_id IN (?)", ids)
		if err != nil {
			return nil, fmt.Errorf("building category filter: %w", err)
		}
		where = append(where, clause)
		args = append(args, inArgs...)
	}

	if q.LocationID != nil {
		ids, err := subtreeIDs(ctx, db, tableLocations, *q.LocationID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []model.Item{}, nil
		}
		clause, inArgs, err := sqlx.In("i.location_id IN (?)", ids)
		if err != nil {
			return nil, fmt.Errorf("building location filter: %w", err)
		}
		where = append(where, clause)
		args = append(args, inArgs...)
	}

	for _, tag := range q.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		where = append(where, `(EXISTS (SELECT 1 FROM json_each(i.tags) WHERE lower(value) = ?)
			OR EXISTS (SELECT 1 FROM json_each(i.ai_tags) WHERE lower(value) = ?))`)
		args = append(args, strings.ToLower(tag), strings.ToLower(tag))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	query := `SELECT ` + itemColumns + itemFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.name, i.id LIMIT ?"
	args = append(args, limit)

	items := []model.Item{}
	if err := db.SelectContext(ctx, &items, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
