package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tables with a self-referencing parent_id column.
const (
	tableLocations  = "locations"
	tableCategories = "categories"
)

// subtreeIDs returns root and the IDs of all its descendants.
func subtreeIDs(ctx context.Context, q sqlx.QueryerContext, table string, root int64) ([]int64, error) {
	query := fmt.Sprintf(
		`WITH RECURSIVE sub(id) AS (
		     SELECT id FROM %[1]s WHERE id = ?
		     UNION
		     SELECT t.id FROM %[1]s t JOIN sub ON t.parent_id = sub.id
		 )
		 SELECT id FROM sub`, table)

	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, query, root); err != nil {
		return nil, fmt.Errorf("walking %s tree: %w", table, err)
	}
	return ids, nil
}

// rowExists reports whether table has a row with the given ID.
func rowExists(ctx context.Context, q sqlx.QueryerContext, table string, id int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return false, fmt.Errorf("checking %s reference: %w", table, err)
	}
	return count > 0, nil
}

// checkRef returns ErrInvalidReference if id is set and missing from table.
func checkRef(ctx context.Context, q sqlx.QueryerContext, table string, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := rowExists(ctx, q, table, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d: %w", table, *id, ErrInvalidReference)
	}
	return nil
}

// checkParent validates that parent may become the parent of node.
// A nil node means the node is being created and cannot be part of a cycle.
func checkParent(ctx context.Context, q sqlx.QueryerContext, table string, node, parent *int64) error {
	if parent == nil {
		return nil
	}
	if err := checkRef(ctx, q, table, parent); err != nil {
		return err
	}
	if node == nil {
		return nil
	}

	ids, err := subtreeIDs(ctx, q, table, *node)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == *parent {
			return ErrCycle
		}
	}
	return nil
}

// hasChildren reports whether any row in table has id as its parent.
func hasChildren(ctx context.Context, q sqlx.QueryerContext, table string, id int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE parent_id = ?`, table), id)
	if err != nil {
		return false, fmt.Errorf("checking %s children: %w", table, err)
	}
	return count > 0, nil
}

// patch accumulates SET clauses for a partial UPDATE.
type patch struct {
	sets []string
	args []any
}

func (p *patch) set(column string, value any) {
	p.sets = append(p.sets, column+" = ?")
	p.args = append(p.args, value)
}

func (p *patch) empty() bool {
	return len(p.sets) == 0
}
