// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/policy"
)

var itemOrderColumns = map[string]bool{"id": true, "name": true, "type": true, "created_at": true}

// ItemRepository implements hunt.ItemRepository using PostgreSQL.
type ItemRepository struct {
	db DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db DB) *ItemRepository {
	return &ItemRepository{db: db}
}

var _ hunt.ItemRepository = (*ItemRepository)(nil)

// Get retrieves a catalog item matching the scope.
func (r *ItemRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.Item, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	row := dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT id, name, description, type, created_at FROM items`+f.clause(), f.args...)
	var it hunt.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Type, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").With("id", id).Wrap(err)
	}
	return &it, nil
}

// List returns catalog items matching the scope plus the total match count.
func (r *ItemRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.Item, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "items", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, name, description, type, created_at FROM items`+f.clause()+pageClause(opts, itemOrderColumns, "name"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var items []*hunt.Item
	for rows.Next() {
		var it hunt.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Type, &it.CreatedAt); err != nil {
			return nil, 0, oops.With("operation", "scan item").Wrap(err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	return items, total, nil
}

// Create persists a new catalog item, assigning its id.
func (r *ItemRepository) Create(ctx context.Context, it *hunt.Item) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO items (name, description, type) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, it.Name, it.Description, it.Type).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return oops.Code("ITEM_CREATE_FAILED").With("name", it.Name).Wrap(err)
	}
	return nil
}

// Update modifies an existing catalog item.
func (r *ItemRepository) Update(ctx context.Context, it *hunt.Item) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx,
		`UPDATE items SET name = $2, description = $3, type = $4 WHERE id = $1`,
		it.ID, it.Name, it.Description, it.Type)
	if err != nil {
		return oops.Code("ITEM_UPDATE_FAILED").With("id", it.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ITEM_NOT_FOUND").With("id", it.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a catalog item and, in the same transaction, its
// placements and their found records.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		if _, err := db.Exec(ctx, `
			DELETE FROM found_items
			WHERE item_instance_id IN (SELECT id FROM item_instances WHERE item_id = $1)
		`, id); err != nil {
			return oops.Code("ITEM_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM item_instances WHERE item_id = $1`, id); err != nil {
			return oops.Code("ITEM_DELETE_FAILED").With("id", id).Wrap(err)
		}

		result, err := db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return oops.Code("ITEM_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if result.RowsAffected() == 0 {
			return oops.Code("ITEM_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
		}
		return nil
	})
}
