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

var instanceOrderColumns = map[string]bool{"id": true, "name": true, "created_at": true}

const instanceColumns = `id, item_id, quest_id, unit_id, name, description, location, created_at`

// ItemInstanceRepository implements hunt.ItemInstanceRepository using
// PostgreSQL. Locations are stored as jsonb.
type ItemInstanceRepository struct {
	db DB
}

// NewItemInstanceRepository creates a new ItemInstanceRepository.
func NewItemInstanceRepository(db DB) *ItemInstanceRepository {
	return &ItemInstanceRepository{db: db}
}

var _ hunt.ItemInstanceRepository = (*ItemInstanceRepository)(nil)

func scanInstance(row pgx.Row) (*hunt.ItemInstance, error) {
	var inst hunt.ItemInstance
	err := row.Scan(&inst.ID, &inst.ItemID, &inst.QuestID, &inst.UnitID,
		&inst.Name, &inst.Description, &inst.Location, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Get retrieves a placement matching the scope.
func (r *ItemInstanceRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.ItemInstance, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	inst, err := scanInstance(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+instanceColumns+` FROM item_instances`+f.clause(), f.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_INSTANCE_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_INSTANCE_GET_FAILED").With("id", id).Wrap(err)
	}
	return inst, nil
}

// List returns placements matching the scope plus the total match count.
func (r *ItemInstanceRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.ItemInstance, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "item_instances", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+instanceColumns+` FROM item_instances`+f.clause()+pageClause(opts, instanceOrderColumns, "id"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("ITEM_INSTANCE_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var instances []*hunt.ItemInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, 0, oops.With("operation", "scan item instance").Wrap(err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("ITEM_INSTANCE_LIST_FAILED").Wrap(err)
	}
	return instances, total, nil
}

// IDsByQuest returns the ids of all instances placed in the quest.
func (r *ItemInstanceRepository) IDsByQuest(ctx context.Context, questID int64) ([]int64, error) {
	rows, err := dbFrom(ctx, r.db).Query(ctx,
		`SELECT id FROM item_instances WHERE quest_id = $1 ORDER BY id`, questID)
	if err != nil {
		return nil, oops.Code("ITEM_INSTANCE_LIST_FAILED").With("quest_id", questID).Wrap(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, oops.With("operation", "scan instance id").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ITEM_INSTANCE_LIST_FAILED").With("quest_id", questID).Wrap(err)
	}
	return ids, nil
}

// Create persists a new placement, assigning its id.
func (r *ItemInstanceRepository) Create(ctx context.Context, inst *hunt.ItemInstance) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO item_instances (item_id, quest_id, unit_id, name, description, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, inst.ItemID, inst.QuestID, inst.UnitID, inst.Name, inst.Description,
		inst.Location).Scan(&inst.ID, &inst.CreatedAt)
	if err != nil {
		return oops.Code("ITEM_INSTANCE_CREATE_FAILED").
			With("item_id", inst.ItemID).With("quest_id", inst.QuestID).Wrap(err)
	}
	return nil
}

// Update modifies a placement matching the scope.
func (r *ItemInstanceRepository) Update(ctx context.Context, inst *hunt.ItemInstance, sc policy.Scope) error {
	f := &queryFilter{
		conds: []string{"id = $1"},
		args: []any{inst.ID, inst.ItemID, inst.QuestID, inst.UnitID,
			inst.Name, inst.Description, inst.Location},
	}
	if err := f.scope(sc); err != nil {
		return err
	}

	result, err := dbFrom(ctx, r.db).Exec(ctx, `
		UPDATE item_instances SET item_id = $2, quest_id = $3, unit_id = $4,
			name = $5, description = $6, location = $7
		WHERE `+joinConds(f), f.args...)
	if err != nil {
		return oops.Code("ITEM_INSTANCE_UPDATE_FAILED").With("id", inst.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ITEM_INSTANCE_NOT_FOUND").With("id", inst.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a placement matching the scope and, in the same
// transaction, its found records.
func (r *ItemInstanceRepository) Delete(ctx context.Context, id int64, sc policy.Scope) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		if _, err := r.Get(ctx, id, sc); err != nil {
			return err
		}

		if _, err := db.Exec(ctx, `DELETE FROM found_items WHERE item_instance_id = $1`, id); err != nil {
			return oops.Code("ITEM_INSTANCE_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM item_instances WHERE id = $1`, id); err != nil {
			return oops.Code("ITEM_INSTANCE_DELETE_FAILED").With("id", id).Wrap(err)
		}
		return nil
	})
}
