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

var unitOrderColumns = map[string]bool{"id": true, "name": true, "created_at": true}

// UnitRepository implements hunt.UnitRepository using PostgreSQL.
type UnitRepository struct {
	db DB
}

// NewUnitRepository creates a new UnitRepository.
func NewUnitRepository(db DB) *UnitRepository {
	return &UnitRepository{db: db}
}

var _ hunt.UnitRepository = (*UnitRepository)(nil)

// Get retrieves a unit matching the scope.
func (r *UnitRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.Unit, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	row := dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT id, name, created_at FROM units`+f.clause(), f.args...)
	var u hunt.Unit
	err := row.Scan(&u.ID, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("UNIT_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("UNIT_GET_FAILED").With("id", id).Wrap(err)
	}
	return &u, nil
}

// List returns units matching the scope plus the total match count.
func (r *UnitRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.Unit, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "units", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, name, created_at FROM units`+f.clause()+pageClause(opts, unitOrderColumns, "name"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("UNIT_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var units []*hunt.Unit
	for rows.Next() {
		var u hunt.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, 0, oops.With("operation", "scan unit").Wrap(err)
		}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("UNIT_LIST_FAILED").Wrap(err)
	}
	return units, total, nil
}

// Create persists a new unit, assigning its id.
func (r *UnitRepository) Create(ctx context.Context, u *hunt.Unit) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO units (name) VALUES ($1)
		RETURNING id, created_at
	`, u.Name).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return oops.Code("UNIT_CREATE_FAILED").With("name", u.Name).Wrap(err)
	}
	return nil
}

// Update modifies an existing unit.
func (r *UnitRepository) Update(ctx context.Context, u *hunt.Unit) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx,
		`UPDATE units SET name = $2 WHERE id = $1`, u.ID, u.Name)
	if err != nil {
		return oops.Code("UNIT_UPDATE_FAILED").With("id", u.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("UNIT_NOT_FOUND").With("id", u.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a unit and, in the same transaction, its quests with
// their placements, runs and found records, and its users with theirs.
func (r *UnitRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		steps := []string{
			`DELETE FROM found_items WHERE quest_id IN (SELECT id FROM quests WHERE unit_id = $1)`,
			`DELETE FROM found_items WHERE user_id IN (SELECT id FROM users WHERE unit_id = $1)`,
			`DELETE FROM quest_runs WHERE quest_id IN (SELECT id FROM quests WHERE unit_id = $1)`,
			`DELETE FROM quest_runs WHERE user_id IN (SELECT id FROM users WHERE unit_id = $1)`,
			`DELETE FROM item_instances WHERE unit_id = $1`,
			`DELETE FROM quests WHERE unit_id = $1`,
			`DELETE FROM users WHERE unit_id = $1`,
		}
		for _, sql := range steps {
			if _, err := db.Exec(ctx, sql, id); err != nil {
				return oops.Code("UNIT_DELETE_FAILED").With("id", id).Wrap(err)
			}
		}

		result, err := db.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
		if err != nil {
			return oops.Code("UNIT_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if result.RowsAffected() == 0 {
			return oops.Code("UNIT_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
		}
		return nil
	})
}
