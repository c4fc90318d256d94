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

var foundOrderColumns = map[string]bool{"id": true, "found_at": true}

// FoundItemRepository implements hunt.FoundItemRepository using PostgreSQL.
// Rows are append-only facts; duplicates for the same (instance, user) are
// legitimate and preserved.
type FoundItemRepository struct {
	db DB
}

// NewFoundItemRepository creates a new FoundItemRepository.
func NewFoundItemRepository(db DB) *FoundItemRepository {
	return &FoundItemRepository{db: db}
}

var _ hunt.FoundItemRepository = (*FoundItemRepository)(nil)

// Get retrieves a found record matching the scope.
func (r *FoundItemRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.FoundItem, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	row := dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT id, item_instance_id, quest_id, user_id, found_at FROM found_items`+f.clause(),
		f.args...)
	var fi hunt.FoundItem
	err := row.Scan(&fi.ID, &fi.ItemInstanceID, &fi.QuestID, &fi.UserID, &fi.Time)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("FOUND_ITEM_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("FOUND_ITEM_GET_FAILED").With("id", id).Wrap(err)
	}
	return &fi, nil
}

// List returns found records matching the scope plus the total match count.
func (r *FoundItemRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.FoundItem, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "found_items", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, item_instance_id, quest_id, user_id, found_at FROM found_items`+
			f.clause()+pageClause(opts, foundOrderColumns, "found_at"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("FOUND_ITEM_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var found []*hunt.FoundItem
	for rows.Next() {
		var fi hunt.FoundItem
		if err := rows.Scan(&fi.ID, &fi.ItemInstanceID, &fi.QuestID, &fi.UserID, &fi.Time); err != nil {
			return nil, 0, oops.With("operation", "scan found item").Wrap(err)
		}
		found = append(found, &fi)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("FOUND_ITEM_LIST_FAILED").Wrap(err)
	}
	return found, total, nil
}

// FoundInstanceIDs returns the distinct instance ids the user has reported
// found within the quest.
func (r *FoundItemRepository) FoundInstanceIDs(ctx context.Context, questID, userID int64) ([]int64, error) {
	rows, err := dbFrom(ctx, r.db).Query(ctx, `
		SELECT DISTINCT item_instance_id FROM found_items
		WHERE quest_id = $1 AND user_id = $2
		ORDER BY item_instance_id
	`, questID, userID)
	if err != nil {
		return nil, oops.Code("FOUND_ITEM_LIST_FAILED").
			With("quest_id", questID).With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, oops.With("operation", "scan found instance id").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("FOUND_ITEM_LIST_FAILED").
			With("quest_id", questID).With("user_id", userID).Wrap(err)
	}
	return ids, nil
}

// Create persists a new found record, assigning its id. A zero Time lets
// the database clock stamp the row.
func (r *FoundItemRepository) Create(ctx context.Context, fi *hunt.FoundItem) error {
	var err error
	db := dbFrom(ctx, r.db)
	if fi.Time.IsZero() {
		err = db.QueryRow(ctx, `
			INSERT INTO found_items (item_instance_id, quest_id, user_id)
			VALUES ($1, $2, $3)
			RETURNING id, found_at
		`, fi.ItemInstanceID, fi.QuestID, fi.UserID).Scan(&fi.ID, &fi.Time)
	} else {
		err = db.QueryRow(ctx, `
			INSERT INTO found_items (item_instance_id, quest_id, user_id, found_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, fi.ItemInstanceID, fi.QuestID, fi.UserID, fi.Time).Scan(&fi.ID)
	}
	if err != nil {
		return oops.Code("FOUND_ITEM_CREATE_FAILED").
			With("item_instance_id", fi.ItemInstanceID).With("user_id", fi.UserID).Wrap(err)
	}
	return nil
}

// Delete removes a found record.
func (r *FoundItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx, `DELETE FROM found_items WHERE id = $1`, id)
	if err != nil {
		return oops.Code("FOUND_ITEM_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("FOUND_ITEM_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	return nil
}
