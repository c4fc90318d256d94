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

var questOrderColumns = map[string]bool{"id": true, "name": true, "start_time": true, "created_at": true}

const questColumns = `id, unit_id, name, published, paused, show_distance, start_time, end_time, time_limit, created_at`

// QuestRepository implements hunt.QuestRepository using PostgreSQL.
type QuestRepository struct {
	db DB
}

// NewQuestRepository creates a new QuestRepository.
func NewQuestRepository(db DB) *QuestRepository {
	return &QuestRepository{db: db}
}

var _ hunt.QuestRepository = (*QuestRepository)(nil)

func scanQuest(row pgx.Row) (*hunt.Quest, error) {
	var q hunt.Quest
	err := row.Scan(&q.ID, &q.UnitID, &q.Name, &q.Published, &q.Paused,
		&q.ShowDistance, &q.StartTime, &q.EndTime, &q.TimeLimit, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Get retrieves a quest matching the scope.
func (r *QuestRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.Quest, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	q, err := scanQuest(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+questColumns+` FROM quests`+f.clause(), f.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("QUEST_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("QUEST_GET_FAILED").With("id", id).Wrap(err)
	}
	return q, nil
}

// List returns quests matching the scope plus the total match count.
func (r *QuestRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.Quest, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "quests", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+questColumns+` FROM quests`+f.clause()+pageClause(opts, questOrderColumns, "name"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("QUEST_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var quests []*hunt.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, 0, oops.With("operation", "scan quest").Wrap(err)
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("QUEST_LIST_FAILED").Wrap(err)
	}
	return quests, total, nil
}

// Create persists a new quest, assigning its id.
func (r *QuestRepository) Create(ctx context.Context, q *hunt.Quest) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO quests (unit_id, name, published, paused, show_distance, start_time, end_time, time_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, q.UnitID, q.Name, q.Published, q.Paused, q.ShowDistance,
		q.StartTime, q.EndTime, q.TimeLimit).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return oops.Code("QUEST_CREATE_FAILED").With("name", q.Name).Wrap(err)
	}
	return nil
}

// Update modifies a quest matching the scope. A quest outside the scope
// reports ErrNotFound.
func (r *QuestRepository) Update(ctx context.Context, q *hunt.Quest, sc policy.Scope) error {
	f := &queryFilter{
		conds: []string{"id = $1"},
		args: []any{q.ID, q.UnitID, q.Name, q.Published, q.Paused, q.ShowDistance,
			q.StartTime, q.EndTime, q.TimeLimit},
	}
	if err := f.scope(sc); err != nil {
		return err
	}

	result, err := dbFrom(ctx, r.db).Exec(ctx, `
		UPDATE quests SET unit_id = $2, name = $3, published = $4, paused = $5,
			show_distance = $6, start_time = $7, end_time = $8, time_limit = $9
		WHERE `+joinConds(f), f.args...)
	if err != nil {
		return oops.Code("QUEST_UPDATE_FAILED").With("id", q.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("QUEST_NOT_FOUND").With("id", q.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a quest matching the scope and, in the same transaction,
// its placements, found records and runs.
func (r *QuestRepository) Delete(ctx context.Context, id int64, sc policy.Scope) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		// Verify visibility before touching children.
		if _, err := r.Get(ctx, id, sc); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM found_items WHERE quest_id = $1`,
			`DELETE FROM quest_runs WHERE quest_id = $1`,
			`DELETE FROM item_instances WHERE quest_id = $1`,
			`DELETE FROM quests WHERE id = $1`,
		}
		for _, sql := range steps {
			if _, err := db.Exec(ctx, sql, id); err != nil {
				return oops.Code("QUEST_DELETE_FAILED").With("id", id).Wrap(err)
			}
		}
		return nil
	})
}
