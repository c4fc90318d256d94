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

var runOrderColumns = map[string]bool{"id": true, "start_time": true}

const runColumns = `id, quest_id, user_id, start_time, finish_time, completed`

// QuestRunRepository implements hunt.QuestRunRepository using PostgreSQL.
// The quest_runs table carries a unique index on (quest_id, user_id); a
// violated insert surfaces as hunt.ErrDuplicate so callers can adopt the
// winning row.
type QuestRunRepository struct {
	db DB
}

// NewQuestRunRepository creates a new QuestRunRepository.
func NewQuestRunRepository(db DB) *QuestRunRepository {
	return &QuestRunRepository{db: db}
}

var _ hunt.QuestRunRepository = (*QuestRunRepository)(nil)

func scanRun(row pgx.Row) (*hunt.QuestRun, error) {
	var run hunt.QuestRun
	err := row.Scan(&run.ID, &run.QuestID, &run.UserID, &run.StartTime,
		&run.FinishTime, &run.Completed)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Get retrieves a run matching the scope.
func (r *QuestRunRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.QuestRun, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	run, err := scanRun(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+runColumns+` FROM quest_runs`+f.clause(), f.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("QUEST_RUN_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("QUEST_RUN_GET_FAILED").With("id", id).Wrap(err)
	}
	return run, nil
}

// FindByQuestAndUser retrieves the run for the pair, or ErrNotFound.
func (r *QuestRunRepository) FindByQuestAndUser(ctx context.Context, questID, userID int64) (*hunt.QuestRun, error) {
	run, err := scanRun(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+runColumns+` FROM quest_runs WHERE quest_id = $1 AND user_id = $2`,
		questID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("QUEST_RUN_NOT_FOUND").
			With("quest_id", questID).With("user_id", userID).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("QUEST_RUN_GET_FAILED").
			With("quest_id", questID).With("user_id", userID).Wrap(err)
	}
	return run, nil
}

// List returns runs matching the scope plus the total match count.
func (r *QuestRunRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.QuestRun, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "quest_runs", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+runColumns+` FROM quest_runs`+f.clause()+pageClause(opts, runOrderColumns, "start_time"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("QUEST_RUN_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var runs []*hunt.QuestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, oops.With("operation", "scan quest run").Wrap(err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("QUEST_RUN_LIST_FAILED").Wrap(err)
	}
	return runs, total, nil
}

// ListByQuestIDs returns the user's runs for the given quests.
func (r *QuestRunRepository) ListByQuestIDs(ctx context.Context, questIDs []int64, userID int64) ([]*hunt.QuestRun, error) {
	if len(questIDs) == 0 {
		return nil, nil
	}
	rows, err := dbFrom(ctx, r.db).Query(ctx,
		`SELECT `+runColumns+` FROM quest_runs WHERE quest_id = ANY($1) AND user_id = $2`,
		questIDs, userID)
	if err != nil {
		return nil, oops.Code("QUEST_RUN_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	var runs []*hunt.QuestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, oops.With("operation", "scan quest run").Wrap(err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("QUEST_RUN_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return runs, nil
}

// Create persists a new run, assigning its id. A second run for the same
// (quest, user) pair reports ErrDuplicate.
func (r *QuestRunRepository) Create(ctx context.Context, run *hunt.QuestRun) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO quest_runs (quest_id, user_id, start_time, finish_time, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, run.QuestID, run.UserID, run.StartTime, run.FinishTime, run.Completed).Scan(&run.ID)
	if isUniqueViolation(err) {
		return oops.Code("QUEST_RUN_EXISTS").
			With("quest_id", run.QuestID).With("user_id", run.UserID).Wrap(hunt.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("QUEST_RUN_CREATE_FAILED").
			With("quest_id", run.QuestID).With("user_id", run.UserID).Wrap(err)
	}
	return nil
}

// Update modifies an existing run.
func (r *QuestRunRepository) Update(ctx context.Context, run *hunt.QuestRun) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx, `
		UPDATE quest_runs SET start_time = $2, finish_time = $3, completed = $4
		WHERE id = $1
	`, run.ID, run.StartTime, run.FinishTime, run.Completed)
	if err != nil {
		return oops.Code("QUEST_RUN_UPDATE_FAILED").With("id", run.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("QUEST_RUN_NOT_FOUND").With("id", run.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a run.
func (r *QuestRunRepository) Delete(ctx context.Context, id int64) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx, `DELETE FROM quest_runs WHERE id = $1`, id)
	if err != nil {
		return oops.Code("QUEST_RUN_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("QUEST_RUN_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	return nil
}
