// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/policy"
)

// DB is the subset of *pgxpool.Pool the repositories use. pgx transactions
// and pgxmock pools satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// txKey carries the active pgx.Tx through context so nested repository
// calls join an enclosing transaction.
type txKey struct{}

// dbFrom returns the transaction stored in ctx, or the fallback.
func dbFrom(ctx context.Context, fallback DB) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return txDB{tx}
	}
	return fallback
}

// txDB adapts pgx.Tx to DB. Begin starts a nested (savepoint) transaction.
type txDB struct {
	pgx.Tx
}

func (t txDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.Tx.Begin(ctx)
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. When ctx already carries a transaction, fn joins it and the
// enclosing owner commits.
func withTx(ctx context.Context, db DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// scopeColumns whitelists the visibility keys repositories may compile into
// SQL. An unknown key aborts the query rather than silently widening it.
var scopeColumns = map[string]string{
	policy.KeyID:        "id",
	policy.KeyUnitID:    "unit_id",
	policy.KeyUserID:    "user_id",
	policy.KeyPublished: "published",
	policy.KeyType:      "type",
}

// queryFilter accumulates WHERE conditions and their positional args.
type queryFilter struct {
	conds []string
	args  []any
}

func (f *queryFilter) eq(col string, v any) {
	f.args = append(f.args, v)
	f.conds = append(f.conds, fmt.Sprintf("%s = $%d", col, len(f.args)))
}

func (f *queryFilter) anyOf(col string, ids []int64) {
	f.args = append(f.args, ids)
	f.conds = append(f.conds, fmt.Sprintf("%s = ANY($%d)", col, len(f.args)))
}

// scope compiles the visibility scope into conditions. Keys are applied in
// sorted order so generated SQL is stable.
func (f *queryFilter) scope(sc policy.Scope) error {
	where := sc.Where()
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		col, ok := scopeColumns[k]
		if !ok {
			return oops.Code("SCOPE_KEY_UNKNOWN").With("key", k).
				Errorf("unknown scope key %q", k)
		}
		cond := where[k]
		if cond.In != nil {
			f.anyOf(col, cond.In)
			continue
		}
		f.eq(col, cond.Eq)
	}
	return nil
}

// joinConds renders the bare condition list for callers that assemble the
// WHERE keyword themselves.
func joinConds(f *queryFilter) string {
	return strings.Join(f.conds, " AND ")
}

// clause renders the accumulated conditions, or "" when there are none.
func (f *queryFilter) clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// pageClause renders ordering and pagination. The order column must come
// from the repository's allowed set; anything else falls back to the
// default so callers cannot inject identifiers.
func pageClause(opts hunt.ListOptions, allowed map[string]bool, def string) string {
	col := def
	if opts.OrderBy != "" && allowed[opts.OrderBy] {
		col = opts.OrderBy
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = hunt.DefaultLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", col, dir, limit, offset)
}

// isUniqueViolation reports whether err is a unique index violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// countRows runs a COUNT(*) with the filter's conditions.
func countRows(ctx context.Context, db DB, table string, f *queryFilter) (int64, error) {
	var total int64
	err := db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+f.clause(), f.args...).Scan(&total)
	if err != nil {
		return 0, oops.With("operation", "count "+table).Wrap(err)
	}
	return total, nil
}
