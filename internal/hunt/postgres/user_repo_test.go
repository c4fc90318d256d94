// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/policy"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	unit := int64(7)

	t.Run("maps an email collision to ErrDuplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(&unit, identity.RoleScout, "new scout", "scout@example.com", "hash").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := NewUserRepository(mock)
		u := &hunt.User{UnitID: &unit, Role: identity.RoleScout, Name: "new scout",
			Email: "scout@example.com", PasswordHash: "hash"}
		require.ErrorIs(t, repo.Create(ctx, u), hunt.ErrDuplicate)
	})

	t.Run("assigns the generated id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(&unit, identity.RoleScout, "new scout", "scout@example.com", "hash").
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))

		repo := NewUserRepository(mock)
		u := &hunt.User{UnitID: &unit, Role: identity.RoleScout, Name: "new scout",
			Email: "scout@example.com", PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, int64(42), u.ID)
	})
}

func TestUserRepository_UnitMemberIDs(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id"}).AddRow(int64(5)).AddRow(int64(7)).AddRow(int64(9))
	mock.ExpectQuery(`SELECT id FROM users WHERE unit_id = \$1 ORDER BY id`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	repo := NewUserRepository(mock)
	ids, err := repo.UnitMemberIDs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7, 9}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("compiles a self-only scope", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1 AND id = \$2`).
			WithArgs(int64(42), int64(42)).
			WillReturnError(pgx.ErrNoRows)

		var sc policy.Scope
		sc.WhereEq(policy.KeyID, int64(42))

		repo := NewUserRepository(mock)
		_, err = repo.Get(ctx, 42, sc)
		require.ErrorIs(t, err, hunt.ErrNotFound)
	})
}

func TestUserRepository_Delete_Cascades(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM found_items WHERE user_id = \$1`).
		WithArgs(int64(42)).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM quest_runs WHERE user_id = \$1`).
		WithArgs(int64(42)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(42)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	repo := NewUserRepository(mock)
	require.NoError(t, repo.Delete(ctx, 42))
	require.NoError(t, mock.ExpectationsWereMet())
}
