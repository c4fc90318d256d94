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

var userOrderColumns = map[string]bool{"id": true, "name": true, "email": true, "created_at": true}

const userColumns = `id, unit_id, role, name, email, password_hash, failed_attempts, locked_until, created_at`

// UserRepository implements hunt.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ hunt.UserRepository = (*UserRepository)(nil)
var _ policy.UserDirectory = (*UserRepository)(nil)

func scanUser(row pgx.Row) (*hunt.User, error) {
	var u hunt.User
	err := row.Scan(&u.ID, &u.UnitID, &u.Role, &u.Name, &u.Email,
		&u.PasswordHash, &u.FailedAttempts, &u.LockedUntil, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Get retrieves a user matching the scope.
func (r *UserRepository) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.User, error) {
	f := &queryFilter{}
	f.eq("id", id)
	if err := f.scope(sc); err != nil {
		return nil, err
	}

	u, err := scanUser(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users`+f.clause(), f.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("id", id).Wrap(err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email for credential verification.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*hunt.User, error) {
	u, err := scanUser(dbFrom(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(hunt.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").Wrap(err)
	}
	return u, nil
}

// List returns users matching the scope plus the total match count.
func (r *UserRepository) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.User, int64, error) {
	f := &queryFilter{}
	if err := f.scope(sc); err != nil {
		return nil, 0, err
	}
	db := dbFrom(ctx, r.db)

	total, err := countRows(ctx, db, "users", f)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+userColumns+` FROM users`+f.clause()+pageClause(opts, userOrderColumns, "name"),
		f.args...)
	if err != nil {
		return nil, 0, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var users []*hunt.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, oops.With("operation", "scan user").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	return users, total, nil
}

// UnitMemberIDs returns the ids of all users in the unit.
func (r *UserRepository) UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error) {
	rows, err := dbFrom(ctx, r.db).Query(ctx,
		`SELECT id FROM users WHERE unit_id = $1 ORDER BY id`, unitID)
	if err != nil {
		return nil, oops.Code("USER_ROSTER_FAILED").With("unit_id", unitID).Wrap(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, oops.With("operation", "scan roster id").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_ROSTER_FAILED").With("unit_id", unitID).Wrap(err)
	}
	return ids, nil
}

// Create persists a new user, assigning its id. An email collision reports
// ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *hunt.User) error {
	err := dbFrom(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (unit_id, role, name, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.UnitID, u.Role, u.Name, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", u.Email).Wrap(hunt.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").Wrap(err)
	}
	return nil
}

// Update modifies an existing user, including lockout bookkeeping.
func (r *UserRepository) Update(ctx context.Context, u *hunt.User) error {
	result, err := dbFrom(ctx, r.db).Exec(ctx, `
		UPDATE users SET unit_id = $2, role = $3, name = $4, email = $5,
			password_hash = $6, failed_attempts = $7, locked_until = $8
		WHERE id = $1
	`, u.ID, u.UnitID, u.Role, u.Name, u.Email, u.PasswordHash, u.FailedAttempts, u.LockedUntil)
	if isUniqueViolation(err) {
		return oops.Code("USER_EMAIL_TAKEN").With("email", u.Email).Wrap(hunt.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", u.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", u.ID).Wrap(hunt.ErrNotFound)
	}
	return nil
}

// Delete removes a user and, in the same transaction, their quest runs and
// found records.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		if _, err := db.Exec(ctx, `DELETE FROM found_items WHERE user_id = $1`, id); err != nil {
			return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM quest_runs WHERE user_id = $1`, id); err != nil {
			return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
		}

		result, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
		}
		if result.RowsAffected() == 0 {
			return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(hunt.ErrNotFound)
		}
		return nil
	})
}
