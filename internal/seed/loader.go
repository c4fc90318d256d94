// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/trailhead/trailhead/internal/auth"
	huntpg "github.com/trailhead/trailhead/internal/hunt/postgres"
	"github.com/trailhead/trailhead/internal/identity"
)

// Loader applies a seed file to the database. Every record is looked up
// before insert (or caught on its unique index), so re-running the same
// file never creates duplicates.
type Loader struct {
	db     huntpg.DB
	hasher auth.PasswordHasher
}

// NewLoader creates a Loader.
func NewLoader(db huntpg.DB, hasher auth.PasswordHasher) *Loader {
	return &Loader{db: db, hasher: hasher}
}

// Summary reports what Apply did.
type Summary struct {
	UnitsCreated  int
	UsersCreated  int
	ItemsCreated  int
	QuestsCreated int
	Skipped       int
}

// Apply inserts the seed data, skipping records that already exist.
func (l *Loader) Apply(ctx context.Context, f *File) (*Summary, error) {
	if err := f.Validate(); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}

	sum := &Summary{}

	unitIDs := make(map[string]int64, len(f.Units))
	for _, u := range f.Units {
		id, created, err := l.ensureUnit(ctx, u.Name)
		if err != nil {
			return nil, err
		}
		unitIDs[u.Name] = id
		if created {
			sum.UnitsCreated++
		} else {
			sum.Skipped++
		}
	}

	for _, u := range f.Users {
		created, err := l.ensureUser(ctx, u, unitIDs)
		if err != nil {
			return nil, err
		}
		if created {
			sum.UsersCreated++
		} else {
			sum.Skipped++
		}
	}

	for _, it := range f.Items {
		created, err := l.ensureItem(ctx, it)
		if err != nil {
			return nil, err
		}
		if created {
			sum.ItemsCreated++
		} else {
			sum.Skipped++
		}
	}

	for _, q := range f.Quests {
		created, err := l.ensureQuest(ctx, q, unitIDs[q.Unit])
		if err != nil {
			return nil, err
		}
		if created {
			sum.QuestsCreated++
		} else {
			sum.Skipped++
		}
	}

	return sum, nil
}

func (l *Loader) ensureUnit(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := l.db.QueryRow(ctx, `SELECT id FROM units WHERE name = $1`, name).Scan(&id)
	if err == nil {
		slog.Debug("seed unit exists", "name", name, "id", id)
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, oops.Code("SEED_FAILED").With("unit", name).Wrap(err)
	}

	err = l.db.QueryRow(ctx, `
		INSERT INTO units (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, false, oops.Code("SEED_FAILED").With("unit", name).Wrap(err)
	}
	return id, true, nil
}

func (l *Loader) ensureUser(ctx context.Context, u User, unitIDs map[string]int64) (bool, error) {
	hash, err := l.hasher.Hash(u.Password)
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("user", u.Email).Wrap(err)
	}

	var unitID *int64
	if u.Unit != "" {
		id := unitIDs[u.Unit]
		unitID = &id
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO users (unit_id, role, name, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, unitID, identity.Role(u.Role), u.Name, u.Email, hash)
	if err != nil {
		// The email unique index caught a prior run.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			slog.Debug("seed user exists", "email", u.Email)
			return false, nil
		}
		return false, oops.Code("SEED_FAILED").With("user", u.Email).Wrap(err)
	}
	return true, nil
}

func (l *Loader) ensureItem(ctx context.Context, it Item) (bool, error) {
	var id int64
	err := l.db.QueryRow(ctx, `SELECT id FROM items WHERE name = $1`, it.Name).Scan(&id)
	if err == nil {
		slog.Debug("seed item exists", "name", it.Name, "id", id)
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, oops.Code("SEED_FAILED").With("item", it.Name).Wrap(err)
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO items (name, description, type) VALUES ($1, $2, $3)
	`, it.Name, it.Description, it.Type)
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("item", it.Name).Wrap(err)
	}
	return true, nil
}

func (l *Loader) ensureQuest(ctx context.Context, q Quest, unitID int64) (bool, error) {
	var id int64
	err := l.db.QueryRow(ctx, `
		SELECT id FROM quests WHERE name = $1 AND unit_id = $2
	`, q.Name, unitID).Scan(&id)
	if err == nil {
		slog.Debug("seed quest exists", "name", q.Name, "id", id)
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, oops.Code("SEED_FAILED").With("quest", q.Name).Wrap(err)
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO quests (unit_id, name, published, paused, time_limit)
		VALUES ($1, $2, $3, $4, $5)
	`, unitID, q.Name, q.Published, q.Paused, q.TimeLimit)
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("quest", q.Name).Wrap(err)
	}
	return true, nil
}
