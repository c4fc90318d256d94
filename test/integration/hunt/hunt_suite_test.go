// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

//go:build integration

// Package hunt_test runs the hunt domain against a real PostgreSQL.
package hunt_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trailhead/trailhead/internal/hunt"
	huntpg "github.com/trailhead/trailhead/internal/hunt/postgres"
	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/store"
)

func TestHunt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hunt Domain Integration Suite")
}

// testEnv holds all resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	container testcontainers.Container

	Units     *huntpg.UnitRepository
	Users     *huntpg.UserRepository
	Items     *huntpg.ItemRepository
	Quests    *huntpg.QuestRepository
	Instances *huntpg.ItemInstanceRepository
	Found     *huntpg.FoundItemRepository
	Runs      *huntpg.QuestRunRepository
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupHuntTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupHuntTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("trailhead_test"),
		postgres.WithUsername("trailhead"),
		postgres.WithPassword("trailhead"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr, store.DefaultPoolConfig())
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &testEnv{
		ctx:       ctx,
		pool:      pool,
		container: container,
		Units:     huntpg.NewUnitRepository(pool),
		Users:     huntpg.NewUserRepository(pool),
		Items:     huntpg.NewItemRepository(pool),
		Quests:    huntpg.NewQuestRepository(pool),
		Instances: huntpg.NewItemInstanceRepository(pool),
		Found:     huntpg.NewFoundItemRepository(pool),
		Runs:      huntpg.NewQuestRunRepository(pool),
	}, nil
}

func (e *testEnv) cleanup() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(context.Background())
	}
}

// resetTables wipes all domain rows between specs. Child tables go first
// since the schema has no ON DELETE CASCADE on domain foreign keys.
func resetTables(ctx context.Context) {
	_, err := env.pool.Exec(ctx, `
		TRUNCATE found_items, quest_runs, item_instances, quests,
		         sessions, users, items, units
		RESTART IDENTITY CASCADE`)
	Expect(err).NotTo(HaveOccurred())
}

// Fixture helpers. Each persists a row and returns the entity with its id.

func createUnit(ctx context.Context, name string) *hunt.Unit {
	u := &hunt.Unit{Name: name}
	Expect(env.Units.Create(ctx, u)).To(Succeed())
	return u
}

func createScout(ctx context.Context, unitID int64, email string) *hunt.User {
	u := &hunt.User{
		UnitID:       &unitID,
		Role:         identity.RoleScout,
		Name:         "Scout " + email,
		Email:        email,
		PasswordHash: "$argon2id$test",
	}
	Expect(env.Users.Create(ctx, u)).To(Succeed())
	return u
}

func createQuest(ctx context.Context, unitID int64, name string, timeLimit int) *hunt.Quest {
	q := &hunt.Quest{
		UnitID:    unitID,
		Name:      name,
		Published: true,
		TimeLimit: timeLimit,
	}
	Expect(env.Quests.Create(ctx, q)).To(Succeed())
	return q
}

func createItem(ctx context.Context, name string, typ hunt.ItemType) *hunt.Item {
	it := &hunt.Item{Name: name, Description: "integration fixture", Type: typ}
	Expect(env.Items.Create(ctx, it)).To(Succeed())
	return it
}

func placeInstance(ctx context.Context, itemID int64, quest *hunt.Quest, name string) *hunt.ItemInstance {
	inst := &hunt.ItemInstance{
		ItemID:      itemID,
		QuestID:     quest.ID,
		UnitID:      quest.UnitID,
		Name:        name,
		Description: "placed for integration tests",
		Location:    &hunt.GeoPoint{Lon: 9.18, Lat: 48.78},
	}
	Expect(env.Instances.Create(ctx, inst)).To(Succeed())
	return inst
}
