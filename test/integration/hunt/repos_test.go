// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

//go:build integration

package hunt_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/policy"
)

var _ = Describe("Repositories", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)
	})

	Describe("QuestRunRepository", func() {
		It("rejects a second run for the same pair as a duplicate", func() {
			unit := createUnit(ctx, "Falcon Patrol")
			scout := createScout(ctx, unit.ID, "alva@example.com")
			quest := createQuest(ctx, unit.ID, "Spring Hunt", 60)

			run := &hunt.QuestRun{QuestID: quest.ID, UserID: scout.ID, StartTime: time.Now().UTC()}
			Expect(env.Runs.Create(ctx, run)).To(Succeed())

			again := &hunt.QuestRun{QuestID: quest.ID, UserID: scout.ID, StartTime: time.Now().UTC()}
			err := env.Runs.Create(ctx, again)
			Expect(errors.Is(err, hunt.ErrDuplicate)).To(BeTrue())
		})

		It("lists a user's runs across quests", func() {
			unit := createUnit(ctx, "Falcon Patrol")
			scout := createScout(ctx, unit.ID, "alva@example.com")
			spring := createQuest(ctx, unit.ID, "Spring Hunt", 60)
			autumn := createQuest(ctx, unit.ID, "Autumn Hunt", 90)

			for _, q := range []*hunt.Quest{spring, autumn} {
				run := &hunt.QuestRun{QuestID: q.ID, UserID: scout.ID, StartTime: time.Now().UTC()}
				Expect(env.Runs.Create(ctx, run)).To(Succeed())
			}

			runs, err := env.Runs.ListByQuestIDs(ctx, []int64{spring.ID, autumn.ID}, scout.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
		})
	})

	Describe("scope filtering", func() {
		It("hides quests outside the scoped unit", func() {
			falcons := createUnit(ctx, "Falcon Patrol")
			eagles := createUnit(ctx, "Eagle Patrol")
			mine := createQuest(ctx, falcons.ID, "Spring Hunt", 60)
			createQuest(ctx, eagles.ID, "Foreign Hunt", 30)

			var sc policy.Scope
			sc.WhereEq(policy.KeyUnitID, falcons.ID)

			quests, total, err := env.Quests.List(ctx, sc, hunt.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(quests).To(HaveLen(1))
			Expect(quests[0].ID).To(Equal(mine.ID))
		})

		It("scopes gets the same way as lists", func() {
			falcons := createUnit(ctx, "Falcon Patrol")
			eagles := createUnit(ctx, "Eagle Patrol")
			foreign := createQuest(ctx, eagles.ID, "Foreign Hunt", 30)

			var sc policy.Scope
			sc.WhereEq(policy.KeyUnitID, falcons.ID)

			_, err := env.Quests.Get(ctx, foreign.ID, sc)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("deletes", func() {
		It("removes a quest together with its instances, finds, and runs", func() {
			unit := createUnit(ctx, "Falcon Patrol")
			scout := createScout(ctx, unit.ID, "alva@example.com")
			quest := createQuest(ctx, unit.ID, "Spring Hunt", 60)
			item := createItem(ctx, "Compass", hunt.ItemTypePublic)
			inst := placeInstance(ctx, item.ID, quest, "Compass at the oak")

			run := &hunt.QuestRun{QuestID: quest.ID, UserID: scout.ID, StartTime: time.Now().UTC()}
			Expect(env.Runs.Create(ctx, run)).To(Succeed())
			fact := &hunt.FoundItem{
				ItemInstanceID: inst.ID,
				QuestID:        quest.ID,
				UserID:         scout.ID,
				Time:           time.Now().UTC(),
			}
			Expect(env.Found.Create(ctx, fact)).To(Succeed())

			Expect(env.Quests.Delete(ctx, quest.ID, policy.Scope{})).To(Succeed())

			for _, table := range []string{"quests", "item_instances", "found_items", "quest_runs"} {
				var count int
				err := env.pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&count)
				Expect(err).NotTo(HaveOccurred())
				Expect(count).To(BeZero(), "table %s should be empty", table)
			}
		})

		It("removes a user together with their runs and finds", func() {
			unit := createUnit(ctx, "Falcon Patrol")
			scout := createScout(ctx, unit.ID, "alva@example.com")
			quest := createQuest(ctx, unit.ID, "Spring Hunt", 60)
			item := createItem(ctx, "Compass", hunt.ItemTypePublic)
			inst := placeInstance(ctx, item.ID, quest, "Compass at the oak")

			run := &hunt.QuestRun{QuestID: quest.ID, UserID: scout.ID, StartTime: time.Now().UTC()}
			Expect(env.Runs.Create(ctx, run)).To(Succeed())
			fact := &hunt.FoundItem{
				ItemInstanceID: inst.ID,
				QuestID:        quest.ID,
				UserID:         scout.ID,
				Time:           time.Now().UTC(),
			}
			Expect(env.Found.Create(ctx, fact)).To(Succeed())

			Expect(env.Users.Delete(ctx, scout.ID)).To(Succeed())

			_, err := env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())

			var finds int
			err = env.pool.QueryRow(ctx, "SELECT count(*) FROM found_items").Scan(&finds)
			Expect(err).NotTo(HaveOccurred())
			Expect(finds).To(BeZero())
		})

		It("refuses to delete a quest outside the scope", func() {
			eagles := createUnit(ctx, "Eagle Patrol")
			foreign := createQuest(ctx, eagles.ID, "Foreign Hunt", 30)

			var sc policy.Scope
			sc.WhereEq(policy.KeyUnitID, eagles.ID+1)

			err := env.Quests.Delete(ctx, foreign.ID, sc)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())

			_, err = env.Quests.Get(ctx, foreign.ID, policy.Scope{})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("pagination", func() {
		It("pages and counts independently", func() {
			unit := createUnit(ctx, "Falcon Patrol")
			for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"} {
				createQuest(ctx, unit.ID, name+" Hunt", 60)
			}

			quests, total, err := env.Quests.List(ctx, policy.Scope{}, hunt.ListOptions{
				Limit:   2,
				Offset:  2,
				OrderBy: "name",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(5)))
			Expect(quests).To(HaveLen(2))
			Expect(quests[0].Name).To(Equal("Charlie Hunt"))
		})
	})
})
