// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

//go:build integration

package hunt_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/policy"
)

// stepClock is a mutable clock so specs can jump past a quest time limit
// without backdating rows.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ = Describe("Progression", func() {
	var (
		ctx    context.Context
		clock  *stepClock
		engine *hunt.Progression

		unit  *hunt.Unit
		scout *hunt.User
		ident identity.Identity
		quest *hunt.Quest
	)

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)

		clock = &stepClock{now: time.Now().UTC().Truncate(time.Microsecond)}
		engine = hunt.NewProgression(hunt.ProgressionConfig{
			Quests:    env.Quests,
			Runs:      env.Runs,
			Instances: env.Instances,
			Found:     env.Found,
			Clock:     clock,
		})

		unit = createUnit(ctx, "Falcon Patrol")
		scout = createScout(ctx, unit.ID, "alva@example.com")
		quest = createQuest(ctx, unit.ID, "Spring Hunt", 60)

		var err error
		ident, err = scout.Identity()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("StartOrResume", func() {
		It("creates a run on first start", func() {
			result, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(result.StartTime).NotTo(BeNil())
			Expect(*result.TimeLimit).To(Equal(60))

			run, err := env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Completed).To(BeFalse())
			Expect(run.FinishTime).To(BeNil())
		})

		It("resumes without resetting the start time", func() {
			first, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())

			clock.Advance(10 * time.Minute)

			second, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Success).To(BeTrue())
			Expect(*second.StartTime).To(BeTemporally("==", *first.StartTime))
		})

		It("reports an expired run as unsuccessful but keeps it", func() {
			_, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())

			clock.Advance(61 * time.Minute)

			result, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.StartTime).NotTo(BeNil())

			_, err = env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("soft-fails a paused quest without creating a run", func() {
			quest.Paused = true
			Expect(env.Quests.Update(ctx, quest, policy.Scope{})).To(Succeed())

			result, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.StartTime).To(BeNil())

			_, err = env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())
		})

		It("hides quests of other units as not found", func() {
			other := createUnit(ctx, "Eagle Patrol")
			foreign := createQuest(ctx, other.ID, "Foreign Hunt", 30)

			_, err := engine.StartOrResume(ctx, ident, foreign.ID)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())
		})

		It("creates exactly one run under concurrent first starts", func() {
			const workers = 8

			var wg sync.WaitGroup
			starts := make([]time.Time, workers)
			errs := make([]error, workers)

			for i := range workers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					result, err := engine.StartOrResume(ctx, ident, quest.ID)
					errs[i] = err
					if err == nil && result.StartTime != nil {
						starts[i] = *result.StartTime
					}
				}(i)
			}
			wg.Wait()

			for i := range workers {
				Expect(errs[i]).NotTo(HaveOccurred())
				Expect(starts[i]).To(BeTemporally("==", starts[0]))
			}

			var count int
			err := env.pool.QueryRow(ctx,
				"SELECT count(*) FROM quest_runs WHERE quest_id = $1 AND user_id = $2",
				quest.ID, scout.ID).Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("ReportFound", func() {
		var (
			compass *hunt.ItemInstance
			lantern *hunt.ItemInstance
		)

		BeforeEach(func() {
			item := createItem(ctx, "Compass", hunt.ItemTypePublic)
			compass = placeInstance(ctx, item.ID, quest, "Compass at the oak")
			lantern = placeInstance(ctx, item.ID, quest, "Lantern by the creek")

			_, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("records the find and completes on the last instance", func() {
			first, err := engine.ReportFound(ctx, scout.ID, compass.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.QuestComplete).To(BeFalse())

			last, err := engine.ReportFound(ctx, scout.ID, lantern.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(last.QuestComplete).To(BeTrue())

			run, err := env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Completed).To(BeTrue())
			Expect(run.FinishTime).NotTo(BeNil())
		})

		It("accepts duplicate reports without completing early", func() {
			for range 3 {
				result, err := engine.ReportFound(ctx, scout.ID, compass.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.QuestComplete).To(BeFalse())
			}

			var facts int
			err := env.pool.QueryRow(ctx,
				"SELECT count(*) FROM found_items WHERE item_instance_id = $1 AND user_id = $2",
				compass.ID, scout.ID).Scan(&facts)
			Expect(err).NotTo(HaveOccurred())
			Expect(facts).To(Equal(3))
		})

		It("rejects unknown instances", func() {
			_, err := engine.ReportFound(ctx, scout.ID, 99999)
			Expect(errors.Is(err, hunt.ErrNotFound)).To(BeTrue())
		})

		It("keeps a completed run completed", func() {
			_, err := engine.ReportFound(ctx, scout.ID, compass.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.ReportFound(ctx, scout.ID, lantern.ID)
			Expect(err).NotTo(HaveOccurred())

			run, err := env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(err).NotTo(HaveOccurred())
			finish := *run.FinishTime

			clock.Advance(5 * time.Minute)
			Expect(engine.CheckCompletion(ctx, quest.ID, scout.ID)).To(BeTrue())

			run, err = env.Runs.FindByQuestAndUser(ctx, quest.ID, scout.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*run.FinishTime).To(BeTemporally("==", finish))
		})
	})

	Describe("CheckCompletion", func() {
		It("is false for a user who never started", func() {
			Expect(engine.CheckCompletion(ctx, quest.ID, scout.ID)).To(BeFalse())
		})

		It("is false while instances remain unfound", func() {
			item := createItem(ctx, "Map", hunt.ItemTypePrivate)
			placeInstance(ctx, item.ID, quest, "Map under the bridge")

			_, err := engine.StartOrResume(ctx, ident, quest.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(engine.CheckCompletion(ctx, quest.ID, scout.ID)).To(BeFalse())
		})
	})
})
