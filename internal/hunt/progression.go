// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/trailhead/trailhead/internal/identity"
	"github.com/trailhead/trailhead/internal/policy"
	"github.com/trailhead/trailhead/pkg/errutil"
)

// findOrCreate retry policy for quest run creation races.
const (
	runCreateRetries  = 3
	runCreateInterval = 25 * time.Millisecond
)

// StartResult is the outcome of a start/resume attempt. Success false with
// nil times means the quest is disabled; success false with times set means
// the run exists but may no longer be continued (time limit elapsed or run
// already completed). Neither case is an error.
type StartResult struct {
	Success   bool
	StartTime *time.Time
	TimeLimit *int
}

// FoundResult is the outcome of an accepted found-item report.
type FoundResult struct {
	ID            int64
	Time          time.Time
	QuestComplete bool
}

// Progression drives the per-(quest, user) run state machine:
// NotStarted -> Running -> Completed, with Running -> Running on resume and
// no transition out of Completed.
type Progression struct {
	quests    QuestRepository
	runs      QuestRunRepository
	instances ItemInstanceRepository
	found     FoundItemRepository
	clock     Clock
	logger    *slog.Logger

	locks runLocks
}

// ProgressionConfig holds dependencies for a Progression engine.
type ProgressionConfig struct {
	Quests    QuestRepository
	Runs      QuestRunRepository
	Instances ItemInstanceRepository
	Found     FoundItemRepository
	Clock     Clock        // defaults to SystemClock
	Logger    *slog.Logger // defaults to slog.Default()
}

// NewProgression creates a Progression engine.
func NewProgression(cfg ProgressionConfig) *Progression {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Progression{
		quests:    cfg.Quests,
		runs:      cfg.Runs,
		instances: cfg.Instances,
		found:     cfg.Found,
		clock:     clock,
		logger:    logger,
	}
}

// StartOrResume starts the caller's run of the quest, or resumes an
// existing one. The quest lookup is scoped to the caller's unit, so a quest
// outside it reports ErrNotFound rather than revealing its existence.
//
// The run's start time is never reset: the timer is wall clock from first
// start, and a run whose limit has elapsed can never succeed again.
func (p *Progression) StartOrResume(ctx context.Context, ident identity.Identity, questID int64) (StartResult, error) {
	if questID <= 0 {
		return StartResult{}, oops.Code("BAD_REQUEST").With("field", "quest_id").Wrap(ErrBadRequest)
	}

	var sc policy.Scope
	if unitID, ok := ident.Unit(); ok {
		sc.WhereEq(policy.KeyUnitID, unitID)
	}
	quest, err := p.quests.Get(ctx, questID, sc)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StartResult{}, oops.Code("QUEST_NOT_FOUND").With("quest_id", questID).Wrap(ErrNotFound)
		}
		return StartResult{}, oops.Code("QUEST_START_FAILED").With("quest_id", questID).Wrap(err)
	}

	// A disabled quest is a soft failure: no run is created or touched.
	if !quest.Playable() {
		questStarts.WithLabelValues(startOutcomeDisabled).Inc()
		return StartResult{Success: false}, nil
	}

	unlock := p.locks.lock(runKey{questID: questID, userID: ident.UserID})
	defer unlock()

	run, created, err := p.findOrCreateRun(ctx, questID, ident.UserID)
	if err != nil {
		return StartResult{}, oops.Code("QUEST_START_FAILED").
			With("quest_id", questID).With("user_id", ident.UserID).Wrap(err)
	}

	elapsed := p.clock.Now().Sub(run.StartTime).Minutes()
	success := elapsed <= float64(quest.TimeLimit) && !run.Completed

	switch {
	case created:
		questStarts.WithLabelValues(startOutcomeStarted).Inc()
	case run.Completed:
		questStarts.WithLabelValues(startOutcomeComplete).Inc()
	case !success:
		questStarts.WithLabelValues(startOutcomeExpired).Inc()
	default:
		questStarts.WithLabelValues(startOutcomeResumed).Inc()
	}

	startTime := run.StartTime
	timeLimit := quest.TimeLimit
	return StartResult{Success: success, StartTime: &startTime, TimeLimit: &timeLimit}, nil
}

// findOrCreateRun returns the pair's run, creating it on first start.
// Concurrent first starts race on the store's (quest_id, user_id) unique
// index; the loser retries the read and adopts the winner's row, so at most
// one run ever exists per pair.
func (p *Progression) findOrCreateRun(ctx context.Context, questID, userID int64) (*QuestRun, bool, error) {
	var run *QuestRun
	created := false

	backoff := retry.WithMaxRetries(runCreateRetries, retry.NewConstant(runCreateInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		existing, err := p.runs.FindByQuestAndUser(ctx, questID, userID)
		if err == nil {
			run = existing
			created = false
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		fresh := &QuestRun{
			QuestID:   questID,
			UserID:    userID,
			StartTime: p.clock.Now(),
		}
		if err := p.runs.Create(ctx, fresh); err != nil {
			if errors.Is(err, ErrDuplicate) {
				// Lost the race; re-read the winner's row.
				return retry.RetryableError(err)
			}
			return err
		}
		run = fresh
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return run, created, nil
}

// ReportFound records that the user located the item instance and reports
// whether the find completed the quest. Repeated reports of the same
// instance by the same user are accepted and stored again; completion is
// set-based, so duplicates never affect it.
func (p *Progression) ReportFound(ctx context.Context, userID, itemInstanceID int64) (FoundResult, error) {
	if itemInstanceID <= 0 {
		return FoundResult{}, oops.Code("BAD_REQUEST").With("field", "item_instance_id").Wrap(ErrBadRequest)
	}

	inst, err := p.instances.Get(ctx, itemInstanceID, policy.Scope{})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FoundResult{}, oops.Code("ITEM_INSTANCE_NOT_FOUND").
				With("item_instance_id", itemInstanceID).Wrap(ErrNotFound)
		}
		return FoundResult{}, oops.Code("FOUND_REPORT_FAILED").
			With("item_instance_id", itemInstanceID).Wrap(err)
	}

	fact := &FoundItem{
		ItemInstanceID: inst.ID,
		QuestID:        inst.QuestID,
		UserID:         userID,
		Time:           p.clock.Now(),
	}
	if err := p.found.Create(ctx, fact); err != nil {
		return FoundResult{}, oops.Code("FOUND_REPORT_FAILED").
			With("item_instance_id", itemInstanceID).With("user_id", userID).Wrap(err)
	}
	foundReports.Inc()

	complete := p.CheckCompletion(ctx, inst.QuestID, userID)

	return FoundResult{ID: fact.ID, Time: fact.Time, QuestComplete: complete}, nil
}

// CheckCompletion derives whether the user's run of the quest is complete:
// every instance placed in the quest has a found record by this user. The
// completion write happens at most once per run; a run already marked
// completed short-circuits to true without re-writing its finish time.
//
// Lookup failures here are swallowed and logged as "not completed" so a
// found-item report never fails because completion bookkeeping did.
func (p *Progression) CheckCompletion(ctx context.Context, questID, userID int64) bool {
	// Serialize with concurrent checks and first starts for the same pair,
	// so the short-circuit read and the completion write cannot interleave.
	unlock := p.locks.lock(runKey{questID: questID, userID: userID})
	defer unlock()

	run, err := p.runs.FindByQuestAndUser(ctx, questID, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logCheckFailure("load quest run", questID, userID, err)
		}
		// Never started: cannot complete.
		return false
	}
	if run.Completed {
		return true
	}

	required, err := p.instances.IDsByQuest(ctx, questID)
	if err != nil {
		p.logCheckFailure("list quest instances", questID, userID, err)
		return false
	}
	found, err := p.found.FoundInstanceIDs(ctx, questID, userID)
	if err != nil {
		p.logCheckFailure("list found instances", questID, userID, err)
		return false
	}

	foundSet := make(map[int64]struct{}, len(found))
	for _, id := range found {
		foundSet[id] = struct{}{}
	}
	for _, id := range required {
		if _, ok := foundSet[id]; !ok {
			return false
		}
	}

	now := p.clock.Now()
	run.Completed = true
	run.FinishTime = &now
	if err := p.runs.Update(ctx, run); err != nil {
		p.logCheckFailure("persist completion", questID, userID, err)
		return false
	}
	questCompletions.Inc()
	return true
}

func (p *Progression) logCheckFailure(op string, questID, userID int64, err error) {
	completionCheckFailures.Inc()
	errutil.LogError(p.logger.With("operation", op, "quest_id", questID, "user_id", userID),
		"completion check failed", err)
}

// runKey identifies one (quest, user) pair.
type runKey struct {
	questID int64
	userID  int64
}

// runLocks serializes find-or-create and completion writes per pair within
// this process. The store's unique index remains the cross-process guard;
// the lock just keeps local races from burning retries.
type runLocks struct {
	mu    sync.Mutex
	locks map[runKey]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the pair's mutex and returns its release func.
func (l *runLocks) lock(k runKey) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[runKey]*pairLock)
	}
	pl, ok := l.locks[k]
	if !ok {
		pl = &pairLock{}
		l.locks[k] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}
