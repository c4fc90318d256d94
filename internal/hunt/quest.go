// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package hunt implements the Trailhead domain: units running timed quests
// composed of placed item instances that scouts locate in the field.
//
// The package holds the entity model, the repository contracts, the
// policy-scoped services, and the quest progression engine. Persistence
// lives in hunt/postgres.
package hunt

import "time"

// Quest is a timed challenge owned by exactly one unit.
// A quest is playable only while published and not paused.
type Quest struct {
	ID           int64
	UnitID       int64
	Name         string
	Published    bool
	Paused       bool
	ShowDistance bool
	StartTime    *time.Time
	EndTime      *time.Time
	TimeLimit    int // minutes
	CreatedAt    time.Time
}

// Playable reports whether scouts may start or resume the quest.
func (q *Quest) Playable() bool {
	return q.Published && !q.Paused
}

// ScoutQuest is a quest annotated with the requesting scout's run state.
type ScoutQuest struct {
	Quest
	Completed     bool
	StartRunTime  *time.Time
	FinishRunTime *time.Time
}

// FoundItem records that a user located an item instance at a time.
// Rows are append-only facts; they are never updated.
type FoundItem struct {
	ID             int64
	ItemInstanceID int64
	QuestID        int64
	UserID         int64
	Time           time.Time
}

// QuestRun is the progress record of one user attempting one quest.
// At most one run exists per (quest, user) pair; Completed is monotonic.
type QuestRun struct {
	ID         int64
	QuestID    int64
	UserID     int64
	StartTime  time.Time
	FinishTime *time.Time
	Completed  bool
}
