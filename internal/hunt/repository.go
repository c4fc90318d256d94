// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"context"

	"github.com/trailhead/trailhead/internal/policy"
)

// DefaultLimit bounds list pages when the caller does not set one.
const DefaultLimit = 100

// ListOptions carries pagination and ordering for list queries.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string // column name; empty means the repository default
	Desc    bool
}

// UnitRepository manages unit persistence.
type UnitRepository interface {
	// Get retrieves a unit matching the scope.
	Get(ctx context.Context, id int64, sc policy.Scope) (*Unit, error)

	// List returns units matching the scope plus the total match count.
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Unit, int64, error)

	// Create persists a new unit, assigning its id.
	Create(ctx context.Context, u *Unit) error

	// Update modifies an existing unit.
	Update(ctx context.Context, u *Unit) error

	// Delete removes a unit after deleting its quests and users.
	Delete(ctx context.Context, id int64) error
}

// UserRepository manages user persistence.
type UserRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*User, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*User, int64, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error

	// Delete removes a user after deleting their quest runs and found items.
	Delete(ctx context.Context, id int64) error

	// GetByEmail retrieves a user by email for credential verification.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UnitMemberIDs returns the ids of all users in the unit.
	// Satisfies policy.UserDirectory.
	UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error)
}

// ItemRepository manages catalog item persistence.
type ItemRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*Item, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Item, int64, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error

	// Delete removes an item after deleting its instances (and their
	// found-item records).
	Delete(ctx context.Context, id int64) error
}

// QuestRepository manages quest persistence.
type QuestRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*Quest, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Quest, int64, error)
	Create(ctx context.Context, q *Quest) error
	Update(ctx context.Context, q *Quest, sc policy.Scope) error

	// Delete removes a quest matching the scope after deleting its item
	// instances, found items, and quest runs.
	Delete(ctx context.Context, id int64, sc policy.Scope) error
}

// ItemInstanceRepository manages placed item persistence.
type ItemInstanceRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*ItemInstance, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*ItemInstance, int64, error)
	Create(ctx context.Context, inst *ItemInstance) error
	Update(ctx context.Context, inst *ItemInstance, sc policy.Scope) error

	// Delete removes an instance matching the scope after deleting its
	// found-item records.
	Delete(ctx context.Context, id int64, sc policy.Scope) error

	// IDsByQuest returns the ids of all instances placed in the quest.
	IDsByQuest(ctx context.Context, questID int64) ([]int64, error)
}

// FoundItemRepository manages found-item facts. Rows are append-only.
type FoundItemRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*FoundItem, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*FoundItem, int64, error)
	Create(ctx context.Context, f *FoundItem) error
	Delete(ctx context.Context, id int64) error

	// FoundInstanceIDs returns the distinct instance ids the user has
	// reported found within the quest.
	FoundInstanceIDs(ctx context.Context, questID, userID int64) ([]int64, error)
}

// QuestRunRepository manages quest run persistence.
type QuestRunRepository interface {
	Get(ctx context.Context, id int64, sc policy.Scope) (*QuestRun, error)
	List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*QuestRun, int64, error)

	// Create persists a new run. Returns an error matching ErrDuplicate
	// when a run for the same (quest, user) pair already exists.
	Create(ctx context.Context, run *QuestRun) error

	Update(ctx context.Context, run *QuestRun) error
	Delete(ctx context.Context, id int64) error

	// FindByQuestAndUser retrieves the run for the pair, or ErrNotFound.
	FindByQuestAndUser(ctx context.Context, questID, userID int64) (*QuestRun, error)

	// ListByQuestIDs returns the user's runs for the given quests.
	ListByQuestIDs(ctx context.Context, questIDs []int64, userID int64) ([]*QuestRun, error)
}
