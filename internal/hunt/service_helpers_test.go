// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/trailhead/trailhead/internal/policy"
)

// fixedClock returns a constant time for deterministic elapsed checks.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// MockUnitRepo is a mock UnitRepository.
type MockUnitRepo struct {
	mock.Mock
}

func (m *MockUnitRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*Unit, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Unit), args.Error(1)
}

func (m *MockUnitRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Unit, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Unit), args.Get(1).(int64), args.Error(2)
}

func (m *MockUnitRepo) Create(ctx context.Context, u *Unit) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUnitRepo) Update(ctx context.Context, u *Unit) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUnitRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserRepo is a mock UserRepository.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*User, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*User, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) Create(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) Update(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockItemRepo is a mock ItemRepository.
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*Item, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockItemRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Item, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Item), args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepo) Create(ctx context.Context, it *Item) error {
	return m.Called(ctx, it).Error(0)
}

func (m *MockItemRepo) Update(ctx context.Context, it *Item) error {
	return m.Called(ctx, it).Error(0)
}

func (m *MockItemRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockQuestRepo is a mock QuestRepository.
type MockQuestRepo struct {
	mock.Mock
}

func (m *MockQuestRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*Quest, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Quest), args.Error(1)
}

func (m *MockQuestRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*Quest, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Quest), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestRepo) Create(ctx context.Context, q *Quest) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuestRepo) Update(ctx context.Context, q *Quest, sc policy.Scope) error {
	return m.Called(ctx, q, sc).Error(0)
}

func (m *MockQuestRepo) Delete(ctx context.Context, id int64, sc policy.Scope) error {
	return m.Called(ctx, id, sc).Error(0)
}

// MockInstanceRepo is a mock ItemInstanceRepository.
type MockInstanceRepo struct {
	mock.Mock
}

func (m *MockInstanceRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*ItemInstance, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItemInstance), args.Error(1)
}

func (m *MockInstanceRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*ItemInstance, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ItemInstance), args.Get(1).(int64), args.Error(2)
}

func (m *MockInstanceRepo) Create(ctx context.Context, inst *ItemInstance) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstanceRepo) Update(ctx context.Context, inst *ItemInstance, sc policy.Scope) error {
	return m.Called(ctx, inst, sc).Error(0)
}

func (m *MockInstanceRepo) Delete(ctx context.Context, id int64, sc policy.Scope) error {
	return m.Called(ctx, id, sc).Error(0)
}

func (m *MockInstanceRepo) IDsByQuest(ctx context.Context, questID int64) ([]int64, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockFoundRepo is a mock FoundItemRepository.
type MockFoundRepo struct {
	mock.Mock
}

func (m *MockFoundRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*FoundItem, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FoundItem), args.Error(1)
}

func (m *MockFoundRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*FoundItem, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*FoundItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockFoundRepo) Create(ctx context.Context, f *FoundItem) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFoundRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFoundRepo) FoundInstanceIDs(ctx context.Context, questID, userID int64) ([]int64, error) {
	args := m.Called(ctx, questID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockRunRepo is a mock QuestRunRepository.
type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*QuestRun, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QuestRun), args.Error(1)
}

func (m *MockRunRepo) List(ctx context.Context, sc policy.Scope, opts ListOptions) ([]*QuestRun, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*QuestRun), args.Get(1).(int64), args.Error(2)
}

func (m *MockRunRepo) Create(ctx context.Context, run *QuestRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRepo) Update(ctx context.Context, run *QuestRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRunRepo) FindByQuestAndUser(ctx context.Context, questID, userID int64) (*QuestRun, error) {
	args := m.Called(ctx, questID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QuestRun), args.Error(1)
}

func (m *MockRunRepo) ListByQuestIDs(ctx context.Context, questIDs []int64, userID int64) ([]*QuestRun, error) {
	args := m.Called(ctx, questIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*QuestRun), args.Error(1)
}

// MockHasher is a mock PasswordHasher.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}
