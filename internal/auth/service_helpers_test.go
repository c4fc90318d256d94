// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/policy"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Get(ctx context.Context, id int64, sc policy.Scope) (*hunt.User, error) {
	args := m.Called(ctx, id, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hunt.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, sc policy.Scope, opts hunt.ListOptions) ([]*hunt.User, int64, error) {
	args := m.Called(ctx, sc, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*hunt.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) Create(ctx context.Context, u *hunt.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) Update(ctx context.Context, u *hunt.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*hunt.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hunt.User), args.Error(1)
}

func (m *MockUserRepo) UnitMemberIDs(ctx context.Context, unitID int64) ([]int64, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockSessionRepo) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	return m.Called(ctx, id, lastSeen).Error(0)
}

func (m *MockSessionRepo) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

var (
	_ hunt.UserRepository = (*MockUserRepo)(nil)
	_ SessionRepository   = (*MockSessionRepo)(nil)
	_ PasswordHasher      = (*MockHasher)(nil)
)
