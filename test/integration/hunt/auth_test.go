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

	"github.com/trailhead/trailhead/internal/auth"
	authpg "github.com/trailhead/trailhead/internal/auth/postgres"
	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/identity"
)

var _ = Describe("Auth", func() {
	var (
		ctx     context.Context
		service *auth.Service
		hasher  *auth.Argon2idHasher
		unit    *hunt.Unit
	)

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)

		hasher = auth.NewArgon2idHasher()
		service = auth.NewService(env.Users, authpg.NewSessionRepository(env.pool), hasher)

		unit = createUnit(ctx, "Falcon Patrol")
	})

	createAccount := func(email, password string) *hunt.User {
		hash, err := hasher.Hash(password)
		Expect(err).NotTo(HaveOccurred())

		u := &hunt.User{
			UnitID:       &unit.ID,
			Role:         identity.RoleScout,
			Name:         "Scout " + email,
			Email:        email,
			PasswordHash: hash,
		}
		Expect(env.Users.Create(ctx, u)).To(Succeed())
		return u
	}

	It("logs in, authenticates, and logs out", func() {
		user := createAccount("alva@example.com", "correct horse battery")

		session, token, ident, err := service.Login(ctx, "alva@example.com", "correct horse battery")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(HaveLen(64))
		Expect(ident.UserID).To(Equal(user.ID))

		got, err := service.Authenticate(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UserID).To(Equal(user.ID))
		Expect(got.Role).To(Equal(identity.RoleScout))

		Expect(service.Logout(ctx, session.ID)).To(Succeed())

		_, err = service.Authenticate(ctx, token)
		Expect(errors.Is(err, auth.ErrSessionInvalid)).To(BeTrue())
	})

	It("rejects a wrong password without leaking account existence", func() {
		createAccount("alva@example.com", "correct horse battery")

		_, _, _, err := service.Login(ctx, "alva@example.com", "wrong password!")
		Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())

		_, _, _, err = service.Login(ctx, "nobody@example.com", "wrong password!")
		Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())
	})

	It("locks the account after repeated failures", func() {
		createAccount("alva@example.com", "correct horse battery")

		for range hunt.LockoutThreshold {
			_, _, _, err := service.Login(ctx, "alva@example.com", "wrong password!")
			Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())
		}

		_, _, _, err := service.Login(ctx, "alva@example.com", "correct horse battery")
		Expect(errors.Is(err, auth.ErrAccountLocked)).To(BeTrue())
	})

	It("prunes expired sessions", func() {
		createAccount("alva@example.com", "correct horse battery")

		_, token, _, err := service.Login(ctx, "alva@example.com", "correct horse battery")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(ctx,
			"UPDATE sessions SET expires_at = $1", time.Now().UTC().Add(-time.Hour))
		Expect(err).NotTo(HaveOccurred())

		pruned, err := service.PruneSessions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pruned).To(Equal(int64(1)))

		_, err = service.Authenticate(ctx, token)
		Expect(errors.Is(err, auth.ErrSessionInvalid)).To(BeTrue())
	})
})
