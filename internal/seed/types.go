// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package seed loads initial data from a YAML seed file, validates it
// against a generated JSON Schema, and applies it idempotently.
package seed

import (
	"fmt"

	"github.com/trailhead/trailhead/internal/hunt"
	"github.com/trailhead/trailhead/internal/identity"
)

// File is the root of a seed YAML file. Units are referenced by name from
// users, quests, and instances.
type File struct {
	Units  []Unit  `yaml:"units" json:"units,omitempty"`
	Users  []User  `yaml:"users" json:"users,omitempty"`
	Items  []Item  `yaml:"items" json:"items,omitempty"`
	Quests []Quest `yaml:"quests" json:"quests,omitempty"`
}

// Unit seeds a scout unit.
type Unit struct {
	Name string `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=100"`
}

// User seeds an account. The password is hashed before insert and never
// stored in plaintext.
type User struct {
	Name     string `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=100"`
	Email    string `yaml:"email" json:"email" jsonschema:"required,format=email"`
	Password string `yaml:"password" json:"password" jsonschema:"required,minLength=8"`
	Role     string `yaml:"role" json:"role" jsonschema:"required,enum=scout,enum=leader,enum=admin"`
	Unit     string `yaml:"unit" json:"unit,omitempty"`
}

// Item seeds a catalog item.
type Item struct {
	Name        string `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=100"`
	Description string `yaml:"description" json:"description,omitempty"`
	Type        string `yaml:"type" json:"type" jsonschema:"required,enum=private,enum=public"`
}

// Quest seeds a quest belonging to a unit.
type Quest struct {
	Name      string `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=100"`
	Unit      string `yaml:"unit" json:"unit" jsonschema:"required"`
	TimeLimit int    `yaml:"time_limit" json:"time_limit" jsonschema:"required,minimum=1"`
	Published bool   `yaml:"published" json:"published,omitempty"`
	Paused    bool   `yaml:"paused" json:"paused,omitempty"`
}

// Validate performs the referential checks the JSON Schema cannot express:
// unit references must resolve and roles must satisfy the identity rules.
func (f *File) Validate() error {
	unitNames := make(map[string]struct{}, len(f.Units))
	for _, u := range f.Units {
		if _, dup := unitNames[u.Name]; dup {
			return fmt.Errorf("seed: duplicate unit %q", u.Name)
		}
		unitNames[u.Name] = struct{}{}
	}

	emails := make(map[string]struct{}, len(f.Users))
	for _, u := range f.Users {
		if _, dup := emails[u.Email]; dup {
			return fmt.Errorf("seed: duplicate user email %q", u.Email)
		}
		emails[u.Email] = struct{}{}

		role := identity.Role(u.Role)
		if err := role.Validate(); err != nil {
			return fmt.Errorf("seed: user %q: %w", u.Email, err)
		}
		if u.Unit == "" && role != identity.RoleAdmin {
			return fmt.Errorf("seed: user %q: role %s requires a unit", u.Email, role)
		}
		if u.Unit != "" {
			if _, ok := unitNames[u.Unit]; !ok {
				return fmt.Errorf("seed: user %q references unknown unit %q", u.Email, u.Unit)
			}
		}
	}

	for _, it := range f.Items {
		if err := hunt.ItemType(it.Type).Validate(); err != nil {
			return fmt.Errorf("seed: item %q: %w", it.Name, err)
		}
	}

	for _, q := range f.Quests {
		if _, ok := unitNames[q.Unit]; !ok {
			return fmt.Errorf("seed: quest %q references unknown unit %q", q.Name, q.Unit)
		}
		if q.TimeLimit <= 0 {
			return fmt.Errorf("seed: quest %q: time limit must be positive", q.Name)
		}
	}

	return nil
}
