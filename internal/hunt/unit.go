// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import "time"

// Unit is an organizational group (a troop) owning quests and users.
type Unit struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
