// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import "time"

// Clock supplies the current time to the progression engine.
// Tests substitute a fixed clock to exercise time-limit expiry without
// backdating real timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation used in production.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
