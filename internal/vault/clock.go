// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "time"

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var defaultClock Clock = systemClock{}

// SetClock replaces the clock used by new sessions. Tests may set a fake clock.
func SetClock(c Clock) { defaultClock = c }

// ResetClock restores the default system clock.
func ResetClock() { defaultClock = systemClock{} }
