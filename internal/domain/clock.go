package domain

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic
// harvest-date math and queue staleness checks.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// DaysUntilHarvest returns the ceiling of whole days between now and the
// date: 0 for past dates and today (never negative), nil for a missing date.
func DaysUntilHarvest(date *time.Time) *int {
	if date == nil {
		return nil
	}
	days := int(math.Ceil(date.Sub(clock.Now()).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}
