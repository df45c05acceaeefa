// Package trialclock implements the time arithmetic of the free trial window.
//
// All functions are pure: they take explicit timestamps and never read the
// wall clock themselves, which keeps callers testable at fixed instants.
package trialclock

import (
	"fmt"
	"time"
)

// Window is the fixed length of the free trial.
const Window = 48 * time.Hour

// Activate computes the trial window opened at now.
// Callers must guard against re-activation: an account that already has a
// trial window keeps it, the window is never re-armed.
func Activate(now time.Time) (startedAt, endsAt time.Time) {
	return now, now.Add(Window)
}

// Remaining returns the time left until endsAt, or nil once the trial
// has run out. It never returns a negative duration.
func Remaining(endsAt, now time.Time) *time.Duration {
	d := endsAt.Sub(now)
	if d <= 0 {
		return nil
	}
	return &d
}

// IsExpired reports whether the trial is over at now. The comparison is
// strict: exactly at endsAt the trial is still active.
func IsExpired(endsAt, now time.Time) bool {
	return now.After(endsAt)
}

// DisplayMessage formats the trial state for presentation. startedAt and
// endsAt are nil together when no trial was ever activated.
func DisplayMessage(startedAt, endsAt *time.Time, now time.Time) string {
	switch {
	case startedAt == nil || endsAt == nil:
		return "no trial"
	case IsExpired(*endsAt, now):
		return "trial expired"
	default:
		return fmt.Sprintf("trial active until %s", endsAt.UTC().Format(time.RFC3339))
	}
}
