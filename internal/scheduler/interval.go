// Package scheduler implements the adaptive polling policy: the closer a
// flight is to departure, the shorter the interval between checks.
package scheduler

import "time"

// Polling intervals by proximity to departure.
const (
	IntervalMoreThan7Days  = 360 * time.Minute
	IntervalWithin7Days    = 120 * time.Minute
	IntervalWithin3Days    = 60 * time.Minute
	IntervalWithin24Hours  = 30 * time.Minute
	IntervalWithin6Hours   = 15 * time.Minute
	IntervalWithin2Hours   = 5 * time.Minute
)

// NextInterval returns the polling interval for a reservation departing at
// the given time. It is a monotonically non-increasing step function of the
// hours remaining until departure; past-departure reservations get the
// tightest interval until the status query window excludes them.
func NextInterval(departure, now time.Time) time.Duration {
	hours := departure.Sub(now).Hours()

	switch {
	case hours > 168:
		return IntervalMoreThan7Days
	case hours > 72:
		return IntervalWithin7Days
	case hours > 24:
		return IntervalWithin3Days
	case hours > 6:
		return IntervalWithin24Hours
	case hours > 2:
		return IntervalWithin6Hours
	default:
		return IntervalWithin2Hours
	}
}

// IsDue reports whether a reservation should be checked now. A reservation
// that was never checked is always due.
func IsDue(lastCheckedAt *time.Time, departure, now time.Time) bool {
	if lastCheckedAt == nil {
		return true
	}
	return !now.Before(lastCheckedAt.Add(NextInterval(departure, now)))
}
