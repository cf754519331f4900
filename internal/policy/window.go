package policy

import (
	"time"

	"github.com/safestake/registry/internal/domain"
)

// Spend windows are fixed-length buckets derived by integer division of unix
// time. A "month" is a fixed 30-day window, not a calendar month — the
// source system has no calendar awareness and cumulative spend is all that
// matters, so a single bucket comparison suffices.
const (
	DayWindowSeconds   int64 = 86_400
	MonthWindowSeconds int64 = 30 * 86_400
)

// DayBucket returns the day bucket index for the given instant.
func DayBucket(now time.Time) int64 { return now.Unix() / DayWindowSeconds }

// MonthBucket returns the 30-day bucket index for the given instant.
func MonthBucket(now time.Time) int64 { return now.Unix() / MonthWindowSeconds }

// PendingResets reports which spend accumulators are stale for the current
// instant.
type PendingResets struct {
	Day   bool
	Month bool
}

// Any reports whether at least one reset is due.
func (p PendingResets) Any() bool { return p.Day || p.Month }

// ResetsDue compares the record's stored buckets against the current ones
// without mutating anything. Buckets only move forward: a current bucket
// behind the stored one (clock skew) never triggers a reset.
func ResetsDue(rec *domain.ComplianceRecord, now time.Time) PendingResets {
	return PendingResets{
		Day:   DayBucket(now) > rec.LastResetDay,
		Month: MonthBucket(now) > rec.LastResetMonth,
	}
}

// ApplyResets zeroes stale accumulators and advances the stored buckets to
// the current ones. Called inside the same atomic operation that reads or
// writes the accumulators; there is no background rollover.
func ApplyResets(rec *domain.ComplianceRecord, now time.Time) PendingResets {
	due := ResetsDue(rec, now)
	if due.Day {
		rec.DailySpent = 0
		rec.LastResetDay = DayBucket(now)
	}
	if due.Month {
		rec.MonthlySpent = 0
		rec.LastResetMonth = MonthBucket(now)
	}
	return due
}
