package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/safestake/registry/internal/domain"
)

func TestBuckets(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()

	t.Run("epoch is bucket zero", func(t *testing.T) {
		assert.Equal(t, int64(0), DayBucket(epoch))
		assert.Equal(t, int64(0), MonthBucket(epoch))
	})

	t.Run("one second before midnight stays in the day", func(t *testing.T) {
		assert.Equal(t, int64(0), DayBucket(epoch.Add(24*time.Hour-time.Second)))
	})

	t.Run("midnight advances the day bucket", func(t *testing.T) {
		assert.Equal(t, int64(1), DayBucket(epoch.Add(24*time.Hour)))
	})

	t.Run("month bucket advances every 30 days", func(t *testing.T) {
		assert.Equal(t, int64(0), MonthBucket(epoch.Add(30*24*time.Hour-time.Second)))
		assert.Equal(t, int64(1), MonthBucket(epoch.Add(30*24*time.Hour)))
	})
}

func TestResetsDue(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dayDelta  int64
		monDelta  int64
		wantDay   bool
		wantMonth bool
	}{
		{"current buckets", 0, 0, false, false},
		{"day behind", -1, 0, true, false},
		{"both behind", -1, -1, true, true},
		{"month behind only", 0, -1, false, true},
		{"buckets ahead of clock", 1, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.ComplianceRecord{
				LastResetDay:   DayBucket(now) + tt.dayDelta,
				LastResetMonth: MonthBucket(now) + tt.monDelta,
			}
			due := ResetsDue(rec, now)
			assert.Equal(t, tt.wantDay, due.Day)
			assert.Equal(t, tt.wantMonth, due.Month)
			assert.Equal(t, tt.wantDay || tt.wantMonth, due.Any())
		})
	}
}

func TestApplyResets(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	t.Run("stale day zeroes daily spend only", func(t *testing.T) {
		rec := &domain.ComplianceRecord{
			DailySpent:     80,
			MonthlySpent:   300,
			LastResetDay:   DayBucket(now) - 1,
			LastResetMonth: MonthBucket(now),
		}
		due := ApplyResets(rec, now)

		assert.True(t, due.Day)
		assert.False(t, due.Month)
		assert.Equal(t, int64(0), rec.DailySpent)
		assert.Equal(t, int64(300), rec.MonthlySpent)
		assert.Equal(t, DayBucket(now), rec.LastResetDay)
	})

	t.Run("stale month zeroes both accumulator and bucket", func(t *testing.T) {
		rec := &domain.ComplianceRecord{
			DailySpent:     80,
			MonthlySpent:   300,
			LastResetDay:   DayBucket(now) - 31,
			LastResetMonth: MonthBucket(now) - 1,
		}
		ApplyResets(rec, now)

		assert.Equal(t, int64(0), rec.DailySpent)
		assert.Equal(t, int64(0), rec.MonthlySpent)
		assert.Equal(t, MonthBucket(now), rec.LastResetMonth)
	})

	t.Run("no reset is a no-op", func(t *testing.T) {
		rec := &domain.ComplianceRecord{
			DailySpent:     80,
			MonthlySpent:   300,
			LastResetDay:   DayBucket(now),
			LastResetMonth: MonthBucket(now),
		}
		due := ApplyResets(rec, now)

		assert.False(t, due.Any())
		assert.Equal(t, int64(80), rec.DailySpent)
		assert.Equal(t, int64(300), rec.MonthlySpent)
	})

	t.Run("clock behind stored buckets never regresses", func(t *testing.T) {
		rec := &domain.ComplianceRecord{
			DailySpent:     80,
			LastResetDay:   DayBucket(now) + 2,
			LastResetMonth: MonthBucket(now) + 1,
		}
		due := ApplyResets(rec, now)

		assert.False(t, due.Any())
		assert.Equal(t, int64(80), rec.DailySpent)
		assert.Equal(t, DayBucket(now)+2, rec.LastResetDay)
	})
}
