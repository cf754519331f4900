package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceRecordClone(t *testing.T) {
	t.Run("nil clones to nil", func(t *testing.T) {
		var rec *ComplianceRecord
		assert.Nil(t, rec.Clone())
	})

	t.Run("deep copy", func(t *testing.T) {
		until := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
		rec := &ComplianceRecord{
			AccountID:         "acct",
			DailySpent:        50,
			SelfExcludedUntil: &until,
			PlatformsUsed:     []string{"casino-1"},
		}

		cp := rec.Clone()
		cp.DailySpent = 999
		*cp.SelfExcludedUntil = until.Add(time.Hour)
		cp.PlatformsUsed = append(cp.PlatformsUsed, "casino-2")

		assert.Equal(t, int64(50), rec.DailySpent)
		assert.True(t, rec.SelfExcludedUntil.Equal(until))
		assert.Equal(t, []string{"casino-1"}, rec.PlatformsUsed)
	})
}

func TestComplianceRecordActiveFlags(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	t.Run("unset is inactive", func(t *testing.T) {
		rec := &ComplianceRecord{}
		assert.False(t, rec.SelfExclusionActive(now))
		assert.False(t, rec.CooldownActive(now))
	})

	t.Run("future deadline is active", func(t *testing.T) {
		rec := &ComplianceRecord{SelfExcludedUntil: &future, CooldownUntil: &future}
		assert.True(t, rec.SelfExclusionActive(now))
		assert.True(t, rec.CooldownActive(now))
	})

	t.Run("expired deadline is inactive", func(t *testing.T) {
		rec := &ComplianceRecord{SelfExcludedUntil: &past, CooldownUntil: &past}
		assert.False(t, rec.SelfExclusionActive(now))
		assert.False(t, rec.CooldownActive(now))
	})

	t.Run("deadline exactly now is inactive", func(t *testing.T) {
		rec := &ComplianceRecord{SelfExcludedUntil: &now}
		assert.False(t, rec.SelfExclusionActive(now))
	})
}

func TestAddPlatform(t *testing.T) {
	rec := &ComplianceRecord{}

	assert.True(t, rec.AddPlatform("casino-1"))
	assert.True(t, rec.AddPlatform("casino-2"))
	assert.False(t, rec.AddPlatform("casino-1"))
	assert.Equal(t, []string{"casino-1", "casino-2"}, rec.PlatformsUsed)
}

func TestErrForStatus(t *testing.T) {
	tests := []struct {
		status   EligibilityStatus
		wantCode string
	}{
		{StatusNotRegistered, "NOT_REGISTERED"},
		{StatusAgeNotVerified, "AGE_NOT_VERIFIED"},
		{StatusSelfExcluded, "SELF_EXCLUDED"},
		{StatusOnCooldown, "ON_COOLDOWN"},
		{StatusDailyLimitReached, "DAILY_LIMIT_REACHED"},
		{StatusMonthlyLimitReached, "MONTHLY_LIMIT_REACHED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := ErrForStatus(tt.status, "acct")
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}

	t.Run("eligible maps to nil", func(t *testing.T) {
		assert.Nil(t, ErrForStatus(StatusEligible, "acct"))
	})
}
