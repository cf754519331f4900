package policy

import (
	"time"

	"github.com/safestake/registry/internal/domain"
)

// Evaluate runs the eligibility state machine for a proposed wager. Pure:
// no mutation, safe for concurrent readers, and deterministic for a given
// (record, amount, now).
//
// The precedence order is fixed so the most fundamental blocking reason is
// always the one reported: a self-excluded account over its daily limit is
// SelfExcluded, never DailyLimitReached.
func Evaluate(rec *domain.ComplianceRecord, proposedAmount int64, now time.Time) domain.EligibilityStatus {
	if rec == nil {
		return domain.StatusNotRegistered
	}
	if !rec.AgeVerified {
		return domain.StatusAgeNotVerified
	}
	if rec.SelfExclusionActive(now) {
		return domain.StatusSelfExcluded
	}
	if rec.CooldownActive(now) {
		return domain.StatusOnCooldown
	}

	// Compare against remaining headroom. Spend and limits are both
	// non-negative, so limit-spend cannot overflow; spend+amount can.
	daily, monthly := EffectiveSpend(rec, now)
	if proposedAmount > rec.DailyLimit-daily {
		return domain.StatusDailyLimitReached
	}
	if proposedAmount > rec.MonthlyLimit-monthly {
		return domain.StatusMonthlyLimitReached
	}
	return domain.StatusEligible
}

// EffectiveSpend returns the accumulators as they would read after any
// pending window reset, without applying it.
func EffectiveSpend(rec *domain.ComplianceRecord, now time.Time) (daily, monthly int64) {
	due := ResetsDue(rec, now)
	daily, monthly = rec.DailySpent, rec.MonthlySpent
	if due.Day {
		daily = 0
	}
	if due.Month {
		monthly = 0
	}
	return daily, monthly
}
