package domain

import "time"

// EligibilityStatus is the outcome of an eligibility evaluation. Exactly one
// status applies to a given (record, amount, now) triple; the precedence
// order is fixed in the policy package.
type EligibilityStatus string

const (
	StatusEligible            EligibilityStatus = "eligible"
	StatusNotRegistered       EligibilityStatus = "not_registered"
	StatusAgeNotVerified      EligibilityStatus = "age_not_verified"
	StatusSelfExcluded        EligibilityStatus = "self_excluded"
	StatusOnCooldown          EligibilityStatus = "on_cooldown"
	StatusDailyLimitReached   EligibilityStatus = "daily_limit_reached"
	StatusMonthlyLimitReached EligibilityStatus = "monthly_limit_reached"
)

// ComplianceRecord is the per-account compliance state shared across
// platforms. Amounts are in the smallest currency unit. A record exists only
// after a successful registration and is never deleted.
type ComplianceRecord struct {
	AccountID         string     `json:"account_id"`
	AgeVerified       bool       `json:"age_verified"`
	DailyLimit        int64      `json:"daily_limit"`
	MonthlyLimit      int64      `json:"monthly_limit"`
	DailySpent        int64      `json:"daily_spent"`
	MonthlySpent      int64      `json:"monthly_spent"`
	LastResetDay      int64      `json:"last_reset_day"`   // day bucket index (unix / 86400)
	LastResetMonth    int64      `json:"last_reset_month"` // 30-day bucket index
	CooldownUntil     *time.Time `json:"cooldown_until,omitempty"`
	SelfExcludedUntil *time.Time `json:"self_excluded_until,omitempty"`
	PlatformsUsed     []string   `json:"platforms_used"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the stored record to mutation.
func (r *ComplianceRecord) Clone() *ComplianceRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.CooldownUntil != nil {
		t := *r.CooldownUntil
		cp.CooldownUntil = &t
	}
	if r.SelfExcludedUntil != nil {
		t := *r.SelfExcludedUntil
		cp.SelfExcludedUntil = &t
	}
	cp.PlatformsUsed = append([]string(nil), r.PlatformsUsed...)
	return &cp
}

// SelfExclusionActive reports whether a self-exclusion is set and unexpired.
func (r *ComplianceRecord) SelfExclusionActive(now time.Time) bool {
	return r.SelfExcludedUntil != nil && r.SelfExcludedUntil.After(now)
}

// CooldownActive reports whether a cooldown is set and unexpired.
func (r *ComplianceRecord) CooldownActive(now time.Time) bool {
	return r.CooldownUntil != nil && r.CooldownUntil.After(now)
}

// AddPlatform appends a platform ID to the used set. The set is append-only;
// returns true when the platform was not already present.
func (r *ComplianceRecord) AddPlatform(platformID string) bool {
	for _, p := range r.PlatformsUsed {
		if p == platformID {
			return false
		}
	}
	r.PlatformsUsed = append(r.PlatformsUsed, platformID)
	return true
}
