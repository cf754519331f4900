package registry

import (
	"context"
	"time"

	"github.com/safestake/registry/internal/attest"
	"github.com/safestake/registry/internal/domain"
	"github.com/safestake/registry/internal/policy"
)

// MaxExclusionDays bounds a single self-exclusion request (10 years).
const MaxExclusionDays = 3650

// Engine owns all reads and writes of compliance records. Every mutation
// observes-then-acts inside Store.Mutate, so preconditions are re-checked
// under the account's writer lock and either the whole change lands or
// nothing does. The engine never retries internally: registration and
// self-exclusion are deliberately not idempotent.
type Engine struct {
	store    Store
	verifier *attest.Verifier
	now      func() time.Time
}

// NewEngine creates the registry engine with the attestor verification key
// fixed for the engine's lifetime.
func NewEngine(store Store, verifier *attest.Verifier) *Engine {
	return &Engine{store: store, verifier: verifier, now: time.Now}
}

// Register creates a compliance record for an account carrying a valid
// attestor signature. Re-registration is rejected, not silently accepted.
func (e *Engine) Register(ctx context.Context, accountID, signatureHex string) error {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return domain.ErrValidation(err.Error())
	}
	sig, err := domain.DecodeSignature(signatureHex)
	if err != nil {
		return domain.ErrValidation(err.Error())
	}
	if !e.verifier.Verify(id, sig) {
		return domain.ErrInvalidSignature()
	}

	now := e.now()
	return e.store.Mutate(ctx, id, func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error) {
		if rec != nil {
			return nil, nil, domain.ErrAlreadyRegistered(id)
		}
		fresh := &domain.ComplianceRecord{
			AccountID:      id,
			AgeVerified:    true,
			LastResetDay:   policy.DayBucket(now),
			LastResetMonth: policy.MonthBucket(now),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		ev := domain.NewAccountEvent(id, domain.EventAccountRegistered, now, map[string]interface{}{
			"age_verified": true,
		})
		return fresh, []domain.OutboxDraft{ev}, nil
	})
}

// SetLimits overwrites both spending limits for an age-verified account.
// Spend already accumulated in the current windows is untouched.
func (e *Engine) SetLimits(ctx context.Context, accountID string, daily, monthly int64) error {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateLimits(daily, monthly); err != nil {
		return domain.ErrInvalidLimits(err.Error())
	}

	now := e.now()
	return e.store.Mutate(ctx, id, func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error) {
		if rec == nil {
			return nil, nil, domain.ErrNotRegistered(id)
		}
		if !rec.AgeVerified {
			return nil, nil, domain.ErrAgeNotVerified(id)
		}
		rec.DailyLimit = daily
		rec.MonthlyLimit = monthly
		rec.UpdatedAt = now
		ev := domain.NewAccountEvent(id, domain.EventLimitsUpdated, now, map[string]interface{}{
			"daily_limit":   daily,
			"monthly_limit": monthly,
		})
		return rec, []domain.OutboxDraft{ev}, nil
	})
}

// CheckEligibility evaluates whether a proposed wager is currently allowed.
// Read-only: served from a consistent snapshot, never blocks writers.
func (e *Engine) CheckEligibility(ctx context.Context, accountID string, amount int64) (domain.EligibilityStatus, error) {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return "", domain.ErrValidation(err.Error())
	}
	if amount < 0 {
		return "", domain.ErrValidation("proposed amount must not be negative")
	}

	rec, err := e.store.GetRecord(ctx, id)
	if err != nil {
		return "", domain.ErrInternal("load record", err)
	}
	return policy.Evaluate(rec, amount, e.now()), nil
}

// RecordTransaction re-runs the full eligibility check under the account's
// writer lock, then applies pending window resets, adds the amount to both
// accumulators, and appends the platform to the account's used set. On any
// non-eligible status the matching policy error is returned and nothing
// changes. Returns the post-transaction record snapshot.
func (e *Engine) RecordTransaction(ctx context.Context, accountID string, amount int64, platformID string) (*domain.ComplianceRecord, error) {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePlatformID(platformID); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	now := e.now()
	var snapshot *domain.ComplianceRecord
	err = e.store.Mutate(ctx, id, func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error) {
		if status := policy.Evaluate(rec, amount, now); status != domain.StatusEligible {
			return nil, nil, domain.ErrForStatus(status, id)
		}
		policy.ApplyResets(rec, now)
		rec.DailySpent += amount
		rec.MonthlySpent += amount
		rec.AddPlatform(platformID)
		rec.UpdatedAt = now
		snapshot = rec.Clone()

		ev := domain.NewAccountEvent(id, domain.EventTransactionRecorded, now, map[string]interface{}{
			"amount":        amount,
			"platform_id":   platformID,
			"daily_spent":   rec.DailySpent,
			"monthly_spent": rec.MonthlySpent,
		})
		return rec, []domain.OutboxDraft{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SelfExclude blocks all wagering for the given number of days. Single-shot:
// while an exclusion is active it can be neither extended nor shortened.
func (e *Engine) SelfExclude(ctx context.Context, accountID string, durationDays int) error {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return domain.ErrValidation(err.Error())
	}
	if durationDays <= 0 || durationDays > MaxExclusionDays {
		return domain.ErrValidation("exclusion duration must be between 1 and 3650 days")
	}

	now := e.now()
	return e.store.Mutate(ctx, id, func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error) {
		if rec == nil {
			return nil, nil, domain.ErrNotRegistered(id)
		}
		if rec.SelfExclusionActive(now) {
			return nil, nil, domain.ErrAlreadyExcluded(id)
		}
		until := now.Add(time.Duration(durationDays) * 24 * time.Hour)
		rec.SelfExcludedUntil = &until
		rec.UpdatedAt = now
		ev := domain.NewAccountEvent(id, domain.EventSelfExcluded, now, map[string]interface{}{
			"duration_days": durationDays,
			"excluded_until": until,
		})
		return rec, []domain.OutboxDraft{ev}, nil
	})
}

// RequestCooldown starts or extends a voluntary wagering break. Unlike
// self-exclusion a cooldown may be extended while active, but never
// shortened.
func (e *Engine) RequestCooldown(ctx context.Context, accountID string, duration time.Duration) error {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return domain.ErrValidation(err.Error())
	}
	if duration <= 0 {
		return domain.ErrValidation("cooldown duration must be positive")
	}

	now := e.now()
	return e.store.Mutate(ctx, id, func(rec *domain.ComplianceRecord) (*domain.ComplianceRecord, []domain.OutboxDraft, error) {
		if rec == nil {
			return nil, nil, domain.ErrNotRegistered(id)
		}
		until := now.Add(duration)
		if rec.CooldownActive(now) && rec.CooldownUntil.After(until) {
			return nil, nil, domain.ErrValidation("an active cooldown cannot be shortened")
		}
		rec.CooldownUntil = &until
		rec.UpdatedAt = now
		ev := domain.NewAccountEvent(id, domain.EventCooldownStarted, now, map[string]interface{}{
			"cooldown_until": until,
		})
		return rec, []domain.OutboxDraft{ev}, nil
	})
}

// GetRecord returns the account's record snapshot for the audit view.
func (e *Engine) GetRecord(ctx context.Context, accountID string) (*domain.ComplianceRecord, error) {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	rec, err := e.store.GetRecord(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("load record", err)
	}
	if rec == nil {
		return nil, domain.ErrNotRegistered(id)
	}
	return rec, nil
}
