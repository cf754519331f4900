package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Validation errors: rejected before any state is touched.

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrInvalidLimits(msg string) *AppError {
	return &AppError{Code: "INVALID_LIMITS", Message: msg, Status: 400}
}

func ErrInvalidSignature() *AppError {
	return &AppError{Code: "INVALID_SIGNATURE", Message: "attestation signature verification failed", Status: 401}
}

// Policy errors: expected steady-state outcomes of the eligibility state
// machine, not bugs. Callers branch on the code.

func ErrNotRegistered(accountID string) *AppError {
	return &AppError{Code: "NOT_REGISTERED", Message: fmt.Sprintf("account %s is not registered", accountID), Status: 404}
}

func ErrAgeNotVerified(accountID string) *AppError {
	return &AppError{Code: "AGE_NOT_VERIFIED", Message: fmt.Sprintf("account %s has no age verification", accountID), Status: 403}
}

func ErrSelfExcluded(accountID string) *AppError {
	return &AppError{Code: "SELF_EXCLUDED", Message: fmt.Sprintf("account %s is self-excluded", accountID), Status: 403}
}

func ErrOnCooldown(accountID string) *AppError {
	return &AppError{Code: "ON_COOLDOWN", Message: fmt.Sprintf("account %s is on cooldown", accountID), Status: 403}
}

func ErrDailyLimitReached(accountID string) *AppError {
	return &AppError{Code: "DAILY_LIMIT_REACHED", Message: fmt.Sprintf("account %s would exceed its daily limit", accountID), Status: 403}
}

func ErrMonthlyLimitReached(accountID string) *AppError {
	return &AppError{Code: "MONTHLY_LIMIT_REACHED", Message: fmt.Sprintf("account %s would exceed its monthly limit", accountID), Status: 403}
}

// Consistency errors: the precondition guarantees the operation cannot
// silently succeed twice.

func ErrAlreadyRegistered(accountID string) *AppError {
	return &AppError{Code: "ALREADY_REGISTERED", Message: fmt.Sprintf("account %s is already registered", accountID), Status: 409}
}

func ErrAlreadyExcluded(accountID string) *AppError {
	return &AppError{Code: "ALREADY_EXCLUDED", Message: fmt.Sprintf("account %s already has an active self-exclusion", accountID), Status: 409}
}

// Upstream failures: surfaced distinctly from "proof invalid" so callers can
// retry only on the transient case.

func ErrInvalidProof(msg string) *AppError {
	return &AppError{Code: "INVALID_PROOF", Message: msg, Status: 422}
}

func ErrVerifierUnavailable(cause error) *AppError {
	return &AppError{Code: "VERIFIER_UNAVAILABLE", Message: "age verifier unreachable", Status: 502, Cause: cause}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// ErrForStatus maps a non-eligible status to its typed policy error.
// StatusEligible maps to nil.
func ErrForStatus(status EligibilityStatus, accountID string) *AppError {
	switch status {
	case StatusNotRegistered:
		return ErrNotRegistered(accountID)
	case StatusAgeNotVerified:
		return ErrAgeNotVerified(accountID)
	case StatusSelfExcluded:
		return ErrSelfExcluded(accountID)
	case StatusOnCooldown:
		return ErrOnCooldown(accountID)
	case StatusDailyLimitReached:
		return ErrDailyLimitReached(accountID)
	case StatusMonthlyLimitReached:
		return ErrMonthlyLimitReached(accountID)
	}
	return nil
}
