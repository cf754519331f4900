package domain

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const accountHashLen = 64 // hex chars of the 32-byte identity hash

var (
	accountHashRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
	platformIDRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

// CanonicalAccountID normalizes an account identifier to the 64-hex identity
// hash. Identifiers may carry a single leading network-version character
// (65 chars total); it is stripped here, and the relay strips it the same
// way before signing. Both sides must agree or every signature fails.
func CanonicalAccountID(accountID string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(accountID))
	if len(id) == accountHashLen+1 {
		id = id[1:]
	}
	if !accountHashRegex.MatchString(id) {
		return "", fmt.Errorf("account identifier must be a 64-char hex hash with optional version prefix, got %d chars", len(accountID))
	}
	return id, nil
}

// DecodeSignature decodes a 64-byte Ed25519 signature from hex.
func DecodeSignature(signatureHex string) ([]byte, error) {
	sig, err := hex.DecodeString(strings.TrimSpace(signatureHex))
	if err != nil {
		return nil, fmt.Errorf("signature is not valid hex")
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes, got %d", len(sig))
	}
	return sig, nil
}

// ValidatePositiveAmount checks that an amount is positive (smallest unit).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateLimits enforces the limit policy: both positive, daily within
// monthly. daily > monthly is a hard rejection.
func ValidateLimits(daily, monthly int64) error {
	if daily <= 0 {
		return fmt.Errorf("daily limit must be positive, got %d", daily)
	}
	if monthly <= 0 {
		return fmt.Errorf("monthly limit must be positive, got %d", monthly)
	}
	if daily > monthly {
		return fmt.Errorf("daily limit %d exceeds monthly limit %d", daily, monthly)
	}
	return nil
}

// ValidatePlatformID checks the operator identifier format.
func ValidatePlatformID(platformID string) error {
	if platformID == "" {
		return fmt.Errorf("platform id is required")
	}
	if !platformIDRegex.MatchString(platformID) {
		return fmt.Errorf("invalid platform id: %s", platformID)
	}
	return nil
}
