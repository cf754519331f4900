package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PlatformClaims are the JWT claims issued to integrated operators. The
// platform ID in the token, not the request body, is what gets recorded
// against accounts on each transaction.
type PlatformClaims struct {
	jwt.RegisteredClaims
	PlatformID string `json:"platform_id"`
}

// TokenManager issues and validates platform bearer tokens (HS256).
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a token manager with the given signing secret.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

// Generate creates a signed token for a platform.
func (m *TokenManager) Generate(platformID string) (string, error) {
	now := time.Now()
	claims := PlatformClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   platformID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			ID:        uuid.New().String(),
		},
		PlatformID: platformID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates a platform token.
func (m *TokenManager) Validate(tokenString string) (*PlatformClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlatformClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*PlatformClaims)
	if !ok || !token.Valid || claims.PlatformID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// KeySet holds the configured platform API keys, parsed from
// "platform-id:key" comma-separated pairs.
type KeySet struct {
	keys map[string]string
}

// ParseKeySet parses the PLATFORM_KEYS config value.
func ParseKeySet(raw string) (*KeySet, error) {
	ks := &KeySet{keys: make(map[string]string)}
	if strings.TrimSpace(raw) == "" {
		return ks, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		id, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || id == "" || key == "" {
			return nil, fmt.Errorf("malformed platform key entry %q, want platform-id:key", pair)
		}
		ks.keys[id] = key
	}
	return ks, nil
}

// Authenticate checks an API key for a platform with constant-time compare.
func (k *KeySet) Authenticate(platformID, apiKey string) bool {
	want, ok := k.keys[platformID]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(apiKey)) == 1
}
