package infra

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"safestake"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"safestake"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"safestake"`

	// Server ports
	RegistryPort int `env:"REGISTRY_PORT" envDefault:"8080"`
	RelayPort    int `env:"RELAY_PORT" envDefault:"8081"`

	// Platform auth
	JWTSecret           string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	PlatformTokenExpiry string `env:"PLATFORM_TOKEN_EXPIRY" envDefault:"12h"`
	// Comma-separated platform-id:api-key pairs for token exchange.
	PlatformKeys string `env:"PLATFORM_KEYS"`

	// Attestation
	// Registry side: the attestor's Ed25519 public key (32 bytes, hex).
	AttestorPublicKey string `env:"ATTESTOR_PUBLIC_KEY"`
	// Relay side: the attestor's Ed25519 seed (32 bytes, hex).
	AttestorSeed string `env:"ATTESTOR_SEED"`
	// Relay side: third-party ZK proof verifier endpoint.
	ProofVerifierURL string `env:"PROOF_VERIFIER_URL" envDefault:"http://localhost:9090/verify"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if err := validateKeyHex("ATTESTOR_PUBLIC_KEY", c.AttestorPublicKey); err != nil {
		return err
	}
	if err := validateKeyHex("ATTESTOR_SEED", c.AttestorSeed); err != nil {
		return err
	}
	if c.AttestorSeed == strings.Repeat("0", 64) {
		return fmt.Errorf("ATTESTOR_SEED is all zeros; generate a real attestor seed")
	}
	return nil
}

// validateKeyHex checks the shape of a configured 32-byte hex key. Empty is
// allowed: each binary fails at startup on the key it actually needs.
func validateKeyHex(name, value string) error {
	if value == "" {
		return nil
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%s is not valid hex", name)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%s must be 32 bytes (64 hex chars), got %d bytes", name, len(raw))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
