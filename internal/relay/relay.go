// Package relay implements the proof-verification relay: it forwards
// zero-knowledge age proofs to the third-party verifier and, on acceptance,
// signs the account identifier with the attestor key. The registry only
// ever sees the resulting signature.
package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/safestake/registry/internal/attest"
	"github.com/safestake/registry/internal/domain"
)

// Attestation is returned to the caller on a successful proof verification.
// The signature is Ed25519 over the canonical account identifier and is what
// register_user presents to the registry.
type Attestation struct {
	AccountID string    `json:"account_identifier"`
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
}

// Service relays proofs to the upstream verifier and signs accepted accounts.
type Service struct {
	verifierURL string
	signer      *attest.Signer
	client      *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a relay against the given verifier endpoint.
func NewService(verifierURL string, signer *attest.Signer, logger *slog.Logger) *Service {
	return &Service{
		verifierURL: verifierURL,
		signer:      signer,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		now:         time.Now,
	}
}

// Attest verifies an age proof for an account and mints the attestation.
// Proof rejection (InvalidProof) and verifier outage (VerifierUnavailable)
// are distinct failures: only the latter is safe to retry.
func (s *Service) Attest(ctx context.Context, accountID, proof string) (*Attestation, error) {
	id, err := domain.CanonicalAccountID(accountID)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if proof == "" {
		return nil, domain.ErrValidation("proof is required")
	}

	if err := s.verifyProof(ctx, id, proof); err != nil {
		return nil, err
	}

	sig := s.signer.Sign(id)
	s.logger.Info("attestation issued", "account_id", id)
	return &Attestation{
		AccountID: id,
		Signature: hex.EncodeToString(sig),
		Timestamp: s.now(),
	}, nil
}

func (s *Service) verifyProof(ctx context.Context, accountID, proof string) error {
	body, _ := json.Marshal(map[string]string{
		"account_identifier": accountID,
		"proof":              proof,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifierURL, bytes.NewReader(body))
	if err != nil {
		return domain.ErrInternal("build verifier request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.ErrVerifierUnavailable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return domain.ErrVerifierUnavailable(fmt.Errorf("verifier returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return domain.ErrInvalidProof(decodeRejection(resp))
	}

	var result struct {
		Verified bool   `json:"verified"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.ErrVerifierUnavailable(fmt.Errorf("decode verifier response: %w", err))
	}
	if !result.Verified {
		if result.Reason == "" {
			result.Reason = "proof rejected"
		}
		return domain.ErrInvalidProof(result.Reason)
	}
	return nil
}

func decodeRejection(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("proof rejected (verifier status %d)", resp.StatusCode)
}
