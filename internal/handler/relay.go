package handler

import (
	"net/http"

	"github.com/safestake/registry/internal/domain"
	"github.com/safestake/registry/internal/infra"
	"github.com/safestake/registry/internal/relay"
)

// RelayHandler exposes the proof-verification relay over HTTP.
type RelayHandler struct {
	svc     *relay.Service
	metrics *infra.Metrics
}

// NewRelayHandler creates a new RelayHandler.
func NewRelayHandler(svc *relay.Service, metrics *infra.Metrics) *RelayHandler {
	return &RelayHandler{svc: svc, metrics: metrics}
}

type attestationRequest struct {
	AccountIdentifier string `json:"account_identifier"`
	Proof             string `json:"proof"`
}

// CreateAttestation handles POST /v1/attestations.
func (h *RelayHandler) CreateAttestation(w http.ResponseWriter, r *http.Request) {
	var req attestationRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	att, err := h.svc.Attest(r.Context(), req.AccountIdentifier, req.Proof)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.metrics.AttestationsIssued.Inc()
	RespondJSON(w, http.StatusCreated, att)
}
