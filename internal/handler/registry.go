package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safestake/registry/internal/auth"
	"github.com/safestake/registry/internal/domain"
	"github.com/safestake/registry/internal/infra"
	"github.com/safestake/registry/internal/registry"
)

// RegistryHandler exposes the compliance registry operations over HTTP.
type RegistryHandler struct {
	engine  *registry.Engine
	metrics *infra.Metrics
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(engine *registry.Engine, metrics *infra.Metrics) *RegistryHandler {
	return &RegistryHandler{engine: engine, metrics: metrics}
}

type registerRequest struct {
	Signature string `json:"signature"`
}

// Register handles POST /v1/accounts/{accountID}/register.
func (h *RegistryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	err := h.engine.Register(r.Context(), chi.URLParam(r, "accountID"), req.Signature)
	h.metrics.ObserveMutation("register", outcomeOf(err))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

type setLimitsRequest struct {
	DailyLimit   int64 `json:"daily_limit"`
	MonthlyLimit int64 `json:"monthly_limit"`
}

// SetLimits handles PUT /v1/accounts/{accountID}/limits.
func (h *RegistryHandler) SetLimits(w http.ResponseWriter, r *http.Request) {
	var req setLimitsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	err := h.engine.SetLimits(r.Context(), chi.URLParam(r, "accountID"), req.DailyLimit, req.MonthlyLimit)
	h.metrics.ObserveMutation("set_limits", outcomeOf(err))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type eligibilityResponse struct {
	AccountID string                   `json:"account_id"`
	Amount    int64                    `json:"amount"`
	Status    domain.EligibilityStatus `json:"status"`
}

// CheckEligibility handles GET /v1/accounts/{accountID}/eligibility?amount=N.
func (h *RegistryHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		RespondError(w, domain.ErrValidation("amount query parameter must be an integer"))
		return
	}

	status, err := h.engine.CheckEligibility(r.Context(), chi.URLParam(r, "accountID"), amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.metrics.ObserveCheck(string(status))
	RespondJSON(w, http.StatusOK, eligibilityResponse{
		AccountID: chi.URLParam(r, "accountID"),
		Amount:    amount,
		Status:    status,
	})
}

type recordTransactionRequest struct {
	Amount int64 `json:"amount"`
}

type recordTransactionResponse struct {
	Success      bool  `json:"success"`
	DailySpent   int64 `json:"daily_spent"`
	MonthlySpent int64 `json:"monthly_spent"`
}

// RecordTransaction handles POST /v1/accounts/{accountID}/transactions. The
// platform is taken from the authenticated token, never the request body.
func (h *RegistryHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	platformID := auth.PlatformFromContext(r.Context())
	if platformID == "" {
		RespondError(w, domain.ErrUnauthorized("no platform in context"))
		return
	}

	rec, err := h.engine.RecordTransaction(r.Context(), chi.URLParam(r, "accountID"), req.Amount, platformID)
	h.metrics.ObserveMutation("record_transaction", outcomeOf(err))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, recordTransactionResponse{
		Success:      true,
		DailySpent:   rec.DailySpent,
		MonthlySpent: rec.MonthlySpent,
	})
}

type selfExcludeRequest struct {
	DurationDays int `json:"duration_days"`
}

// SelfExclude handles POST /v1/accounts/{accountID}/exclusion.
func (h *RegistryHandler) SelfExclude(w http.ResponseWriter, r *http.Request) {
	var req selfExcludeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	err := h.engine.SelfExclude(r.Context(), chi.URLParam(r, "accountID"), req.DurationDays)
	h.metrics.ObserveMutation("self_exclude", outcomeOf(err))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type cooldownRequest struct {
	DurationHours int `json:"duration_hours"`
}

// RequestCooldown handles POST /v1/accounts/{accountID}/cooldown.
func (h *RegistryHandler) RequestCooldown(w http.ResponseWriter, r *http.Request) {
	var req cooldownRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}

	err := h.engine.RequestCooldown(r.Context(), chi.URLParam(r, "accountID"),
		time.Duration(req.DurationHours)*time.Hour)
	h.metrics.ObserveMutation("request_cooldown", outcomeOf(err))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetRecord handles GET /v1/accounts/{accountID}: the cross-platform audit
// view of the account's compliance state.
func (h *RegistryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.GetRecord(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rec)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := err.(*domain.AppError); ok {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
