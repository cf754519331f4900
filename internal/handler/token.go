package handler

import (
	"net/http"

	"github.com/safestake/registry/internal/auth"
	"github.com/safestake/registry/internal/domain"
)

// TokenHandler exchanges platform API keys for bearer tokens.
type TokenHandler struct {
	keys *auth.KeySet
	mgr  *auth.TokenManager
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(keys *auth.KeySet, mgr *auth.TokenManager) *TokenHandler {
	return &TokenHandler{keys: keys, mgr: mgr}
}

type tokenRequest struct {
	PlatformID string `json:"platform_id"`
	APIKey     string `json:"api_key"`
}

// IssueToken handles POST /auth/token.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("malformed request body"))
		return
	}
	if err := domain.ValidatePlatformID(req.PlatformID); err != nil {
		RespondError(w, domain.ErrValidation(err.Error()))
		return
	}

	if !h.keys.Authenticate(req.PlatformID, req.APIKey) {
		RespondError(w, domain.ErrUnauthorized("invalid platform credentials"))
		return
	}

	token, err := h.mgr.Generate(req.PlatformID)
	if err != nil {
		RespondError(w, domain.ErrInternal("generate token", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"token": token})
}
