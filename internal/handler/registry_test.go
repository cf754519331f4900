package handler

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestake/registry/internal/attest"
	"github.com/safestake/registry/internal/auth"
	"github.com/safestake/registry/internal/domain"
	"github.com/safestake/registry/internal/infra"
	"github.com/safestake/registry/internal/registry"
)

const testSeed = "0101010101010101010101010101010101010101010101010101010101010101"

type apiFixture struct {
	server *httptest.Server
	signer *attest.Signer
	token  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	signer, err := attest.NewSigner(testSeed)
	require.NoError(t, err)
	verifier, err := attest.NewVerifier(signer.PublicKeyHex())
	require.NoError(t, err)

	engine := registry.NewEngine(registry.NewMemoryStore(), verifier)
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	registryHandler := NewRegistryHandler(engine, metrics)

	tokenMgr := auth.NewTokenManager("test-secret", time.Hour)
	keySet, err := auth.ParseKeySet("casino-1:key-one")
	require.NoError(t, err)
	tokenHandler := NewTokenHandler(keySet, tokenMgr)

	r := chi.NewRouter()
	r.Use(JSONContentType)
	r.Post("/auth/token", tokenHandler.IssueToken)
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticatePlatform(tokenMgr))
		r.Route("/v1/accounts/{accountID}", func(r chi.Router) {
			r.Get("/", registryHandler.GetRecord)
			r.Post("/register", registryHandler.Register)
			r.Put("/limits", registryHandler.SetLimits)
			r.Get("/eligibility", registryHandler.CheckEligibility)
			r.Post("/transactions", registryHandler.RecordTransaction)
			r.Post("/exclusion", registryHandler.SelfExclude)
			r.Post("/cooldown", registryHandler.RequestCooldown)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	token, err := tokenMgr.Generate("casino-1")
	require.NoError(t, err)

	return &apiFixture{server: server, signer: signer, token: token}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &body)
	return body.Code
}

func testAccount() string { return strings.Repeat("aa", 32) }

func (f *apiFixture) registerAccount(t *testing.T, accountID string) {
	t.Helper()
	sig := hex.EncodeToString(f.signer.Sign(accountID))
	resp := f.do(t, http.MethodPost, "/v1/accounts/"+accountID+"/register", map[string]string{"signature": sig})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("valid registration returns 201", func(t *testing.T) {
		f := newAPIFixture(t)
		f.registerAccount(t, testAccount())
	})

	t.Run("duplicate registration returns 409", func(t *testing.T) {
		f := newAPIFixture(t)
		f.registerAccount(t, testAccount())

		sig := hex.EncodeToString(f.signer.Sign(testAccount()))
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/register", map[string]string{"signature": sig})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_REGISTERED", errorCode(t, resp))
	})

	t.Run("bad signature returns 401", func(t *testing.T) {
		f := newAPIFixture(t)
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/register",
			map[string]string{"signature": strings.Repeat("00", 64)})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_SIGNATURE", errorCode(t, resp))
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		f := newAPIFixture(t)
		req, err := http.NewRequest(http.MethodPost, f.server.URL+"/v1/accounts/"+testAccount()+"/register",
			strings.NewReader("{not json"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+f.token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing bearer token returns 401", func(t *testing.T) {
		f := newAPIFixture(t)
		resp, err := http.Post(f.server.URL+"/v1/accounts/"+testAccount()+"/register", "application/json",
			strings.NewReader(`{"signature":""}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestLimitsAndTransactionsEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.registerAccount(t, testAccount())

	resp := f.do(t, http.MethodPut, "/v1/accounts/"+testAccount()+"/limits",
		map[string]int64{"daily_limit": 100, "monthly_limit": 1000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("eligible wager is recorded", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/transactions",
			map[string]int64{"amount": 60})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Success      bool  `json:"success"`
			DailySpent   int64 `json:"daily_spent"`
			MonthlySpent int64 `json:"monthly_spent"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.Success)
		assert.Equal(t, int64(60), body.DailySpent)
		assert.Equal(t, int64(60), body.MonthlySpent)
	})

	t.Run("over-limit wager returns 403", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/transactions",
			map[string]int64{"amount": 60})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "DAILY_LIMIT_REACHED", errorCode(t, resp))
	})

	t.Run("eligibility check reflects remaining allowance", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, fmt.Sprintf("/v1/accounts/%s/eligibility?amount=%d", testAccount(), 40), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Status string `json:"status"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "eligible", body.Status)

		resp = f.do(t, http.MethodGet, fmt.Sprintf("/v1/accounts/%s/eligibility?amount=%d", testAccount(), 41), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "daily_limit_reached", body.Status)
	})

	t.Run("non-integer amount returns 400", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/accounts/"+testAccount()+"/eligibility?amount=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("inverted limits return 400", func(t *testing.T) {
		resp := f.do(t, http.MethodPut, "/v1/accounts/"+testAccount()+"/limits",
			map[string]int64{"daily_limit": 1000, "monthly_limit": 100})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMITS", errorCode(t, resp))
	})
}

func TestExclusionAndCooldownEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.registerAccount(t, testAccount())
	resp := f.do(t, http.MethodPut, "/v1/accounts/"+testAccount()+"/limits",
		map[string]int64{"daily_limit": 100, "monthly_limit": 1000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("cooldown blocks wagering", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/cooldown",
			map[string]int{"duration_hours": 24})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/transactions",
			map[string]int64{"amount": 10})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "ON_COOLDOWN", errorCode(t, resp))
	})

	t.Run("self-exclusion outranks cooldown", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/exclusion",
			map[string]int{"duration_days": 30})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/transactions",
			map[string]int64{"amount": 10})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "SELF_EXCLUDED", errorCode(t, resp))
	})

	t.Run("second exclusion returns 409", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/v1/accounts/"+testAccount()+"/exclusion",
			map[string]int{"duration_days": 7})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_EXCLUDED", errorCode(t, resp))
	})

	t.Run("audit view exposes the exclusion", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/accounts/"+testAccount(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rec domain.ComplianceRecord
		decodeBody(t, resp, &rec)
		assert.Equal(t, testAccount(), rec.AccountID)
		assert.True(t, rec.AgeVerified)
		require.NotNil(t, rec.SelfExcludedUntil)
		assert.True(t, rec.SelfExcludedUntil.After(time.Now()))
	})
}

func TestGetRecordEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/v1/accounts/"+testAccount(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_REGISTERED", errorCode(t, resp))
}

func TestIssueTokenEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("valid credentials yield a usable token", func(t *testing.T) {
		resp, err := http.Post(f.server.URL+"/auth/token", "application/json",
			strings.NewReader(`{"platform_id":"casino-1","api_key":"key-one"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
		}
		decodeBody(t, resp, &body)
		require.NotEmpty(t, body.Token)

		f.token = body.Token
		f.registerAccount(t, testAccount())
	})

	t.Run("wrong key returns 401", func(t *testing.T) {
		resp, err := http.Post(f.server.URL+"/auth/token", "application/json",
			strings.NewReader(`{"platform_id":"casino-1","api_key":"wrong"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}
