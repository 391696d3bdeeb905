package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/handler"
	"github.com/makkenzo/cnc-license-admin/internal/handler/middleware"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"github.com/makkenzo/cnc-license-admin/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

type testServer struct {
	router *gin.Engine
	clock  *clock.Fixed
	apiKey string
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	clk := clock.NewFixed(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	apiKeys := memstorage.NewAPIKeyRepository()
	licenseService := service.NewLicenseService(memstorage.NewRequestRepository(), memstorage.NewLicenseRepository(), clk, time.UTC, nil, logger)
	authService := service.NewAuthService(&config.AuthConfig{
		AdminEmails:       []string{adminEmail},
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		Issuer:            "cnc-license-admin",
	}, clk, logger)
	apiKeyService := service.NewAPIKeyService(apiKeys, clk, logger)

	created, err := apiKeyService.CreateAPIKey(t.Context(), "tests")
	require.NoError(t, err)

	router := handler.NewRouter(handler.Handlers{
		Health:       handler.NewHealthHandler(nil, nil, logger),
		Requests:     handler.NewRequestHandler(licenseService, logger),
		Licenses:     handler.NewLicenseHandler(licenseService, logger),
		Dashboard:    handler.NewDashboardHandler(licenseService, logger),
		Auth:         handler.NewAuthHandler(authService, logger),
		APIKeys:      handler.NewAPIKeyHandler(apiKeyService, logger),
		AdminAuth:    middleware.AuthMiddleware(authService, logger),
		APIKeyAuth:   middleware.APIKeyAuthMiddleware(apiKeys, clk, logger),
		ErrorHandler: middleware.ErrorHandlerMiddleware(logger),
	}, nil, logger)

	ts := &testServer{router: router, clock: clk, apiKey: created.FullKey}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	rec := ts.do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": adminEmail, "password": adminPassword}, true, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &login)
	require.True(t, login.Success)
	ts.token = login.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, withKey, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set("X-API-Key", ts.apiKey)
	}
	if withToken {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, path, body, true, true)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Details []struct {
		Field string `json:"field"`
	} `json:"details"`
}

func (ts *testServer) submit(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/user/request", map[string]any{
		"name":        "Karim",
		"email":       email,
		"phone":       "+8801700000000",
		"plan":        "basic",
		"method":      "bkash",
		"trx":         "TRX123",
		"device_info": map[string]string{"os": "windows"},
	}, false, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success   bool   `json:"success"`
		RequestID string `json:"request_id"`
	}
	decode(t, rec, &resp)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.RequestID)
	return resp.RequestID
}

func TestLicenseLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, "Karim@Example.com")

	rec := ts.admin(t, http.MethodGet, "/api/admin/pending-requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Success  bool `json:"success"`
		Requests []struct {
			RequestID  string          `json:"request_id"`
			Email      string          `json:"email"`
			Status     string          `json:"status"`
			DeviceInfo json.RawMessage `json:"device_info"`
		} `json:"requests"`
	}
	decode(t, rec, &pending)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, id, pending.Requests[0].RequestID)
	assert.Equal(t, "karim@example.com", pending.Requests[0].Email)
	assert.Equal(t, "pending", pending.Requests[0].Status)
	assert.JSONEq(t, `{"os":"windows"}`, string(pending.Requests[0].DeviceInfo))

	rec = ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "pro", "days_valid": 180})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"email":"karim@example.com","plan":"pro","expiry":"2025-06-30"}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "karim@example.com", "password": "x"}, false, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"user":{"email":"karim@example.com","name":"Karim","plan":"pro","expiry":"2025-06-30"}}`, rec.Body.String())

	rec = ts.admin(t, http.MethodPost, "/api/admin/extend", map[string]any{"email": "karim@example.com", "days": 30, "reason": "renewal"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"email":"karim@example.com","expiry":"2025-07-30"}`, rec.Body.String())

	rec = ts.admin(t, http.MethodGet, "/api/admin/active-users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users struct {
		Users []struct {
			Email           string `json:"email"`
			Status          string `json:"status"`
			Expiry          string `json:"expiry"`
			ExpiryTimestamp string `json:"expiry_timestamp"`
			DaysRemaining   int    `json:"days_remaining"`
			ExtensionReason string `json:"extension_reason"`
		} `json:"users"`
	}
	decode(t, rec, &users)
	require.Len(t, users.Users, 1)
	assert.Equal(t, "2025-07-30", users.Users[0].Expiry)
	assert.Equal(t, "2025-07-30", users.Users[0].ExpiryTimestamp)
	assert.Equal(t, 210, users.Users[0].DaysRemaining)
	assert.Equal(t, "renewal", users.Users[0].ExtensionReason)

	rec = ts.admin(t, http.MethodPost, "/api/admin/revoke", map[string]any{"email": "karim@example.com", "reason": "refund"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "karim@example.com"}, false, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	var denied errorBody
	decode(t, rec, &denied)
	assert.False(t, denied.Success)
	assert.Equal(t, "LICENSE_NOT_ACTIVE", denied.Code)
	assert.Equal(t, "Account not active", denied.Error)

	rec = ts.admin(t, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"stats":{"total_requests":1,"pending_requests":0,"approved_requests":1,"active_users":0,"expired_users":0}}`, rec.Body.String())
}

func TestUserLoginExpired(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, "late@example.com")

	rec := ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "pro", "days_valid": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	ts.clock.Advance(24 * time.Hour)
	rec = ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "late@example.com"}, false, false)
	require.Equal(t, http.StatusOK, rec.Code, "expiry day itself is still valid")

	ts.clock.Advance(24 * time.Hour)
	rec = ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "late@example.com"}, false, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "LICENSE_EXPIRED", body.Code)
	assert.Equal(t, "Account expired", body.Message)
}

func TestNotFoundResponses(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "ghost@example.com"}, false, false)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "User not found", body.Error)

	rec = ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": "nope", "plan": "pro", "days_valid": 30})
	require.Equal(t, http.StatusNotFound, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Request not found", body.Error)

	rec = ts.admin(t, http.MethodPost, "/api/admin/extend", map[string]any{"email": "ghost@example.com", "days": 30})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.admin(t, http.MethodPost, "/api/admin/revoke", map[string]any{"email": "ghost@example.com"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.admin(t, http.MethodPost, "/api/admin/reject", map[string]any{"request_id": "nope", "reason": "spam"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveTwiceConflicts(t *testing.T) {
	ts := newTestServer(t)
	id := ts.submit(t, "twice@example.com")

	rec := ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "pro", "days_valid": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "pro", "days_valid": 90})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.admin(t, http.MethodGet, "/api/admin/active-users", nil)
	var users struct {
		Users []struct {
			Expiry string `json:"expiry"`
		} `json:"users"`
	}
	decode(t, rec, &users)
	require.Len(t, users.Users, 1)
	assert.Equal(t, "2025-01-31", users.Users[0].Expiry)
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/user/request", map[string]any{"name": "No Email", "plan": "basic"}, false, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	require.NotEmpty(t, body.Details)
	assert.Equal(t, "Email", body.Details[0].Field)

	rec = ts.admin(t, http.MethodPost, "/api/admin/extend", map[string]any{"email": "a@example.com", "days": -5})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.admin(t, http.MethodPost, "/api/admin/extend", map[string]any{"email": "a@example.com", "days": 36501})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	id := ts.submit(t, "huge@example.com")
	rec = ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "pro", "days_valid": 1 << 40})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/user/request", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAcceptsPaddedMixedCaseEmail(t *testing.T) {
	ts := newTestServer(t)

	id := ts.submit(t, " Jane@Example.COM ")
	rec := ts.admin(t, http.MethodPost, "/api/admin/approve", map[string]any{"request_id": id, "plan": "basic", "days_valid": 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "jane@example.com"}, false, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"user":{"email":"jane@example.com","name":"Karim","plan":"basic","expiry":"2025-01-31"}}`, rec.Body.String())
}

func TestAdminGuards(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/admin/stats", nil, false, true)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/stats", nil, true, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("X-API-Key", "cnc_unknown1_secretsecret")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": "stranger@example.com", "password": adminPassword}, true, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": adminEmail, "password": "wrong"}, true, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": adminEmail, "password": adminPassword}, false, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.admin(t, http.MethodGet, "/api/admin/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"email":"admin@example.com"}`, rec.Body.String())

	ts.clock.Advance(2 * time.Hour)
	rec = ts.admin(t, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyManagement(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.admin(t, http.MethodPost, "/api/admin/apikeys", map[string]string{"description": "desktop client"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID      string `json:"id"`
		FullKey string `json:"full_key"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.FullKey)

	rec = ts.admin(t, http.MethodGet, "/api/admin/apikeys", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var keys []map[string]any
	decode(t, rec, &keys)
	assert.Len(t, keys, 2)
	for _, k := range keys {
		assert.NotContains(t, k, "full_key")
		assert.NotContains(t, k, "key_hash")
	}

	rec = ts.admin(t, http.MethodDelete, "/api/admin/apikeys/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.admin(t, http.MethodDelete, "/api/admin/apikeys/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ts.apiKey = created.FullKey
	rec = ts.admin(t, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthWithoutDependencies(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil, false, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"database":"disabled","redis":"disabled"}}`, rec.Body.String())
}
