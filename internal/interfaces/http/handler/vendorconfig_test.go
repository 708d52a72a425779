package handler_test

import (
	"github.com/erp/vatchallan/internal/interfaces/http/handler"

	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/vatchallan/internal/domain/challan"
)

func TestVendorConfig_GetWithoutConfiguration(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodGet, "/api/v1/vendor-config", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_CONFIG_MISSING", resp.Error.Code)
}

func TestVendorConfig_SaveAndGet(t *testing.T) {
	env := newTestEnv()

	body := handler.VendorConfigRequest{
		BaseURL:      "https://vat.example.gov",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}
	w, resp := env.do(t, http.MethodPut, "/api/v1/vendor-config", body)
	require.Equal(t, http.StatusOK, w.Code)

	var saved handler.VendorConfigResponse
	require.NoError(t, json.Unmarshal(resp.Data, &saved))
	assert.Equal(t, "client-1", saved.ClientID)
	assert.False(t, saved.TokenPresent)
	// The secret must never appear in the response payload
	assert.NotContains(t, w.Body.String(), "secret-1")

	w, resp = env.do(t, http.MethodGet, "/api/v1/vendor-config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &saved))
	assert.Equal(t, "https://vat.example.gov", saved.BaseURL)
}

func TestVendorConfig_SaveRejectsMissingFields(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodPut, "/api/v1/vendor-config", map[string]string{
		"base_url": "https://vat.example.gov",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
}

func TestVendorConfig_FetchToken(t *testing.T) {
	env := newTestEnv()
	env.configs.current = &challan.VendorConfiguration{
		ID:           uuid.New(),
		BaseURL:      "https://vat.example.gov",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}
	env.gateway.authExpiry = time.Now().Add(time.Hour)

	w, resp := env.do(t, http.MethodPost, "/api/v1/vendor-config/token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var token handler.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	assert.WithinDuration(t, env.gateway.authExpiry, token.ExpiresAt, time.Second)
}

func TestVendorConfig_FetchTokenAuthFailure(t *testing.T) {
	env := newTestEnv()
	env.gateway.authErr = challan.ErrAuthorityAuthFailed

	w, resp := env.do(t, http.MethodPost, "/api/v1/vendor-config/token", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_AUTHORITY_AUTH", resp.Error.Code)
}
