// Package authority implements the outbound adapter to the tax authority API.
package authority

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// maxResponseSize is the maximum allowed response size from the authority API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const authenticatePath = "/integration/vendor_authenticate"

// Client talks to the tax authority. Credentials and token state live in the
// vendor configuration record; the client refreshes the token lazily and
// retries a request exactly once with a forced refresh when the authority
// answers 401.
type Client struct {
	configs    challan.VendorConfigurationRepository
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new authority client backed by the vendor
// configuration repository.
func NewClient(configs challan.VendorConfigurationRepository, opts ...ClientOption) *Client {
	c := &Client{
		configs:    configs,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate forces a token refresh and returns the new token's expiry.
func (c *Client) Authenticate(ctx context.Context) (time.Time, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if err := c.refreshToken(ctx, cfg); err != nil {
		return time.Time{}, err
	}
	return *cfg.TokenExpiresAt, nil
}

// loadConfig reads the current vendor configuration and validates it.
func (c *Client) loadConfig(ctx context.Context) (*challan.VendorConfiguration, error) {
	cfg, err := c.configs.FindCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// token returns a usable bearer token, refreshing when the stored one is
// missing, expired, or force is set.
func (c *Client) token(ctx context.Context, force bool) (string, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return "", err
	}
	if !force && cfg.TokenValid(time.Now()) {
		return cfg.AccessToken, nil
	}
	if err := c.refreshToken(ctx, cfg); err != nil {
		return "", err
	}
	return cfg.AccessToken, nil
}

// refreshToken authenticates with HTTP Basic credentials and persists the
// issued token on the configuration record.
func (c *Client) refreshToken(ctx context.Context, cfg *challan.VendorConfiguration) error {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + authenticatePath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("authority: failed to create token request: %w", err)
	}
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", challan.ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("authority: failed to read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", challan.ErrAuthorityAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", challan.ErrAuthorityRequestFailed, resp.StatusCode)
	}

	var tok tokenResponse
	if err := xml.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("%w: token XML parse failed: %v: %s", challan.ErrAuthorityInvalidResponse, err, body)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access_token: %s", challan.ErrAuthorityInvalidResponse, body)
	}

	expiresAt, err := time.ParseInLocation(expiryTimeLayout, tok.ExpiryTime, time.Local)
	if err != nil {
		return fmt.Errorf("%w: bad expiry_time %q: %v", challan.ErrAuthorityInvalidResponse, tok.ExpiryTime, err)
	}

	cfg.ApplyToken(tok.AccessToken, tok.CompanyID, expiresAt)
	if err := c.configs.SaveToken(ctx, cfg.ID, cfg.AccessToken, cfg.CompanyID, expiresAt); err != nil {
		return fmt.Errorf("authority: failed to store token: %w", err)
	}

	c.logger.Info("authority token refreshed", zap.Time("expires_at", expiresAt))
	return nil
}

// do performs an authenticated request. A 401 triggers exactly one forced
// token refresh and retry; a second 401 surfaces as an auth failure. The
// response body is returned even for remote rejections so callers can keep
// the raw payload.
func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, int, error) {
	token, err := c.token(ctx, false)
	if err != nil {
		return nil, 0, err
	}

	body, status, err := c.send(ctx, method, path, contentType, payload, token)
	if err != nil {
		return nil, 0, err
	}
	if status == http.StatusUnauthorized {
		token, err = c.token(ctx, true)
		if err != nil {
			return nil, 0, err
		}
		body, status, err = c.send(ctx, method, path, contentType, payload, token)
		if err != nil {
			return nil, 0, err
		}
		if status == http.StatusUnauthorized {
			return nil, status, fmt.Errorf("%w: still unauthorized after token refresh", challan.ErrAuthorityAuthFailed)
		}
	}
	return body, status, nil
}

// send performs one HTTP round trip with the given bearer token.
func (c *Client) send(ctx context.Context, method, path, contentType string, payload []byte, token string) ([]byte, int, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, 0, err
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("authority: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", challan.ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("authority: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Ensure Client implements the AuthorityGateway port
var _ challan.AuthorityGateway = (*Client)(nil)
