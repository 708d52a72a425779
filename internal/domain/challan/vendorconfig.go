package challan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VendorConfiguration holds the credentials and token state for the tax
// authority integration. Exactly one active row exists; the token fields are
// mutated only through the token manager.
type VendorConfiguration struct {
	ID             uuid.UUID
	BaseURL        string
	ClientID       string
	ClientSecret   string
	CompanyID      string
	AccessToken    string
	TokenExpiresAt *time.Time
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate reports whether the configuration can be used to authenticate.
// Missing credentials are fatal and each names the field an operator has to
// fill in.
func (c *VendorConfiguration) Validate() error {
	if c.Disabled {
		return ErrConfigDisabled
	}
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingSecret
	}
	return nil
}

// TokenValid reports whether the stored access token can still be presented.
// A token with no recorded expiry is treated as expired.
func (c *VendorConfiguration) TokenValid(now time.Time) bool {
	if c.AccessToken == "" || c.TokenExpiresAt == nil {
		return false
	}
	return now.Before(*c.TokenExpiresAt)
}

// ApplyToken records a freshly issued token on the configuration.
func (c *VendorConfiguration) ApplyToken(token, companyID string, expiresAt time.Time) {
	c.AccessToken = token
	c.TokenExpiresAt = &expiresAt
	if companyID != "" {
		c.CompanyID = companyID
	}
}

// VendorConfigurationRepository persists the singleton configuration.
type VendorConfigurationRepository interface {
	// FindCurrent returns the active configuration, reading fresh state so a
	// token stored by a concurrent request is visible. Returns
	// ErrConfigNotFound when no row exists.
	FindCurrent(ctx context.Context) (*VendorConfiguration, error)

	// Save upserts the configuration.
	Save(ctx context.Context, cfg *VendorConfiguration) error

	// SaveToken persists only the token fields, leaving operator-managed
	// credentials untouched.
	SaveToken(ctx context.Context, id uuid.UUID, token, companyID string, expiresAt time.Time) error
}
