// Package vendorconfig manages the tax authority credential record and
// on-demand token refreshes.
package vendorconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// Service exposes the vendor configuration operations.
type Service struct {
	configs challan.VendorConfigurationRepository
	gateway challan.AuthorityGateway
	logger  *zap.Logger
}

// NewService creates a vendor configuration service.
func NewService(configs challan.VendorConfigurationRepository, gateway challan.AuthorityGateway, logger *zap.Logger) *Service {
	return &Service{
		configs: configs,
		gateway: gateway,
		logger:  logger,
	}
}

// Get returns the active configuration. Callers are expected to mask the
// client secret before exposing it.
func (s *Service) Get(ctx context.Context) (*challan.VendorConfiguration, error) {
	return s.configs.FindCurrent(ctx)
}

// Save upserts the singleton configuration. An omitted client secret keeps
// the stored one so operators can update the base URL without re-entering
// credentials. Changing any credential drops the cached token.
func (s *Service) Save(ctx context.Context, cfg *challan.VendorConfiguration) (*challan.VendorConfiguration, error) {
	existing, err := s.configs.FindCurrent(ctx)
	if err != nil && !errors.Is(err, challan.ErrConfigNotFound) {
		return nil, fmt.Errorf("load vendor configuration: %w", err)
	}

	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		if cfg.ClientSecret == "" {
			cfg.ClientSecret = existing.ClientSecret
		}
		if credentialsUnchanged(cfg, existing) {
			cfg.AccessToken = existing.AccessToken
			cfg.TokenExpiresAt = existing.TokenExpiresAt
			if cfg.CompanyID == "" {
				cfg.CompanyID = existing.CompanyID
			}
		}
	} else if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}

	if !cfg.Disabled {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save vendor configuration: %w", err)
	}

	s.logger.Info("vendor configuration saved",
		zap.String("config_id", cfg.ID.String()),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("disabled", cfg.Disabled),
	)
	return cfg, nil
}

// Authenticate forces a token refresh against the authority and returns the
// new token's expiry. The gateway persists the token itself.
func (s *Service) Authenticate(ctx context.Context) (time.Time, error) {
	expiresAt, err := s.gateway.Authenticate(ctx)
	if err != nil {
		s.logger.Warn("vendor authentication failed", zap.Error(err))
		return time.Time{}, err
	}
	s.logger.Info("vendor token refreshed", zap.Time("expires_at", expiresAt))
	return expiresAt, nil
}

func credentialsUnchanged(next, prev *challan.VendorConfiguration) bool {
	return next.BaseURL == prev.BaseURL &&
		next.ClientID == prev.ClientID &&
		next.ClientSecret == prev.ClientSecret
}
