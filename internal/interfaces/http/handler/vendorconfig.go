package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erp/vatchallan/internal/application/vendorconfig"
	"github.com/erp/vatchallan/internal/domain/challan"
)

// VendorConfigHandler exposes the vendor credential record and the manual
// token refresh endpoint.
type VendorConfigHandler struct {
	BaseHandler
	configs *vendorconfig.Service
}

// NewVendorConfigHandler creates a new VendorConfigHandler
func NewVendorConfigHandler(configs *vendorconfig.Service) *VendorConfigHandler {
	return &VendorConfigHandler{configs: configs}
}

// VendorConfigRequest is the operator-supplied configuration payload. The
// client secret may be omitted on update to keep the stored one.
type VendorConfigRequest struct {
	BaseURL      string `json:"base_url" binding:"required,url"`
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret"`
	CompanyID    string `json:"company_id"`
	Disabled     bool   `json:"disabled"`
}

// VendorConfigResponse is the configuration as exposed to operators. The
// client secret is never returned.
type VendorConfigResponse struct {
	ID             string     `json:"id"`
	BaseURL        string     `json:"base_url"`
	ClientID       string     `json:"client_id"`
	CompanyID      string     `json:"company_id,omitempty"`
	Disabled       bool       `json:"disabled"`
	TokenPresent   bool       `json:"token_present"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toVendorConfigResponse(cfg *challan.VendorConfiguration) VendorConfigResponse {
	return VendorConfigResponse{
		ID:             cfg.ID.String(),
		BaseURL:        cfg.BaseURL,
		ClientID:       cfg.ClientID,
		CompanyID:      cfg.CompanyID,
		Disabled:       cfg.Disabled,
		TokenPresent:   cfg.AccessToken != "",
		TokenExpiresAt: cfg.TokenExpiresAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

// Get returns the current configuration
func (h *VendorConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toVendorConfigResponse(cfg))
}

// Save upserts the configuration
func (h *VendorConfigHandler) Save(c *gin.Context) {
	var req VendorConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	cfg := &challan.VendorConfiguration{
		BaseURL:      req.BaseURL,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		CompanyID:    req.CompanyID,
		Disabled:     req.Disabled,
	}
	saved, err := h.configs.Save(c.Request.Context(), cfg)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toVendorConfigResponse(saved))
}

// TokenResponse reports a forced token refresh
type TokenResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// FetchToken forces a token refresh against the authority so operators can
// verify credentials without waiting for the next outbound call.
func (h *VendorConfigHandler) FetchToken(c *gin.Context) {
	expiresAt, err := h.configs.Authenticate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TokenResponse{ExpiresAt: expiresAt})
}
