package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/infrastructure/persistence/models"
)

// GormVendorConfigRepository implements VendorConfigurationRepository using GORM
type GormVendorConfigRepository struct {
	db *gorm.DB
}

// NewGormVendorConfigRepository creates a new GormVendorConfigRepository
func NewGormVendorConfigRepository(db *gorm.DB) *GormVendorConfigRepository {
	return &GormVendorConfigRepository{db: db}
}

// FindCurrent returns the active configuration. It always reads fresh state
// so a token stored by a concurrent request is visible.
func (r *GormVendorConfigRepository) FindCurrent(ctx context.Context) (*challan.VendorConfiguration, error) {
	var model models.VendorConfigurationModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the configuration.
func (r *GormVendorConfigRepository) Save(ctx context.Context, cfg *challan.VendorConfiguration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	model := models.VendorConfigurationModelFromDomain(cfg)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveToken persists only the token fields.
func (r *GormVendorConfigRepository) SaveToken(ctx context.Context, id uuid.UUID, token, companyID string, expiresAt time.Time) error {
	updates := map[string]any{
		"access_token":     token,
		"token_expires_at": expiresAt,
		"updated_at":       gorm.Expr("NOW()"),
	}
	if companyID != "" {
		updates["company_id"] = companyID
	}

	result := r.db.WithContext(ctx).
		Model(&models.VendorConfigurationModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return challan.ErrConfigNotFound
	}
	return nil
}

// Ensure GormVendorConfigRepository implements VendorConfigurationRepository
var _ challan.VendorConfigurationRepository = (*GormVendorConfigRepository)(nil)
