package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/infrastructure/persistence/models"
)

// GormRegistrationRepository implements RegistrationRepository using GORM
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewGormRegistrationRepository creates a new GormRegistrationRepository
func NewGormRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// ---------------------------------------------------------------------------
// Retailers
// ---------------------------------------------------------------------------

// SaveRetailer creates or updates a retailer registration.
func (r *GormRegistrationRepository) SaveRetailer(ctx context.Context, reg *challan.RetailerRegistration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	model := models.RetailerRegistrationModelFromDomain(reg)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindRetailer finds a retailer registration by ID.
func (r *GormRegistrationRepository) FindRetailer(ctx context.Context, id uuid.UUID) (*challan.RetailerRegistration, error) {
	var model models.RetailerRegistrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrRetailerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRetailers returns all retailer registrations, newest first.
func (r *GormRegistrationRepository) ListRetailers(ctx context.Context) ([]challan.RetailerRegistration, error) {
	var retailerModels []models.RetailerRegistrationModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&retailerModels).Error; err != nil {
		return nil, err
	}

	retailers := make([]challan.RetailerRegistration, len(retailerModels))
	for i, model := range retailerModels {
		retailers[i] = *model.ToDomain()
	}
	return retailers, nil
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

// SaveBranch creates or updates a branch registration.
func (r *GormRegistrationRepository) SaveBranch(ctx context.Context, b *challan.BranchRegistration) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	model := models.BranchRegistrationModelFromDomain(b)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindBranch finds a branch registration by ID.
func (r *GormRegistrationRepository) FindBranch(ctx context.Context, id uuid.UUID) (*challan.BranchRegistration, error) {
	var model models.BranchRegistrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrBranchNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListBranches returns the branches of a retailer.
func (r *GormRegistrationRepository) ListBranches(ctx context.Context, retailerID uuid.UUID) ([]challan.BranchRegistration, error) {
	var branchModels []models.BranchRegistrationModel
	if err := r.db.WithContext(ctx).
		Where("retailer_id = ?", retailerID).
		Order("created_at DESC").
		Find(&branchModels).Error; err != nil {
		return nil, err
	}

	branches := make([]challan.BranchRegistration, len(branchModels))
	for i, model := range branchModels {
		branches[i] = *model.ToDomain()
	}
	return branches, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// SaveDocument creates or updates a retailer document record.
func (r *GormRegistrationRepository) SaveDocument(ctx context.Context, d *challan.RetailerDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	model := models.RetailerDocumentModelFromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}

// ListDocuments returns the documents uploaded for a retailer.
func (r *GormRegistrationRepository) ListDocuments(ctx context.Context, retailerID uuid.UUID) ([]challan.RetailerDocument, error) {
	var documentModels []models.RetailerDocumentModel
	if err := r.db.WithContext(ctx).
		Where("retailer_id = ?", retailerID).
		Order("created_at DESC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	documents := make([]challan.RetailerDocument, len(documentModels))
	for i, model := range documentModels {
		documents[i] = *model.ToDomain()
	}
	return documents, nil
}

// Ensure GormRegistrationRepository implements RegistrationRepository
var _ challan.RegistrationRepository = (*GormRegistrationRepository)(nil)
