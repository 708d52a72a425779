package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/infrastructure/persistence/models"
)

// GormReferenceRepository implements ReferenceRepository using GORM. All
// upserts key on remote_id so re-running a sync never duplicates rows.
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GormReferenceRepository
func NewGormReferenceRepository(db *gorm.DB) *GormReferenceRepository {
	return &GormReferenceRepository{db: db}
}

// ---------------------------------------------------------------------------
// Upserts
// ---------------------------------------------------------------------------

// UpsertZone inserts or updates a zone by remote id.
func (r *GormReferenceRepository) UpsertZone(ctx context.Context, z *challan.Zone) (bool, error) {
	var model models.ZoneModel
	err := r.db.WithContext(ctx).Where("remote_id = ?", z.RemoteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.ZoneModel{
			BaseModel: models.BaseModel{ID: uuid.New()},
			RemoteID:  z.RemoteID,
			Name:      z.Name,
		}
		return true, r.db.WithContext(ctx).Create(&model).Error
	}
	if err != nil {
		return false, err
	}

	model.Name = z.Name
	return false, r.db.WithContext(ctx).Save(&model).Error
}

// UpsertDivision inserts or updates a division by remote id.
func (r *GormReferenceRepository) UpsertDivision(ctx context.Context, d *challan.Division) (bool, error) {
	var model models.DivisionModel
	err := r.db.WithContext(ctx).Where("remote_id = ?", d.RemoteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.DivisionModel{
			BaseModel:    models.BaseModel{ID: uuid.New()},
			RemoteID:     d.RemoteID,
			Name:         d.Name,
			ZoneRemoteID: d.ZoneRemoteID,
		}
		return true, r.db.WithContext(ctx).Create(&model).Error
	}
	if err != nil {
		return false, err
	}

	model.Name = d.Name
	model.ZoneRemoteID = d.ZoneRemoteID
	return false, r.db.WithContext(ctx).Save(&model).Error
}

// UpsertCircle inserts or updates a circle by remote id.
func (r *GormReferenceRepository) UpsertCircle(ctx context.Context, c *challan.Circle) (bool, error) {
	var model models.CircleModel
	err := r.db.WithContext(ctx).Where("remote_id = ?", c.RemoteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.CircleModel{
			BaseModel:        models.BaseModel{ID: uuid.New()},
			RemoteID:         c.RemoteID,
			Name:             c.Name,
			DivisionRemoteID: c.DivisionRemoteID,
			ZoneRemoteID:     c.ZoneRemoteID,
		}
		return true, r.db.WithContext(ctx).Create(&model).Error
	}
	if err != nil {
		return false, err
	}

	model.Name = c.Name
	model.DivisionRemoteID = c.DivisionRemoteID
	model.ZoneRemoteID = c.ZoneRemoteID
	return false, r.db.WithContext(ctx).Save(&model).Error
}

// UpsertCommissionRate inserts or updates a commission rate by remote id.
func (r *GormReferenceRepository) UpsertCommissionRate(ctx context.Context, cr *challan.CommissionRate) (bool, error) {
	var model models.CommissionRateModel
	err := r.db.WithContext(ctx).Where("remote_id = ?", cr.RemoteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.CommissionRateModel{
			BaseModel:           models.BaseModel{ID: uuid.New()},
			RemoteID:            cr.RemoteID,
			Name:                cr.Name,
			Rate:                cr.Rate,
			ZoneRemoteID:        cr.ZoneRemoteID,
			DivisionRemoteID:    cr.DivisionRemoteID,
			CircleRemoteID:      cr.CircleRemoteID,
			ServiceTypeRemoteID: cr.ServiceTypeRemoteID,
		}
		return true, r.db.WithContext(ctx).Create(&model).Error
	}
	if err != nil {
		return false, err
	}

	model.Name = cr.Name
	model.Rate = cr.Rate
	model.ZoneRemoteID = cr.ZoneRemoteID
	model.DivisionRemoteID = cr.DivisionRemoteID
	model.CircleRemoteID = cr.CircleRemoteID
	model.ServiceTypeRemoteID = cr.ServiceTypeRemoteID
	return false, r.db.WithContext(ctx).Save(&model).Error
}

// UpsertServiceType inserts or updates a service type by remote id.
func (r *GormReferenceRepository) UpsertServiceType(ctx context.Context, s *challan.ServiceType) (bool, error) {
	var model models.ServiceTypeModel
	err := r.db.WithContext(ctx).Where("remote_id = ?", s.RemoteID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = models.ServiceTypeModel{
			BaseModel: models.BaseModel{ID: uuid.New()},
			RemoteID:  s.RemoteID,
			Code:      s.Code,
			Name:      s.Name,
		}
		return true, r.db.WithContext(ctx).Create(&model).Error
	}
	if err != nil {
		return false, err
	}

	model.Code = s.Code
	model.Name = s.Name
	return false, r.db.WithContext(ctx).Save(&model).Error
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

// ListZones returns all zones ordered by name.
func (r *GormReferenceRepository) ListZones(ctx context.Context) ([]challan.Zone, error) {
	var zoneModels []models.ZoneModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&zoneModels).Error; err != nil {
		return nil, err
	}

	zones := make([]challan.Zone, len(zoneModels))
	for i, model := range zoneModels {
		zones[i] = *model.ToDomain()
	}
	return zones, nil
}

// ListDivisions returns divisions, optionally scoped to a zone.
func (r *GormReferenceRepository) ListDivisions(ctx context.Context, filter challan.ReferenceFilter) ([]challan.Division, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if filter.ZoneRemoteID != "" {
		query = query.Where("zone_remote_id = ?", filter.ZoneRemoteID)
	}

	var divisionModels []models.DivisionModel
	if err := query.Find(&divisionModels).Error; err != nil {
		return nil, err
	}

	divisions := make([]challan.Division, len(divisionModels))
	for i, model := range divisionModels {
		divisions[i] = *model.ToDomain()
	}
	return divisions, nil
}

// ListCircles returns circles, optionally scoped to a zone or division.
func (r *GormReferenceRepository) ListCircles(ctx context.Context, filter challan.ReferenceFilter) ([]challan.Circle, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if filter.ZoneRemoteID != "" {
		query = query.Where("zone_remote_id = ?", filter.ZoneRemoteID)
	}
	if filter.DivisionRemoteID != "" {
		query = query.Where("division_remote_id = ?", filter.DivisionRemoteID)
	}

	var circleModels []models.CircleModel
	if err := query.Find(&circleModels).Error; err != nil {
		return nil, err
	}

	circles := make([]challan.Circle, len(circleModels))
	for i, model := range circleModels {
		circles[i] = *model.ToDomain()
	}
	return circles, nil
}

// ListCommissionRates returns commission rates, optionally scoped to a zone
// or division.
func (r *GormReferenceRepository) ListCommissionRates(ctx context.Context, filter challan.ReferenceFilter) ([]challan.CommissionRate, error) {
	query := r.db.WithContext(ctx).Order("remote_id ASC")
	if filter.ZoneRemoteID != "" {
		query = query.Where("zone_remote_id = ?", filter.ZoneRemoteID)
	}
	if filter.DivisionRemoteID != "" {
		query = query.Where("division_remote_id = ?", filter.DivisionRemoteID)
	}

	var rateModels []models.CommissionRateModel
	if err := query.Find(&rateModels).Error; err != nil {
		return nil, err
	}

	rates := make([]challan.CommissionRate, len(rateModels))
	for i, model := range rateModels {
		rates[i] = *model.ToDomain()
	}
	return rates, nil
}

// ListServiceTypes returns all service types ordered by name.
func (r *GormReferenceRepository) ListServiceTypes(ctx context.Context) ([]challan.ServiceType, error) {
	var typeModels []models.ServiceTypeModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&typeModels).Error; err != nil {
		return nil, err
	}

	types := make([]challan.ServiceType, len(typeModels))
	for i, model := range typeModels {
		types[i] = *model.ToDomain()
	}
	return types, nil
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// FindDivisionByRemoteID finds a division by its authority id.
func (r *GormReferenceRepository) FindDivisionByRemoteID(ctx context.Context, remoteID string) (*challan.Division, error) {
	var model models.DivisionModel
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrDivisionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCircleByRemoteID finds a circle by its authority id.
func (r *GormReferenceRepository) FindCircleByRemoteID(ctx context.Context, remoteID string) (*challan.Circle, error) {
	var model models.CircleModel
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrCircleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCommissionRateByRemoteID finds a commission rate by its authority id.
func (r *GormReferenceRepository) FindCommissionRateByRemoteID(ctx context.Context, remoteID string) (*challan.CommissionRate, error) {
	var model models.CommissionRateModel
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrCommissionRateNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindServiceTypeByRemoteID finds a service type by its authority id.
func (r *GormReferenceRepository) FindServiceTypeByRemoteID(ctx context.Context, remoteID string) (*challan.ServiceType, error) {
	var model models.ServiceTypeModel
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrServiceTypeNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormReferenceRepository implements ReferenceRepository
var _ challan.ReferenceRepository = (*GormReferenceRepository)(nil)
