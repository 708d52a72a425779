package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/infrastructure/persistence/models"
)

// GormVATInvoiceRepository implements VATInvoiceRepository using GORM
type GormVATInvoiceRepository struct {
	db *gorm.DB
}

// NewGormVATInvoiceRepository creates a new GormVATInvoiceRepository
func NewGormVATInvoiceRepository(db *gorm.DB) *GormVATInvoiceRepository {
	return &GormVATInvoiceRepository{db: db}
}

// Save creates or updates an invoice.
func (r *GormVATInvoiceRepository) Save(ctx context.Context, inv *challan.VATInvoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	model := models.VATInvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an invoice by its ID.
func (r *GormVATInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*challan.VATInvoice, error) {
	var model models.VATInvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceNumber finds an invoice by its POS invoice number.
func (r *GormVATInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*challan.VATInvoice, error) {
	var model models.VATInvoiceModel
	if err := r.db.WithContext(ctx).Where("invoice_number = ?", invoiceNumber).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challan.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns invoices matching the filter, newest first.
func (r *GormVATInvoiceRepository) List(ctx context.Context, filter challan.InvoiceFilter) ([]challan.VATInvoice, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.VATInvoiceModel{}), filter)

	var invoiceModels []models.VATInvoiceModel
	if err := query.Order("created_at DESC").Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]challan.VATInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// ListSyncable returns Pending and Failed invoices in ascending creation
// order. Batch sync depends on this ordering being deterministic.
func (r *GormVATInvoiceRepository) ListSyncable(ctx context.Context) ([]challan.VATInvoice, error) {
	var invoiceModels []models.VATInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			challan.InvoiceStatusPending.String(),
			challan.InvoiceStatusFailed.String(),
		}).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]challan.VATInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// applyFilter applies the invoice filter to the query.
func (r *GormVATInvoiceRepository) applyFilter(query *gorm.DB, filter challan.InvoiceFilter) *gorm.DB {
	if filter.InvoiceNumber != "" {
		query = query.Where("invoice_number = ?", filter.InvoiceNumber)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" && filter.Status.IsValid() {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.FromDate != nil {
		query = query.Where("invoice_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("invoice_date <= ?", *filter.ToDate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}
	return query
}

// Ensure GormVATInvoiceRepository implements VATInvoiceRepository
var _ challan.VATInvoiceRepository = (*GormVATInvoiceRepository)(nil)
