package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// GormReportRepository implements ReportRepository with aggregate SQL over
// the vat_invoices table.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// salesSummaryRow is the scan target for the rollup queries.
type salesSummaryRow struct {
	GroupKey        string
	GroupLabel      string
	TxnCount        int64
	PendingCount    int64
	SyncedCount     int64
	FailedCount     int64
	ReturnCount     int64
	TxnTotal        string
	VATTotal        string
	DiscountTotal   string
	ReturnedTotal   string
	UniqueCustomers int64
}

const salesSummarySelect = `
	COUNT(*) AS txn_count,
	COUNT(*) FILTER (WHERE status = 'Pending') AS pending_count,
	COUNT(*) FILTER (WHERE status = 'Synced') AS synced_count,
	COUNT(*) FILTER (WHERE status = 'Failed') AS failed_count,
	COUNT(*) FILTER (WHERE status IN ('Return', 'Partly Return')) AS return_count,
	COALESCE(SUM(txn_amount), 0)::text AS txn_total,
	COALESCE(SUM(vat_amount), 0)::text AS vat_total,
	COALESCE(SUM(discount_amount), 0)::text AS discount_total,
	COALESCE(SUM(returned_amount), 0)::text AS returned_total,
	COUNT(DISTINCT customer_id) FILTER (WHERE customer_id <> '') AS unique_customers`

// ServiceTypeWiseSales groups invoices by service type.
func (r *GormReportRepository) ServiceTypeWiseSales(ctx context.Context, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	query := r.db.WithContext(ctx).
		Table("vat_invoices").
		Select("service_type AS group_key, service_type AS group_label," + salesSummarySelect).
		Group("service_type").
		Order("service_type ASC")
	query = applyPeriod(query, period)

	var rows []salesSummaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toSalesSummaries(rows)
}

// BranchWiseSales groups invoices by branch. Invoices without a branch roll
// up under an empty group key.
func (r *GormReportRepository) BranchWiseSales(ctx context.Context, retailerID *uuid.UUID, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	query := r.db.WithContext(ctx).
		Table("vat_invoices").
		Select("COALESCE(branch_id::text, '') AS group_key, COALESCE(remote_branch_id, '') AS group_label," + salesSummarySelect).
		Group("branch_id, remote_branch_id").
		Order("group_key ASC")
	if retailerID != nil {
		query = query.Where("retailer_id = ?", *retailerID)
	}
	query = applyPeriod(query, period)

	var rows []salesSummaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toSalesSummaries(rows)
}

// applyPeriod applies the report date range to a query.
func applyPeriod(query *gorm.DB, period challan.ReportPeriod) *gorm.DB {
	if period.FromDate != nil {
		query = query.Where("invoice_date >= ?", *period.FromDate)
	}
	if period.ToDate != nil {
		query = query.Where("invoice_date <= ?", *period.ToDate)
	}
	return query
}

// toSalesSummaries converts scan rows to domain summaries. Totals are scanned
// as text to keep decimal precision.
func toSalesSummaries(rows []salesSummaryRow) ([]challan.SalesSummary, error) {
	summaries := make([]challan.SalesSummary, 0, len(rows))
	for _, row := range rows {
		summary := challan.SalesSummary{
			GroupKey:        row.GroupKey,
			GroupLabel:      row.GroupLabel,
			TxnCount:        row.TxnCount,
			PendingCount:    row.PendingCount,
			SyncedCount:     row.SyncedCount,
			FailedCount:     row.FailedCount,
			ReturnCount:     row.ReturnCount,
			UniqueCustomers: row.UniqueCustomers,
		}
		var err error
		if summary.TxnTotal, err = parseDecimalColumn(row.TxnTotal); err != nil {
			return nil, err
		}
		if summary.VATTotal, err = parseDecimalColumn(row.VATTotal); err != nil {
			return nil, err
		}
		if summary.DiscountTotal, err = parseDecimalColumn(row.DiscountTotal); err != nil {
			return nil, err
		}
		if summary.ReturnedTotal, err = parseDecimalColumn(row.ReturnedTotal); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Ensure GormReportRepository implements ReportRepository
var _ challan.ReportRepository = (*GormReportRepository)(nil)
