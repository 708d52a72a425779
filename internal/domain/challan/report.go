package challan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportPeriod bounds a sales rollup.
type ReportPeriod struct {
	FromDate *time.Time
	ToDate   *time.Time
}

// SalesSummary is one rollup row of a sales report. Totals are computed over
// the invoices in the group; ReturnedTotal aggregates returned amounts without
// touching the invoiced VAT figures.
type SalesSummary struct {
	GroupKey        string
	GroupLabel      string
	TxnCount        int64
	PendingCount    int64
	SyncedCount     int64
	FailedCount     int64
	ReturnCount     int64
	TxnTotal        decimal.Decimal
	VATTotal        decimal.Decimal
	DiscountTotal   decimal.Decimal
	ReturnedTotal   decimal.Decimal
	UniqueCustomers int64
}

// ReportRepository serves the read-only reporting queries.
type ReportRepository interface {
	// ServiceTypeWiseSales groups invoices by service type.
	ServiceTypeWiseSales(ctx context.Context, period ReportPeriod) ([]SalesSummary, error)

	// BranchWiseSales groups invoices by branch. Invoices without a branch
	// roll up under an empty group key.
	BranchWiseSales(ctx context.Context, retailerID *uuid.UUID, period ReportPeriod) ([]SalesSummary, error)
}
