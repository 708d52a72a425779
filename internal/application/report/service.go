// Package report serves read-only sales and challan rollups.
package report

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// Service answers reporting queries. It is read-only and never mutates
// invoices or registrations.
type Service struct {
	reports  challan.ReportRepository
	invoices challan.VATInvoiceRepository
	refs     challan.ReferenceRepository
	logger   *zap.Logger
}

// NewService creates a new report Service
func NewService(
	reports challan.ReportRepository,
	invoices challan.VATInvoiceRepository,
	refs challan.ReferenceRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reports: reports, invoices: invoices, refs: refs, logger: logger}
}

// ServiceTypeWiseSales groups invoiced sales by service type over a period.
// Group labels are resolved to service type names where the reference data is
// synced; unknown remote ids keep the id as the label.
func (s *Service) ServiceTypeWiseSales(ctx context.Context, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	summaries, err := s.reports.ServiceTypeWiseSales(ctx, period)
	if err != nil {
		return nil, err
	}

	names, err := s.serviceTypeNames(ctx)
	if err != nil {
		s.logger.Warn("service type names unavailable, labels fall back to remote ids", zap.Error(err))
		return summaries, nil
	}
	for i := range summaries {
		if name, ok := names[summaries[i].GroupKey]; ok {
			summaries[i].GroupLabel = name
		}
	}
	return summaries, nil
}

// BranchWiseSales groups invoiced sales by branch over a period, optionally
// scoped to one retailer. Invoices without a branch roll up under an empty
// group key labeled "Head Office".
func (s *Service) BranchWiseSales(ctx context.Context, retailerID *uuid.UUID, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	summaries, err := s.reports.BranchWiseSales(ctx, retailerID, period)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].GroupKey == "" && summaries[i].GroupLabel == "" {
			summaries[i].GroupLabel = "Head Office"
		}
	}
	return summaries, nil
}

// ChallanRegister lists invoices for audit export, newest first.
func (s *Service) ChallanRegister(ctx context.Context, filter challan.InvoiceFilter) ([]challan.VATInvoice, error) {
	return s.invoices.List(ctx, filter)
}

func (s *Service) serviceTypeNames(ctx context.Context) (map[string]string, error) {
	types, err := s.refs.ListServiceTypes(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(types))
	for _, t := range types {
		names[t.RemoteID] = t.Name
	}
	return names, nil
}
