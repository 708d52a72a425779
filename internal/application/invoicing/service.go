// Package invoicing manages the VAT invoice lifecycle: creation from sales,
// challan submission, returns, and signed challan retrieval.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// SchallanURLTTL bounds how long a presigned schallan link stays valid.
const SchallanURLTTL = 15 * time.Minute

// CreateInvoiceInput carries a point-of-sale transaction into the challan
// pipeline.
type CreateInvoiceInput struct {
	InvoiceNumber  string
	OrderID        string
	InvoiceDate    time.Time
	RetailerID     uuid.UUID
	BranchID       *uuid.UUID
	CustomerID     string
	ServiceType    string // remote id of the service type
	PaymentMethod  string
	TxnAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	ServiceCharge  decimal.Decimal
}

// SyncOutcome reports one invoice's result in a batch sync run.
type SyncOutcome struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Status        challan.InvoiceStatus
	ChallanID     string
	Err           string
}

// Service drives the invoice lifecycle.
type Service struct {
	gateway  challan.AuthorityGateway
	invoices challan.VATInvoiceRepository
	regs     challan.RegistrationRepository
	refs     challan.ReferenceRepository
	store    challan.ObjectStore
	logger   *zap.Logger
}

// NewService creates a new invoicing Service
func NewService(
	gateway challan.AuthorityGateway,
	invoices challan.VATInvoiceRepository,
	regs challan.RegistrationRepository,
	refs challan.ReferenceRepository,
	store challan.ObjectStore,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:  gateway,
		invoices: invoices,
		regs:     regs,
		refs:     refs,
		store:    store,
		logger:   logger,
	}
}

// CreateFromSale builds a Pending VAT invoice from a sale. Re-posting the same
// invoice number returns the existing invoice unchanged, so callers can retry
// safely. VAT is computed once here and never recomputed.
func (s *Service) CreateFromSale(ctx context.Context, input CreateInvoiceInput) (*challan.VATInvoice, error) {
	existing, err := s.invoices.FindByInvoiceNumber(ctx, input.InvoiceNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, challan.ErrInvoiceNotFound) {
		return nil, err
	}

	retailer, err := s.regs.FindRetailer(ctx, input.RetailerID)
	if err != nil {
		return nil, err
	}
	if !retailer.Status.IsRegistered() || retailer.RemoteRetailerID == "" {
		return nil, challan.ErrRetailerNotRegistered
	}

	var remoteBranchID string
	if input.BranchID != nil {
		branch, err := s.regs.FindBranch(ctx, *input.BranchID)
		if err != nil {
			return nil, err
		}
		if branch.RetailerID != retailer.ID || !branch.Status.IsRegistered() {
			return nil, challan.ErrParentNotRegistered
		}
		remoteBranchID = branch.RemoteBranchID
	}

	rate, err := s.resolveRate(ctx, retailer, input.ServiceType)
	if err != nil {
		return nil, err
	}

	taxable := input.TxnAmount.Sub(input.DiscountAmount).Add(input.ServiceCharge)
	vat := challan.ComputeVAT(taxable, rate.Rate)

	inv := &challan.VATInvoice{
		InvoiceNumber:    input.InvoiceNumber,
		OrderID:          input.OrderID,
		InvoiceDate:      input.InvoiceDate,
		RetailerID:       retailer.ID,
		BranchID:         input.BranchID,
		RemoteRetailerID: retailer.RemoteRetailerID,
		RemoteBranchID:   remoteBranchID,
		CustomerID:       input.CustomerID,
		ServiceType:      input.ServiceType,
		PaymentMethod:    input.PaymentMethod,
		TxnAmount:        input.TxnAmount,
		DiscountAmount:   input.DiscountAmount,
		ServiceCharge:    input.ServiceCharge,
		VATRate:          rate.Rate,
		VATAmount:        vat,
		TotalAmount:      taxable.Add(vat),
		ReturnedAmount:   decimal.Zero,
		Status:           challan.InvoiceStatusPending,
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("vat invoice created",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("vat_amount", inv.VATAmount.StringFixed(2)))
	return inv, nil
}

// SyncInvoice submits one invoice's challan. A transport failure and a remote
// rejection both mark the invoice Failed with the raw payload; the invoice
// stays retryable either way.
func (s *Service) SyncInvoice(ctx context.Context, id uuid.UUID) (*challan.VATInvoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanSync() {
		return nil, challan.ErrInvoiceNotSyncable
	}

	result, err := s.gateway.SubmitChallan(ctx, inv)
	if err != nil {
		if markErr := inv.MarkFailed(err.Error()); markErr == nil {
			if saveErr := s.invoices.Save(ctx, inv); saveErr != nil {
				s.logger.Error("failed to record sync failure",
					zap.String("invoice_number", inv.InvoiceNumber), zap.Error(saveErr))
			}
		}
		return nil, err
	}

	if result.Accepted {
		if err := inv.MarkSynced(result.ChallanID, result.Raw); err != nil {
			return nil, err
		}
	} else {
		if err := inv.MarkFailed(result.Raw); err != nil {
			return nil, err
		}
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("challan submission finished",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("status", inv.Status.String()),
		zap.String("challan_id", inv.RemoteChallanID))
	return inv, nil
}

// AutoSyncInvoices submits every Pending and Failed invoice in creation order.
// One invoice's failure never stops the rest; each outcome is reported.
func (s *Service) AutoSyncInvoices(ctx context.Context) ([]SyncOutcome, error) {
	pending, err := s.invoices.ListSyncable(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]SyncOutcome, 0, len(pending))
	for i := range pending {
		inv := &pending[i]
		outcome := SyncOutcome{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber}

		synced, err := s.SyncInvoice(ctx, inv.ID)
		if err != nil {
			outcome.Status = challan.InvoiceStatusFailed
			outcome.Err = err.Error()
		} else {
			outcome.Status = synced.Status
			outcome.ChallanID = synced.RemoteChallanID
		}
		outcomes = append(outcomes, outcome)
	}

	s.logger.Info("auto sync finished", zap.Int("processed", len(outcomes)))
	return outcomes, nil
}

// ReturnInvoice reports a full or partial return against a synced invoice.
// The return is validated locally before the authority is called, and applied
// locally only after the authority accepts it.
func (s *Service) ReturnInvoice(ctx context.Context, id uuid.UUID, amount decimal.Decimal, returnInvoiceNo string) (*challan.VATInvoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Dry-run the state change on a copy so a rejected remote call leaves the
	// invoice untouched.
	probe := *inv
	if err := probe.ApplyReturn(amount, returnInvoiceNo, ""); err != nil {
		return nil, err
	}

	result, err := s.gateway.ReturnChallan(ctx, inv, amount.StringFixed(2), returnInvoiceNo)
	if err != nil {
		return nil, err
	}
	if !result.Accepted {
		inv.LastResponse = result.Raw
		if saveErr := s.invoices.Save(ctx, inv); saveErr != nil {
			s.logger.Error("failed to record return rejection",
				zap.String("invoice_number", inv.InvoiceNumber), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("%w: %s", challan.ErrAuthorityRequestFailed, result.Raw)
	}

	if err := inv.ApplyReturn(amount, returnInvoiceNo, result.Raw); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("challan return applied",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("status", inv.Status.String()),
		zap.String("returned_amount", inv.ReturnedAmount.StringFixed(2)))
	return inv, nil
}

// DownloadSchallan fetches the signed challan PDF, keeps a copy in object
// storage, and returns a short-lived link to it. The invoice status is never
// changed by a download.
func (s *Service) DownloadSchallan(ctx context.Context, id uuid.UUID) (*challan.ChallanDocument, string, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !inv.Status.HasChallan() || inv.RemoteChallanID == "" {
		return nil, "", challan.ErrInvoiceNotSynced
	}

	doc, err := s.gateway.DownloadChallan(ctx, inv.RemoteChallanID)
	if err != nil {
		return nil, "", err
	}

	key := fmt.Sprintf("schallans/%s.pdf", inv.RemoteChallanID)
	if err := s.store.Put(ctx, key, doc.Content, doc.ContentType); err != nil {
		return nil, "", fmt.Errorf("invoicing: failed to store schallan: %w", err)
	}
	if inv.SchallanURL != key {
		inv.SchallanURL = key
		if err := s.invoices.Save(ctx, inv); err != nil {
			return nil, "", err
		}
	}

	url, err := s.store.URL(ctx, key, SchallanURLTTL)
	if err != nil {
		return nil, "", fmt.Errorf("invoicing: failed to sign schallan url: %w", err)
	}
	return doc, url, nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*challan.VATInvoice, error) {
	return s.invoices.FindByID(ctx, id)
}

// ListInvoices returns invoices matching the filter, newest first.
func (s *Service) ListInvoices(ctx context.Context, filter challan.InvoiceFilter) ([]challan.VATInvoice, error) {
	return s.invoices.List(ctx, filter)
}

// resolveRate picks the VAT rate for a sale: the retailer's configured rate
// when it covers the sale's service type, otherwise the first synced rate that
// does.
func (s *Service) resolveRate(ctx context.Context, retailer *challan.RetailerRegistration, serviceType string) (*challan.CommissionRate, error) {
	if retailer.CommissionRateID != "" {
		rate, err := s.refs.FindCommissionRateByRemoteID(ctx, retailer.CommissionRateID)
		if err != nil {
			return nil, err
		}
		if rate.CoversSelection(retailer.Jurisdiction, serviceType) {
			return rate, nil
		}
	}

	rates, err := s.refs.ListCommissionRates(ctx, challan.ReferenceFilter{})
	if err != nil {
		return nil, err
	}
	for i := range rates {
		if rates[i].CoversSelection(retailer.Jurisdiction, serviceType) {
			return &rates[i], nil
		}
	}
	return nil, challan.ErrRateOutsideSelection
}
