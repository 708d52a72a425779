package challan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Invoice status
// ---------------------------------------------------------------------------

// InvoiceStatus tracks a VAT invoice through the challan lifecycle.
type InvoiceStatus string

const (
	// InvoiceStatusPending means the invoice exists locally and has not been
	// submitted yet.
	InvoiceStatusPending InvoiceStatus = "Pending"
	// InvoiceStatusSynced means the authority accepted the challan.
	InvoiceStatusSynced InvoiceStatus = "Synced"
	// InvoiceStatusFailed means submission failed; the raw response is kept
	// and the invoice stays eligible for retry.
	InvoiceStatusFailed InvoiceStatus = "Failed"
	// InvoiceStatusReturn means the full invoiced amount was returned.
	InvoiceStatusReturn InvoiceStatus = "Return"
	// InvoiceStatusPartlyReturn means part of the invoiced amount was
	// returned.
	InvoiceStatusPartlyReturn InvoiceStatus = "Partly Return"
)

// IsValid returns true if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusSynced, InvoiceStatusFailed,
		InvoiceStatusReturn, InvoiceStatusPartlyReturn:
		return true
	default:
		return false
	}
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanSync reports whether the invoice may be (re)submitted.
func (s InvoiceStatus) CanSync() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusFailed
}

// HasChallan reports whether the authority holds a challan for the invoice.
func (s InvoiceStatus) HasChallan() bool {
	switch s {
	case InvoiceStatusSynced, InvoiceStatusReturn, InvoiceStatusPartlyReturn:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// VATInvoice
// ---------------------------------------------------------------------------

// VATInvoice is a point-of-sale transaction to be reported to the authority
// as a challan. VATAmount is fixed at creation and never mutated; returns
// accumulate in ReturnedAmount only.
type VATInvoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	OrderID       string
	InvoiceDate   time.Time
	RetailerID    uuid.UUID
	BranchID      *uuid.UUID
	// RemoteRetailerID and RemoteBranchID are the authority's identifiers,
	// captured at creation so submission never depends on a lookup.
	RemoteRetailerID string
	RemoteBranchID   string
	CustomerID       string
	ServiceType      string // remote id of the service type
	PaymentMethod    string
	TxnAmount        decimal.Decimal
	DiscountAmount   decimal.Decimal
	ServiceCharge    decimal.Decimal
	VATRate          decimal.Decimal
	VATAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	ReturnedAmount   decimal.Decimal
	ReturnInvoiceNo  string
	RemoteChallanID  string
	SchallanURL      string
	Status           InvoiceStatus
	LastResponse     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ComputeVAT derives the VAT amount from a taxable amount and a percentage
// rate, rounded to two places.
func ComputeVAT(taxable, rate decimal.Decimal) decimal.Decimal {
	return taxable.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
}

// MarkSynced records an accepted challan.
func (v *VATInvoice) MarkSynced(challanID, rawResponse string) error {
	if !v.Status.CanSync() {
		return ErrInvoiceNotSyncable
	}
	v.RemoteChallanID = challanID
	v.Status = InvoiceStatusSynced
	v.LastResponse = rawResponse
	return nil
}

// MarkFailed records a rejected or errored submission. The invoice remains
// retryable.
func (v *VATInvoice) MarkFailed(rawResponse string) error {
	if !v.Status.CanSync() {
		return ErrInvoiceNotSyncable
	}
	v.Status = InvoiceStatusFailed
	v.LastResponse = rawResponse
	return nil
}

// ApplyReturn accumulates a return against a synced invoice and moves the
// status to Return or Partly Return. The original VATAmount is untouched.
func (v *VATInvoice) ApplyReturn(amount decimal.Decimal, returnInvoiceNo, rawResponse string) error {
	if !v.Status.HasChallan() || v.Status == InvoiceStatusReturn {
		return ErrInvoiceNotReturnable
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrReturnAmountInvalid
	}
	total := v.ReturnedAmount.Add(amount)
	if total.GreaterThan(v.TotalAmount) {
		return ErrReturnExceedsInvoice
	}
	v.ReturnedAmount = total
	v.ReturnInvoiceNo = returnInvoiceNo
	v.LastResponse = rawResponse
	if total.Equal(v.TotalAmount) {
		v.Status = InvoiceStatusReturn
	} else {
		v.Status = InvoiceStatusPartlyReturn
	}
	return nil
}

// ---------------------------------------------------------------------------
// Repository port
// ---------------------------------------------------------------------------

// InvoiceFilter narrows invoice listings and reports.
type InvoiceFilter struct {
	InvoiceNumber string
	OrderID       string
	Status        InvoiceStatus
	ServiceType   string
	RetailerID    *uuid.UUID
	BranchID      *uuid.UUID
	FromDate      *time.Time
	ToDate        *time.Time
	Limit         int
	Offset        int
}

// VATInvoiceRepository persists VAT invoices.
type VATInvoiceRepository interface {
	Save(ctx context.Context, inv *VATInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*VATInvoice, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*VATInvoice, error)

	// List returns invoices matching the filter, newest first.
	List(ctx context.Context, filter InvoiceFilter) ([]VATInvoice, error)

	// ListSyncable returns Pending and Failed invoices in ascending creation
	// order so batch sync processes them deterministically.
	ListSyncable(ctx context.Context) ([]VATInvoice, error)
}
