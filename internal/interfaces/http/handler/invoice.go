package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/vatchallan/internal/application/invoicing"
	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/interfaces/http/dto"
)

// InvoiceHandler exposes the VAT invoice lifecycle: creation from a sale,
// challan submission, returns and schallan download.
type InvoiceHandler struct {
	BaseHandler
	invoices *invoicing.Service
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *invoicing.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// CreateInvoiceRequest is the payload for recording a point-of-sale
// transaction as a VAT invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber  string          `json:"invoice_number" binding:"required"`
	OrderID        string          `json:"order_id"`
	InvoiceDate    time.Time       `json:"invoice_date" binding:"required"`
	RetailerID     string          `json:"retailer_id" binding:"required,uuid"`
	BranchID       string          `json:"branch_id" binding:"omitempty,uuid"`
	CustomerID     string          `json:"customer_id"`
	ServiceType    string          `json:"service_type" binding:"required"`
	PaymentMethod  string          `json:"payment_method"`
	TxnAmount      decimal.Decimal `json:"txn_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ServiceCharge  decimal.Decimal `json:"service_charge"`
}

// InvoiceResponse represents a VAT invoice
type InvoiceResponse struct {
	ID              string          `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	OrderID         string          `json:"order_id,omitempty"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	RetailerID      string          `json:"retailer_id"`
	BranchID        string          `json:"branch_id,omitempty"`
	CustomerID      string          `json:"customer_id,omitempty"`
	ServiceType     string          `json:"service_type"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	TxnAmount       decimal.Decimal `json:"txn_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ServiceCharge   decimal.Decimal `json:"service_charge"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ReturnedAmount  decimal.Decimal `json:"returned_amount"`
	ReturnInvoiceNo string          `json:"return_invoice_no,omitempty"`
	ChallanID       string          `json:"challan_id,omitempty"`
	Status          string          `json:"status"`
	LastResponse    string          `json:"last_response,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toInvoiceResponse(inv *challan.VATInvoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		InvoiceDate:     inv.InvoiceDate,
		RetailerID:      inv.RetailerID.String(),
		CustomerID:      inv.CustomerID,
		ServiceType:     inv.ServiceType,
		PaymentMethod:   inv.PaymentMethod,
		TxnAmount:       inv.TxnAmount,
		DiscountAmount:  inv.DiscountAmount,
		ServiceCharge:   inv.ServiceCharge,
		VATRate:         inv.VATRate,
		VATAmount:       inv.VATAmount,
		TotalAmount:     inv.TotalAmount,
		ReturnedAmount:  inv.ReturnedAmount,
		ReturnInvoiceNo: inv.ReturnInvoiceNo,
		ChallanID:       inv.RemoteChallanID,
		Status:          inv.Status.String(),
		LastResponse:    inv.LastResponse,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
	if inv.BranchID != nil {
		resp.BranchID = inv.BranchID.String()
	}
	return resp
}

// Create records a sale as a VAT invoice. Posting the same invoice number
// twice returns the existing invoice unchanged.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if req.TxnAmount.LessThanOrEqual(decimal.Zero) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "txn_amount must be positive")
		return
	}
	if req.DiscountAmount.IsNegative() || req.ServiceCharge.IsNegative() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "discount_amount and service_charge cannot be negative")
		return
	}

	retailerID, err := uuid.Parse(req.RetailerID)
	if err != nil {
		h.BadRequest(c, "invalid retailer id")
		return
	}
	input := invoicing.CreateInvoiceInput{
		InvoiceNumber:  req.InvoiceNumber,
		OrderID:        req.OrderID,
		InvoiceDate:    req.InvoiceDate,
		RetailerID:     retailerID,
		CustomerID:     req.CustomerID,
		ServiceType:    req.ServiceType,
		PaymentMethod:  req.PaymentMethod,
		TxnAmount:      req.TxnAmount,
		DiscountAmount: req.DiscountAmount,
		ServiceCharge:  req.ServiceCharge,
	}
	if req.BranchID != "" {
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			h.BadRequest(c, "invalid branch id")
			return
		}
		input.BranchID = &branchID
	}

	inv, err := h.invoices.CreateFromSale(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}
	inv, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// listInvoicesQuery carries invoice listing filters
type listInvoicesQuery struct {
	InvoiceNumber string `form:"invoice_number"`
	OrderID       string `form:"order_id"`
	Status        string `form:"status"`
	ServiceType   string `form:"service_type"`
	RetailerID    string `form:"retailer_id" binding:"omitempty,uuid"`
	BranchID      string `form:"branch_id" binding:"omitempty,uuid"`
	FromDate      string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate        string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset        int    `form:"offset" binding:"omitempty,min=0"`
}

func (q *listInvoicesQuery) toFilter() (challan.InvoiceFilter, error) {
	filter := challan.InvoiceFilter{
		InvoiceNumber: q.InvoiceNumber,
		OrderID:       q.OrderID,
		Status:        challan.InvoiceStatus(q.Status),
		ServiceType:   q.ServiceType,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if q.RetailerID != "" {
		id, err := uuid.Parse(q.RetailerID)
		if err != nil {
			return filter, err
		}
		filter.RetailerID = &id
	}
	if q.BranchID != "" {
		id, err := uuid.Parse(q.BranchID)
		if err != nil {
			return filter, err
		}
		filter.BranchID = &id
	}
	if q.FromDate != "" {
		from, err := time.Parse("2006-01-02", q.FromDate)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if q.ToDate != "" {
		to, err := time.Parse("2006-01-02", q.ToDate)
		if err != nil {
			return filter, err
		}
		// Inclusive upper bound covering the whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &to
	}
	return filter, nil
}

// List returns invoices matching the query filters, newest first
func (h *InvoiceHandler) List(c *gin.Context) {
	var q listInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	if q.Status != "" && !challan.InvoiceStatus(q.Status).IsValid() {
		h.BadRequest(c, "invalid status filter")
		return
	}
	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoices, err := h.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i]))
	}
	h.Success(c, out)
}

// Sync submits one invoice to the authority as a challan
func (h *InvoiceHandler) Sync(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}
	inv, err := h.invoices.SyncInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// SyncOutcomeResponse reports one invoice of a batch sync
type SyncOutcomeResponse struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
	ChallanID     string `json:"challan_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SyncAll submits every Pending and Failed invoice. One rejection never
// aborts the batch.
func (h *InvoiceHandler) SyncAll(c *gin.Context) {
	outcomes, err := h.invoices.AutoSyncInvoices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]SyncOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		resp := SyncOutcomeResponse{
			InvoiceID:     o.InvoiceID.String(),
			InvoiceNumber: o.InvoiceNumber,
			Status:        o.Status.String(),
			ChallanID:     o.ChallanID,
		}
		if o.Err != "" {
			resp.Error = o.Err
		}
		out = append(out, resp)
	}
	h.Success(c, out)
}

// ReturnInvoiceRequest is the payload for returning part or all of a synced
// invoice.
type ReturnInvoiceRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	ReturnInvoiceNo string          `json:"return_invoice_no" binding:"required"`
}

// Return reports a sales return against a synced invoice
func (h *InvoiceHandler) Return(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}
	var req ReturnInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	inv, err := h.invoices.ReturnInvoice(c.Request.Context(), id, req.Amount, req.ReturnInvoiceNo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// SchallanLinkResponse carries a signed link to a stored schallan copy
type SchallanLinkResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	ExpiresIn string `json:"expires_in"`
}

// DownloadSchallan fetches the rendered challan from the authority, keeps a
// copy in object storage and streams the file. With ?link=true a signed URL
// is returned instead of the file body.
func (h *InvoiceHandler) DownloadSchallan(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	doc, url, err := h.invoices.DownloadSchallan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("link") == "true" {
		h.Success(c, SchallanLinkResponse{
			URL:       url,
			FileName:  doc.FileName,
			ExpiresIn: invoicing.SchallanURLTTL.String(),
		})
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, contentType, doc.Content)
}

func (h *InvoiceHandler) invoiceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return uuid.Nil, false
	}
	return id, true
}
