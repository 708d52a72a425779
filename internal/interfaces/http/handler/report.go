package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/vatchallan/internal/application/report"
	"github.com/erp/vatchallan/internal/domain/challan"
)

// ReportHandler exposes the sales rollups and the challan register.
type ReportHandler struct {
	BaseHandler
	reports *report.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportQuery carries the shared report period parameters
type reportQuery struct {
	FromDate   string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate     string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
	RetailerID string `form:"retailer_id" binding:"omitempty,uuid"`
}

func (q *reportQuery) toPeriod() (challan.ReportPeriod, error) {
	var period challan.ReportPeriod
	if q.FromDate != "" {
		from, err := time.Parse("2006-01-02", q.FromDate)
		if err != nil {
			return period, err
		}
		period.FromDate = &from
	}
	if q.ToDate != "" {
		to, err := time.Parse("2006-01-02", q.ToDate)
		if err != nil {
			return period, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		period.ToDate = &to
	}
	return period, nil
}

// SalesSummaryResponse is one rollup row of a sales report
type SalesSummaryResponse struct {
	GroupKey        string          `json:"group_key"`
	GroupLabel      string          `json:"group_label"`
	TxnCount        int64           `json:"txn_count"`
	PendingCount    int64           `json:"pending_count"`
	SyncedCount     int64           `json:"synced_count"`
	FailedCount     int64           `json:"failed_count"`
	ReturnCount     int64           `json:"return_count"`
	TxnTotal        decimal.Decimal `json:"txn_total"`
	VATTotal        decimal.Decimal `json:"vat_total"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	ReturnedTotal   decimal.Decimal `json:"returned_total"`
	UniqueCustomers int64           `json:"unique_customers"`
}

func toSalesSummaryResponses(rows []challan.SalesSummary) []SalesSummaryResponse {
	out := make([]SalesSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, SalesSummaryResponse{
			GroupKey:        r.GroupKey,
			GroupLabel:      r.GroupLabel,
			TxnCount:        r.TxnCount,
			PendingCount:    r.PendingCount,
			SyncedCount:     r.SyncedCount,
			FailedCount:     r.FailedCount,
			ReturnCount:     r.ReturnCount,
			TxnTotal:        r.TxnTotal,
			VATTotal:        r.VATTotal,
			DiscountTotal:   r.DiscountTotal,
			ReturnedTotal:   r.ReturnedTotal,
			UniqueCustomers: r.UniqueCustomers,
		})
	}
	return out
}

// ServiceTypeSales groups invoices by service type over an optional period
func (h *ReportHandler) ServiceTypeSales(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	period, err := q.toPeriod()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rows, err := h.reports.ServiceTypeWiseSales(c.Request.Context(), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSalesSummaryResponses(rows))
}

// BranchSales groups invoices by branch, optionally scoped to one retailer.
// Invoices without a branch roll up under "Head Office".
func (h *ReportHandler) BranchSales(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	period, err := q.toPeriod()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var retailerID *uuid.UUID
	if q.RetailerID != "" {
		id, err := uuid.Parse(q.RetailerID)
		if err != nil {
			h.BadRequest(c, "invalid retailer id")
			return
		}
		retailerID = &id
	}

	rows, err := h.reports.BranchWiseSales(c.Request.Context(), retailerID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSalesSummaryResponses(rows))
}

// ChallanRegister lists invoices with their challan state for audit. It
// accepts the same filters as the invoice listing.
func (h *ReportHandler) ChallanRegister(c *gin.Context) {
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

	invoices, err := h.reports.ChallanRegister(c.Request.Context(), filter)
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
