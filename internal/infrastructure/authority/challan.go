package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erp/vatchallan/internal/domain/challan"
)

const (
	vatChallanPath       = "/integration/vat_challan"
	vatChallanReturnPath = "/integration/vat_challan_return"
	downloadSchallanPath = "/integration/download_schallan"
)

// SubmitChallan reports an invoice to the authority. A remote rejection comes
// back as a non-accepted result carrying the verbatim payload so the invoice
// can be marked Failed with the full audit trail; only transport and auth
// problems are errors.
func (c *Client) SubmitChallan(ctx context.Context, inv *challan.VATInvoice) (*challan.ChallanResult, error) {
	payload := challanPayload{
		InvoiceNumber:  inv.InvoiceNumber,
		OrderID:        inv.OrderID,
		InvoiceDate:    inv.InvoiceDate.Format(expiryTimeLayout),
		CustomerID:     inv.CustomerID,
		ServiceTypeID:  inv.ServiceType,
		PaymentMethod:  inv.PaymentMethod,
		TxnAmount:      inv.TxnAmount.StringFixed(2),
		DiscountAmount: inv.DiscountAmount.StringFixed(2),
		ServiceCharge:  inv.ServiceCharge.StringFixed(2),
		VATRate:        inv.VATRate.StringFixed(2),
		VATAmount:      inv.VATAmount.StringFixed(2),
		TotalAmount:    inv.TotalAmount.StringFixed(2),
	}
	payload.RetailerID = inv.RemoteRetailerID
	payload.BranchID = inv.RemoteBranchID
	if payload.RetailerID == "" {
		return nil, challan.ErrRetailerNotRegistered
	}

	return c.postChallan(ctx, vatChallanPath, payload)
}

// ReturnChallan reports a full or partial return against a synced challan.
func (c *Client) ReturnChallan(ctx context.Context, inv *challan.VATInvoice, amount string, returnInvoiceNo string) (*challan.ChallanResult, error) {
	if inv.RemoteChallanID == "" {
		return nil, challan.ErrInvoiceNotSynced
	}
	payload := challanReturnPayload{
		ChallanID:       inv.RemoteChallanID,
		InvoiceNumber:   inv.InvoiceNumber,
		ReturnInvoiceNo: returnInvoiceNo,
		ReturnedAmount:  amount,
	}
	return c.postChallan(ctx, vatChallanReturnPath, payload)
}

// DownloadChallan fetches the rendered challan document. It never mutates any
// state on either side.
func (c *Client) DownloadChallan(ctx context.Context, challanID string) (*challan.ChallanDocument, error) {
	if challanID == "" {
		return nil, challan.ErrInvoiceNotSynced
	}

	path := downloadSchallanPath + "?challan_id=" + url.QueryEscape(challanID)
	body, status, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", challan.ErrAuthorityRequestFailed, status, body)
	}

	return &challan.ChallanDocument{
		FileName:    "schallan_" + challanID + ".pdf",
		ContentType: "application/pdf",
		Content:     body,
	}, nil
}

// postChallan sends a JSON challan payload and interprets the challan
// envelope.
func (c *Client) postChallan(ctx context.Context, path string, payload any) (*challan.ChallanResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("authority: failed to encode challan: %w", err)
	}

	respBody, status, err := c.do(ctx, http.MethodPost, path, "application/json", body)
	if err != nil {
		return nil, err
	}

	var envelope challanEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		if status >= 400 {
			return &challan.ChallanResult{
				Accepted: false,
				Message:  fmt.Sprintf("HTTP %d", status),
				Raw:      string(respBody),
			}, nil
		}
		return nil, fmt.Errorf("%w: failed to parse challan response: %v", challan.ErrAuthorityInvalidResponse, err)
	}

	result := &challan.ChallanResult{
		ChallanID: envelope.ChallanID,
		Accepted:  envelope.IsSuccess() && status < 400,
		Message:   envelope.Message,
		Raw:       string(respBody),
	}
	if result.Accepted && path == vatChallanPath && result.ChallanID == "" {
		return nil, fmt.Errorf("%w: challan response missing challan_id: %s", challan.ErrAuthorityInvalidResponse, respBody)
	}
	return result, nil
}
