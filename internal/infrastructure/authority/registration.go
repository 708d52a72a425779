package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/erp/vatchallan/internal/domain/challan"
)

const (
	retailerRegistrationPath = "/integration/retailer_registration"
	branchRegistrationPath   = "/integration/branch_registration"
	uploadFilePath           = "/integration/upload_file"
)

// RegisterRetailer submits a retailer registration. An "already exists"
// answer from the authority is returned as success-with-existing.
func (c *Client) RegisterRetailer(ctx context.Context, r *challan.RetailerRegistration) (*challan.RegistrationResult, error) {
	payload := retailerRegistrationPayload{
		BusinessName:     r.BusinessName,
		OwnerName:        r.OwnerName,
		OwnerNID:         r.OwnerNID,
		OwnerPhone:       r.OwnerPhone,
		OwnerEmail:       r.OwnerEmail,
		TradeLicenseNo:   r.TradeLicenseNo,
		BIN:              r.BIN,
		Address:          r.Address,
		PostalCode:       r.PostalCode,
		ZoneID:           r.Jurisdiction.ZoneRemoteID,
		DivisionID:       r.Jurisdiction.DivisionRemoteID,
		CircleID:         r.Jurisdiction.CircleRemoteID,
		CommissionRateID: r.CommissionRateID,
		ServiceTypes:     r.ServiceTypes,
	}
	return c.postRegistration(ctx, retailerRegistrationPath, payload)
}

// RegisterBranch submits a branch registration under an already registered
// retailer.
func (c *Client) RegisterBranch(ctx context.Context, remoteRetailerID string, b *challan.BranchRegistration) (*challan.RegistrationResult, error) {
	if remoteRetailerID == "" {
		return nil, challan.ErrRetailerNotRegistered
	}
	payload := branchRegistrationPayload{
		RetailerID:   remoteRetailerID,
		BranchName:   b.BranchName,
		Address:      b.Address,
		PostalCode:   b.PostalCode,
		ContactPhone: b.ContactPhone,
	}
	return c.postRegistration(ctx, branchRegistrationPath, payload)
}

// UploadDocument pushes a supporting file as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, doc *challan.DocumentUpload) (*challan.RegistrationResult, error) {
	if doc.RemoteRetailerID == "" {
		return nil, challan.ErrRetailerNotRegistered
	}
	if len(doc.Content) == 0 {
		return nil, challan.ErrDocumentEmpty
	}
	if !doc.Category.IsValid() {
		return nil, challan.ErrDocumentCategory
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("retailer_id", doc.RemoteRetailerID); err != nil {
		return nil, fmt.Errorf("authority: failed to build upload form: %w", err)
	}
	if err := writer.WriteField("document_category", doc.Category.String()); err != nil {
		return nil, fmt.Errorf("authority: failed to build upload form: %w", err)
	}
	part, err := writer.CreateFormFile("file", doc.FileName)
	if err != nil {
		return nil, fmt.Errorf("authority: failed to build upload form: %w", err)
	}
	if _, err := part.Write(doc.Content); err != nil {
		return nil, fmt.Errorf("authority: failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("authority: failed to build upload form: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, uploadFilePath, writer.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}
	return parseRegistrationResponse(body, status)
}

// postRegistration sends a JSON registration payload and interprets the
// common registration envelope.
func (c *Client) postRegistration(ctx context.Context, path string, payload any) (*challan.RegistrationResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("authority: failed to encode registration: %w", err)
	}

	respBody, status, err := c.do(ctx, http.MethodPost, path, "application/json", body)
	if err != nil {
		return nil, err
	}
	return parseRegistrationResponse(respBody, status)
}

// parseRegistrationResponse maps the authority's envelope to a domain result.
// Rejections surface as errors carrying the verbatim payload so callers can
// persist it.
func parseRegistrationResponse(body []byte, status int) (*challan.RegistrationResult, error) {
	var envelope registrationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		if status >= 400 {
			return nil, fmt.Errorf("%w: HTTP %d: %s", challan.ErrAuthorityRequestFailed, status, body)
		}
		return nil, fmt.Errorf("%w: failed to parse registration response: %v", challan.ErrAuthorityInvalidResponse, err)
	}

	result := &challan.RegistrationResult{
		RemoteID: envelope.RemoteID(),
		Message:  envelope.Message,
		Raw:      string(body),
	}
	if envelope.AlreadyExists() {
		result.AlreadyExists = true
		return result, nil
	}
	if !envelope.IsSuccess() || status >= 400 {
		return nil, fmt.Errorf("%w: %s", challan.ErrAuthorityRequestFailed, body)
	}
	return result, nil
}
