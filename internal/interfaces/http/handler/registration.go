package handler

import (
	"io"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/erp/vatchallan/internal/application/registration"
	"github.com/erp/vatchallan/internal/domain/challan"
)

// RegistrationHandler exposes retailer and branch registration plus document
// upload.
type RegistrationHandler struct {
	BaseHandler
	registrations *registration.Service
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(registrations *registration.Service) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// RegisterRetailerRequest is the payload for registering a retailer with the
// authority. Jurisdiction and rate fields carry authority remote ids.
type RegisterRetailerRequest struct {
	BusinessName     string   `json:"business_name" binding:"required"`
	OwnerName        string   `json:"owner_name" binding:"required"`
	OwnerNID         string   `json:"owner_nid" binding:"required"`
	OwnerPhone       string   `json:"owner_phone" binding:"required"`
	OwnerEmail       string   `json:"owner_email" binding:"omitempty,email"`
	TradeLicenseNo   string   `json:"trade_license_no" binding:"required"`
	BIN              string   `json:"bin"`
	Address          string   `json:"address" binding:"required"`
	PostalCode       string   `json:"postal_code"`
	ZoneID           string   `json:"zone_id" binding:"required"`
	DivisionID       string   `json:"division_id" binding:"required"`
	CircleID         string   `json:"circle_id" binding:"required"`
	CommissionRateID string   `json:"commission_rate_id" binding:"required"`
	ServiceTypes     []string `json:"service_types" binding:"required,min=1"`
}

// RetailerResponse represents a retailer registration
type RetailerResponse struct {
	ID               string    `json:"id"`
	BusinessName     string    `json:"business_name"`
	OwnerName        string    `json:"owner_name"`
	TradeLicenseNo   string    `json:"trade_license_no"`
	BIN              string    `json:"bin,omitempty"`
	ZoneID           string    `json:"zone_id"`
	DivisionID       string    `json:"division_id"`
	CircleID         string    `json:"circle_id"`
	CommissionRateID string    `json:"commission_rate_id"`
	ServiceTypes     []string  `json:"service_types"`
	RemoteRetailerID string    `json:"remote_retailer_id,omitempty"`
	Status           string    `json:"status"`
	LastResponse     string    `json:"last_response,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toRetailerResponse(r *challan.RetailerRegistration) RetailerResponse {
	return RetailerResponse{
		ID:               r.ID.String(),
		BusinessName:     r.BusinessName,
		OwnerName:        r.OwnerName,
		TradeLicenseNo:   r.TradeLicenseNo,
		BIN:              r.BIN,
		ZoneID:           r.Jurisdiction.ZoneRemoteID,
		DivisionID:       r.Jurisdiction.DivisionRemoteID,
		CircleID:         r.Jurisdiction.CircleRemoteID,
		CommissionRateID: r.CommissionRateID,
		ServiceTypes:     r.ServiceTypes,
		RemoteRetailerID: r.RemoteRetailerID,
		Status:           r.Status.String(),
		LastResponse:     r.LastResponse,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// RegisterRetailer validates the jurisdiction selection and submits the
// retailer to the authority.
func (h *RegistrationHandler) RegisterRetailer(c *gin.Context) {
	var req RegisterRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	reg := &challan.RetailerRegistration{
		BusinessName:   req.BusinessName,
		OwnerName:      req.OwnerName,
		OwnerNID:       req.OwnerNID,
		OwnerPhone:     req.OwnerPhone,
		OwnerEmail:     req.OwnerEmail,
		TradeLicenseNo: req.TradeLicenseNo,
		BIN:            req.BIN,
		Address:        req.Address,
		PostalCode:     req.PostalCode,
		Jurisdiction: challan.JurisdictionSelection{
			ZoneRemoteID:     req.ZoneID,
			DivisionRemoteID: req.DivisionID,
			CircleRemoteID:   req.CircleID,
		},
		CommissionRateID: req.CommissionRateID,
		ServiceTypes:     req.ServiceTypes,
	}

	saved, err := h.registrations.RegisterRetailer(c.Request.Context(), reg)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRetailerResponse(saved))
}

// ListRetailers returns all retailer registrations
func (h *RegistrationHandler) ListRetailers(c *gin.Context) {
	retailers, err := h.registrations.ListRetailers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]RetailerResponse, 0, len(retailers))
	for i := range retailers {
		out = append(out, toRetailerResponse(&retailers[i]))
	}
	h.Success(c, out)
}

// GetRetailer returns one retailer registration
func (h *RegistrationHandler) GetRetailer(c *gin.Context) {
	id, ok := h.retailerID(c)
	if !ok {
		return
	}
	retailer, err := h.registrations.GetRetailer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRetailerResponse(retailer))
}

// RegisterBranchRequest is the payload for registering a branch under a
// registered retailer.
type RegisterBranchRequest struct {
	BranchName   string `json:"branch_name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	PostalCode   string `json:"postal_code"`
	ContactPhone string `json:"contact_phone"`
}

// BranchResponse represents a branch registration
type BranchResponse struct {
	ID             string    `json:"id"`
	RetailerID     string    `json:"retailer_id"`
	BranchName     string    `json:"branch_name"`
	Address        string    `json:"address"`
	PostalCode     string    `json:"postal_code,omitempty"`
	ContactPhone   string    `json:"contact_phone,omitempty"`
	RemoteBranchID string    `json:"remote_branch_id,omitempty"`
	Status         string    `json:"status"`
	LastResponse   string    `json:"last_response,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toBranchResponse(b *challan.BranchRegistration) BranchResponse {
	return BranchResponse{
		ID:             b.ID.String(),
		RetailerID:     b.RetailerID.String(),
		BranchName:     b.BranchName,
		Address:        b.Address,
		PostalCode:     b.PostalCode,
		ContactPhone:   b.ContactPhone,
		RemoteBranchID: b.RemoteBranchID,
		Status:         b.Status.String(),
		LastResponse:   b.LastResponse,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// RegisterBranch submits a branch of a registered retailer to the authority
func (h *RegistrationHandler) RegisterBranch(c *gin.Context) {
	retailerID, ok := h.retailerID(c)
	if !ok {
		return
	}

	var req RegisterBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	branch := &challan.BranchRegistration{
		BranchName:   req.BranchName,
		Address:      req.Address,
		PostalCode:   req.PostalCode,
		ContactPhone: req.ContactPhone,
	}
	saved, err := h.registrations.RegisterBranch(c.Request.Context(), retailerID, branch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toBranchResponse(saved))
}

// ListBranches returns the branches of a retailer
func (h *RegistrationHandler) ListBranches(c *gin.Context) {
	retailerID, ok := h.retailerID(c)
	if !ok {
		return
	}
	branches, err := h.registrations.ListBranches(c.Request.Context(), retailerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		out = append(out, toBranchResponse(&branches[i]))
	}
	h.Success(c, out)
}

// DocumentResponse represents an uploaded supporting document
type DocumentResponse struct {
	ID           string    `json:"id"`
	RetailerID   string    `json:"retailer_id"`
	Category     string    `json:"category"`
	FileName     string    `json:"file_name"`
	StorageKey   string    `json:"storage_key"`
	Acknowledged bool      `json:"acknowledged"`
	LastResponse string    `json:"last_response,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toDocumentResponse(d *challan.RetailerDocument) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID.String(),
		RetailerID:   d.RetailerID.String(),
		Category:     d.Category.String(),
		FileName:     d.FileName,
		StorageKey:   d.StorageKey,
		Acknowledged: d.Acknowledged,
		LastResponse: d.LastResponse,
		CreatedAt:    d.CreatedAt,
	}
}

// UploadDocument accepts a multipart file plus a category form field, stores
// the file and pushes it to the authority.
func (h *RegistrationHandler) UploadDocument(c *gin.Context) {
	retailerID, ok := h.retailerID(c)
	if !ok {
		return
	}

	category := challan.DocumentCategory(c.PostForm("category"))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.InternalError(c, "cannot read uploaded file")
		return
	}

	doc, err := h.registrations.UploadDocument(
		c.Request.Context(),
		retailerID,
		category,
		filepath.Base(fileHeader.Filename),
		content,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDocumentResponse(doc))
}

// ListDocuments returns the uploaded documents of a retailer
func (h *RegistrationHandler) ListDocuments(c *gin.Context) {
	retailerID, ok := h.retailerID(c)
	if !ok {
		return
	}
	docs, err := h.registrations.ListDocuments(c.Request.Context(), retailerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentResponse(&docs[i]))
	}
	h.Success(c, out)
}

func (h *RegistrationHandler) retailerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid retailer id")
		return uuid.Nil, false
	}
	return id, true
}
