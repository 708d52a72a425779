package challan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Registration statuses
// ---------------------------------------------------------------------------

// RegistrationStatus tracks a retailer or branch registration against the
// authority.
type RegistrationStatus string

const (
	// RegistrationStatusDraft means the record exists locally only.
	RegistrationStatusDraft RegistrationStatus = "Draft"
	// RegistrationStatusSubmitted means a registration request was sent but
	// no remote id came back yet.
	RegistrationStatusSubmitted RegistrationStatus = "Submitted"
	// RegistrationStatusRegistered means the authority assigned a remote id.
	RegistrationStatusRegistered RegistrationStatus = "Registered"
	// RegistrationStatusAlreadyExists means the authority reported the
	// record as previously registered. Treated as success.
	RegistrationStatusAlreadyExists RegistrationStatus = "Already Exists"
	// RegistrationStatusFailed means the authority rejected the request.
	RegistrationStatusFailed RegistrationStatus = "Failed"
)

// IsValid returns true if the status is valid
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusDraft, RegistrationStatusSubmitted,
		RegistrationStatusRegistered, RegistrationStatusAlreadyExists,
		RegistrationStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of RegistrationStatus
func (s RegistrationStatus) String() string {
	return string(s)
}

// IsRegistered reports whether the registration is usable for downstream
// operations (document upload, branch registration, invoicing).
func (s RegistrationStatus) IsRegistered() bool {
	return s == RegistrationStatusRegistered || s == RegistrationStatusAlreadyExists
}

// ---------------------------------------------------------------------------
// Document categories
// ---------------------------------------------------------------------------

// DocumentCategory is the authority's key for an uploaded supporting file.
type DocumentCategory string

const (
	DocumentCategoryTradeLicense DocumentCategory = "trade_license"
	DocumentCategoryNID          DocumentCategory = "nid"
	DocumentCategoryTIN          DocumentCategory = "tin_certificate"
	DocumentCategoryBIN          DocumentCategory = "bin_certificate"
	DocumentCategoryPhoto        DocumentCategory = "owner_photo"
)

// IsValid returns true if the category is one the authority accepts.
func (c DocumentCategory) IsValid() bool {
	switch c {
	case DocumentCategoryTradeLicense, DocumentCategoryNID, DocumentCategoryTIN,
		DocumentCategoryBIN, DocumentCategoryPhoto:
		return true
	default:
		return false
	}
}

// String returns the string representation of DocumentCategory
func (c DocumentCategory) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

// RetailerRegistration is a business registered (or being registered) with
// the authority. RemoteRetailerID is authority-assigned.
type RetailerRegistration struct {
	ID               uuid.UUID
	BusinessName     string
	OwnerName        string
	OwnerNID         string
	OwnerPhone       string
	OwnerEmail       string
	TradeLicenseNo   string
	BIN              string
	Address          string
	PostalCode       string
	ServiceTypes     []string // remote ids of selected service types
	Jurisdiction     JurisdictionSelection
	CommissionRateID string // remote id of the selected commission rate
	RemoteRetailerID string
	Status           RegistrationStatus
	LastResponse     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BranchRegistration is an outlet of a registered retailer.
type BranchRegistration struct {
	ID             uuid.UUID
	RetailerID     uuid.UUID
	BranchName     string
	Address        string
	PostalCode     string
	ContactPhone   string
	RemoteBranchID string
	Status         RegistrationStatus
	LastResponse   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RetailerDocument records an uploaded supporting file and the authority's
// acknowledgment of it.
type RetailerDocument struct {
	ID           uuid.UUID
	RetailerID   uuid.UUID
	Category     DocumentCategory
	FileName     string
	StorageKey   string
	Acknowledged bool
	LastResponse string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ---------------------------------------------------------------------------
// Repository ports
// ---------------------------------------------------------------------------

// RegistrationRepository persists retailers, branches and their documents.
type RegistrationRepository interface {
	SaveRetailer(ctx context.Context, r *RetailerRegistration) error
	FindRetailer(ctx context.Context, id uuid.UUID) (*RetailerRegistration, error)
	ListRetailers(ctx context.Context) ([]RetailerRegistration, error)

	SaveBranch(ctx context.Context, b *BranchRegistration) error
	FindBranch(ctx context.Context, id uuid.UUID) (*BranchRegistration, error)
	ListBranches(ctx context.Context, retailerID uuid.UUID) ([]BranchRegistration, error)

	SaveDocument(ctx context.Context, d *RetailerDocument) error
	ListDocuments(ctx context.Context, retailerID uuid.UUID) ([]RetailerDocument, error)
}
