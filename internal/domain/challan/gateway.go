package challan

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Sync results
// ---------------------------------------------------------------------------

// SyncStatus is the overall outcome of a master-data sync run.
type SyncStatus string

const (
	// SyncStatusSuccess indicates every row was applied
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some rows were skipped
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates no row was applied
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// SyncFailure describes one skipped row of a sync run.
type SyncFailure struct {
	RemoteID string
	Reason   string
}

// SyncResult reports what a sync run did. A run with skipped rows still
// succeeds for the remaining rows.
type SyncResult struct {
	Status       SyncStatus
	TotalCount   int
	CreatedCount int
	UpdatedCount int
	SkippedCount int
	Failures     []SyncFailure
	SyncedAt     time.Time
}

// Finalize derives the overall status from the counters.
func (r *SyncResult) Finalize(now time.Time) {
	r.SyncedAt = now
	switch {
	case r.TotalCount == 0, r.SkippedCount == 0:
		r.Status = SyncStatusSuccess
	case r.CreatedCount+r.UpdatedCount == 0:
		r.Status = SyncStatusFailed
	default:
		r.Status = SyncStatusPartial
	}
}

// ---------------------------------------------------------------------------
// Gateway payloads
// ---------------------------------------------------------------------------

// RemoteRow is one reference-data row fetched from the authority. Malformed
// rows carry an Err and are skipped by the sync, never aborting the batch.
type RemoteRow[T any] struct {
	Value T
	Raw   string
	Err   error
}

// RegistrationResult is the authority's answer to a registration request.
// AlreadyExists means the authority knew the record; callers treat it as
// success and keep the returned remote id when one is provided.
type RegistrationResult struct {
	RemoteID      string
	AlreadyExists bool
	Message       string
	Raw           string
}

// ChallanResult is the authority's answer to a challan submission or return.
type ChallanResult struct {
	ChallanID string
	Accepted  bool
	Message   string
	Raw       string
}

// ChallanDocument is a rendered challan fetched from the authority.
type ChallanDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DocumentUpload is a supporting file pushed to the authority.
type DocumentUpload struct {
	RemoteRetailerID string
	Category         DocumentCategory
	FileName         string
	Content          []byte
}

// ---------------------------------------------------------------------------
// AuthorityGateway port
// ---------------------------------------------------------------------------

// AuthorityGateway is the outbound port to the tax authority API. The
// concrete adapter lives in the infrastructure layer and owns token handling:
// every call authenticates lazily and retries exactly once with a forced
// token refresh on an authorization failure.
type AuthorityGateway interface {
	// Authenticate forces a token refresh and returns the expiry of the new
	// token. Exposed so operators can verify credentials.
	Authenticate(ctx context.Context) (time.Time, error)

	FetchZones(ctx context.Context) ([]RemoteRow[Zone], error)
	FetchDivisions(ctx context.Context) ([]RemoteRow[Division], error)
	FetchCircles(ctx context.Context) ([]RemoteRow[Circle], error)
	FetchCommissionRates(ctx context.Context) ([]RemoteRow[CommissionRate], error)
	FetchServiceTypes(ctx context.Context) ([]RemoteRow[ServiceType], error)

	RegisterRetailer(ctx context.Context, r *RetailerRegistration) (*RegistrationResult, error)
	RegisterBranch(ctx context.Context, remoteRetailerID string, b *BranchRegistration) (*RegistrationResult, error)
	UploadDocument(ctx context.Context, doc *DocumentUpload) (*RegistrationResult, error)

	SubmitChallan(ctx context.Context, inv *VATInvoice) (*ChallanResult, error)
	ReturnChallan(ctx context.Context, inv *VATInvoice, amount string, returnInvoiceNo string) (*ChallanResult, error)
	DownloadChallan(ctx context.Context, challanID string) (*ChallanDocument, error)
}

// ObjectStore keeps uploaded retailer documents and downloaded schallans
// retrievable. Implementations live in the infrastructure layer (S3 or a
// local directory).
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	URL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
