package challan

import "errors"

// Vendor configuration errors. These are fatal for the calling operation and
// name the missing credential so an operator can fix the configuration record.
var (
	ErrConfigNotFound         = errors.New("challan: no vendor configuration found")
	ErrConfigDisabled         = errors.New("challan: vendor configuration is disabled")
	ErrConfigMissingBaseURL   = errors.New("challan: vendor configuration base URL is required")
	ErrConfigMissingClientID  = errors.New("challan: vendor configuration client ID is required")
	ErrConfigMissingSecret    = errors.New("challan: vendor configuration client secret is required")
)

// Authority gateway errors.
var (
	ErrAuthorityUnavailable    = errors.New("challan: authority temporarily unavailable")
	ErrAuthorityRequestFailed  = errors.New("challan: authority request failed")
	ErrAuthorityInvalidResponse = errors.New("challan: invalid authority response")
	ErrAuthorityAuthFailed     = errors.New("challan: authority authentication failed")
)

// Reference data errors.
var (
	ErrZoneNotFound           = errors.New("challan: zone not found")
	ErrDivisionNotFound       = errors.New("challan: division not found")
	ErrCircleNotFound         = errors.New("challan: circle not found")
	ErrCommissionRateNotFound = errors.New("challan: commission rate not found")
	ErrServiceTypeNotFound    = errors.New("challan: service type not found")

	ErrDivisionOutsideZone    = errors.New("challan: division does not belong to the selected zone")
	ErrCircleOutsideDivision  = errors.New("challan: circle does not belong to the selected division")
	ErrRateOutsideSelection   = errors.New("challan: commission rate does not cover the selected jurisdiction")
)

// Registration errors.
var (
	ErrRetailerNotFound      = errors.New("challan: retailer registration not found")
	ErrBranchNotFound        = errors.New("challan: branch registration not found")
	ErrRetailerNotRegistered = errors.New("challan: retailer has no remote identifier yet, register it first")
	ErrParentNotRegistered   = errors.New("challan: parent retailer must be registered before its branches")
	ErrDocumentEmpty         = errors.New("challan: document file is empty")
	ErrDocumentCategory      = errors.New("challan: unknown document category")
)

// Invoice lifecycle errors.
var (
	ErrInvoiceNotFound      = errors.New("challan: vat invoice not found")
	ErrInvoiceNotSyncable   = errors.New("challan: invoice can only be synced while Pending or Failed")
	ErrInvoiceNotReturnable = errors.New("challan: returns are only accepted against a synced invoice")
	ErrInvoiceNotSynced     = errors.New("challan: invoice has no challan yet")
	ErrReturnExceedsInvoice = errors.New("challan: returned amount exceeds the invoiced amount")
	ErrReturnAmountInvalid  = errors.New("challan: return amount must be positive")
)

// DomainError carries an operator-facing code and message across the HTTP
// boundary. Sentinel errors above are wrapped into one at the interface layer.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}
