package authority

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// expiryTimeLayout is the timestamp format the authority uses for token
// expiry and invoice dates.
const expiryTimeLayout = "2006-01-02 15:04:05"

// tokenResponse is the XML body returned by the vendor authentication
// endpoint.
type tokenResponse struct {
	AccessToken string `xml:"access_token"`
	ExpiryTime  string `xml:"expiry_time"`
	CompanyID   string `xml:"company_id"`
}

// listEnvelope wraps every reference-data listing. Rows stay raw so one
// malformed row never fails the whole batch.
type listEnvelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    []json.RawMessage `json:"data"`
}

// IsSuccess returns true if the listing succeeded
func (e *listEnvelope) IsSuccess() bool {
	return strings.EqualFold(e.Status, "success")
}

// ---------------------------------------------------------------------------
// Reference row payloads (authority field names)
// ---------------------------------------------------------------------------

type zonePayload struct {
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`
}

type divisionPayload struct {
	DivisionID   string `json:"division_id"`
	DivisionName string `json:"division_name"`
	ZoneID       string `json:"zone_id"`
}

type circlePayload struct {
	CircleID   string `json:"circle_id"`
	CircleName string `json:"circle_name"`
	DivisionID string `json:"division_id"`
	ZoneID     string `json:"zone_id"`
}

type commissionRatePayload struct {
	CommissionRateID string          `json:"vat_commissionrate_id"`
	Name             string          `json:"vat_commissionrate_name"`
	Rate             decimal.Decimal `json:"rate"`
	ZoneID           string          `json:"zone_id"`
	DivisionID       string          `json:"division_id"`
	CircleID         string          `json:"circle_id"`
	ServiceTypeID    string          `json:"service_type_id"`
}

type serviceTypePayload struct {
	ServiceTypeID   string `json:"service_type_id"`
	ServiceTypeCode string `json:"service_type_code"`
	ServiceTypeName string `json:"service_type_name"`
}

// ---------------------------------------------------------------------------
// Registration payloads
// ---------------------------------------------------------------------------

type retailerRegistrationPayload struct {
	BusinessName     string   `json:"business_name"`
	OwnerName        string   `json:"owner_name"`
	OwnerNID         string   `json:"owner_nid"`
	OwnerPhone       string   `json:"owner_phone"`
	OwnerEmail       string   `json:"owner_email,omitempty"`
	TradeLicenseNo   string   `json:"trade_license_no"`
	BIN              string   `json:"bin,omitempty"`
	Address          string   `json:"address"`
	PostalCode       string   `json:"postal_code,omitempty"`
	ZoneID           string   `json:"zone_id"`
	DivisionID       string   `json:"division_id"`
	CircleID         string   `json:"circle_id"`
	CommissionRateID string   `json:"vat_commissionrate_id"`
	ServiceTypes     []string `json:"service_types"`
}

type branchRegistrationPayload struct {
	RetailerID   string `json:"retailer_id"`
	BranchName   string `json:"branch_name"`
	Address      string `json:"address"`
	PostalCode   string `json:"postal_code,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// registrationEnvelope is the authority's answer to registration and
// document-upload requests.
type registrationEnvelope struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	RetailerID string `json:"retailer_id"`
	BranchID   string `json:"branch_id"`
}

// IsSuccess returns true if the registration was accepted
func (e *registrationEnvelope) IsSuccess() bool {
	return strings.EqualFold(e.Status, "success")
}

// AlreadyExists reports whether the authority answered that the record was
// registered before. Treated as success by callers.
func (e *registrationEnvelope) AlreadyExists() bool {
	if strings.EqualFold(e.Status, "exists") {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "already exists")
}

// RemoteID returns whichever remote identifier the response carries.
func (e *registrationEnvelope) RemoteID() string {
	if e.RetailerID != "" {
		return e.RetailerID
	}
	return e.BranchID
}

// ---------------------------------------------------------------------------
// Challan payloads
// ---------------------------------------------------------------------------

type challanPayload struct {
	InvoiceNumber  string `json:"invoice_number"`
	OrderID        string `json:"order_id,omitempty"`
	InvoiceDate    string `json:"invoice_date"`
	RetailerID     string `json:"retailer_id"`
	BranchID       string `json:"branch_id,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	ServiceTypeID  string `json:"service_type_id"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	TxnAmount      string `json:"txn_amount"`
	DiscountAmount string `json:"discount_amount"`
	ServiceCharge  string `json:"service_charge"`
	VATRate        string `json:"vat_rate"`
	VATAmount      string `json:"vat_amount"`
	TotalAmount    string `json:"total_amount"`
}

type challanReturnPayload struct {
	ChallanID       string `json:"challan_id"`
	InvoiceNumber   string `json:"invoice_number"`
	ReturnInvoiceNo string `json:"return_invoice_no"`
	ReturnedAmount  string `json:"returned_amount"`
}

// challanEnvelope is the authority's answer to challan submissions and
// returns.
type challanEnvelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ChallanID string `json:"challan_id"`
}

// IsSuccess returns true if the challan was accepted
func (e *challanEnvelope) IsSuccess() bool {
	return strings.EqualFold(e.Status, "success")
}
