package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// ---------------------------------------------------------------------------
// Vendor configuration
// ---------------------------------------------------------------------------

// VendorConfigurationModel is the persistence model for the singleton vendor
// configuration.
type VendorConfigurationModel struct {
	BaseModel
	BaseURL        string     `gorm:"type:varchar(500);not null"`
	ClientID       string     `gorm:"type:varchar(200);not null"`
	ClientSecret   string     `gorm:"type:varchar(200);not null"`
	CompanyID      string     `gorm:"type:varchar(100)"`
	AccessToken    string     `gorm:"type:text"`
	TokenExpiresAt *time.Time `gorm:""`
	Disabled       bool       `gorm:"not null;default:false"`
}

// TableName specifies the table name
func (VendorConfigurationModel) TableName() string {
	return "vendor_configurations"
}

// ToDomain converts the model to a domain entity
func (m *VendorConfigurationModel) ToDomain() *challan.VendorConfiguration {
	return &challan.VendorConfiguration{
		ID:             m.ID,
		BaseURL:        m.BaseURL,
		ClientID:       m.ClientID,
		ClientSecret:   m.ClientSecret,
		CompanyID:      m.CompanyID,
		AccessToken:    m.AccessToken,
		TokenExpiresAt: m.TokenExpiresAt,
		Disabled:       m.Disabled,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// VendorConfigurationModelFromDomain converts a domain entity to the model
func VendorConfigurationModelFromDomain(c *challan.VendorConfiguration) *VendorConfigurationModel {
	return &VendorConfigurationModel{
		BaseModel:      BaseModel{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt},
		BaseURL:        c.BaseURL,
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		CompanyID:      c.CompanyID,
		AccessToken:    c.AccessToken,
		TokenExpiresAt: c.TokenExpiresAt,
		Disabled:       c.Disabled,
	}
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

// ZoneModel is the persistence model for zones.
type ZoneModel struct {
	BaseModel
	RemoteID string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(200);not null"`
}

// TableName specifies the table name
func (ZoneModel) TableName() string {
	return "zones"
}

// ToDomain converts the model to a domain entity
func (m *ZoneModel) ToDomain() *challan.Zone {
	return &challan.Zone{
		ID:        m.ID,
		RemoteID:  m.RemoteID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// DivisionModel is the persistence model for divisions.
type DivisionModel struct {
	BaseModel
	RemoteID     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(200);not null"`
	ZoneRemoteID string `gorm:"type:varchar(100);index"`
}

// TableName specifies the table name
func (DivisionModel) TableName() string {
	return "divisions"
}

// ToDomain converts the model to a domain entity
func (m *DivisionModel) ToDomain() *challan.Division {
	return &challan.Division{
		ID:           m.ID,
		RemoteID:     m.RemoteID,
		Name:         m.Name,
		ZoneRemoteID: m.ZoneRemoteID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CircleModel is the persistence model for circles.
type CircleModel struct {
	BaseModel
	RemoteID         string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name             string `gorm:"type:varchar(200);not null"`
	DivisionRemoteID string `gorm:"type:varchar(100);index"`
	ZoneRemoteID     string `gorm:"type:varchar(100);index"`
}

// TableName specifies the table name
func (CircleModel) TableName() string {
	return "circles"
}

// ToDomain converts the model to a domain entity
func (m *CircleModel) ToDomain() *challan.Circle {
	return &challan.Circle{
		ID:               m.ID,
		RemoteID:         m.RemoteID,
		Name:             m.Name,
		DivisionRemoteID: m.DivisionRemoteID,
		ZoneRemoteID:     m.ZoneRemoteID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// CommissionRateModel is the persistence model for VAT commission rates.
type CommissionRateModel struct {
	BaseModel
	RemoteID            string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name                string          `gorm:"type:varchar(200)"`
	Rate                decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	ZoneRemoteID        string          `gorm:"type:varchar(100);index"`
	DivisionRemoteID    string          `gorm:"type:varchar(100);index"`
	CircleRemoteID      string          `gorm:"type:varchar(100);index"`
	ServiceTypeRemoteID string          `gorm:"type:varchar(100);index"`
}

// TableName specifies the table name
func (CommissionRateModel) TableName() string {
	return "commission_rates"
}

// ToDomain converts the model to a domain entity
func (m *CommissionRateModel) ToDomain() *challan.CommissionRate {
	return &challan.CommissionRate{
		ID:                  m.ID,
		RemoteID:            m.RemoteID,
		Name:                m.Name,
		Rate:                m.Rate,
		ZoneRemoteID:        m.ZoneRemoteID,
		DivisionRemoteID:    m.DivisionRemoteID,
		CircleRemoteID:      m.CircleRemoteID,
		ServiceTypeRemoteID: m.ServiceTypeRemoteID,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// ServiceTypeModel is the persistence model for service types.
type ServiceTypeModel struct {
	BaseModel
	RemoteID string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Code     string `gorm:"type:varchar(100)"`
	Name     string `gorm:"type:varchar(200)"`
}

// TableName specifies the table name
func (ServiceTypeModel) TableName() string {
	return "service_types"
}

// ToDomain converts the model to a domain entity
func (m *ServiceTypeModel) ToDomain() *challan.ServiceType {
	return &challan.ServiceType{
		ID:        m.ID,
		RemoteID:  m.RemoteID,
		Code:      m.Code,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Registrations
// ---------------------------------------------------------------------------

// RetailerRegistrationModel is the persistence model for retailer
// registrations. ServiceTypes is stored as a JSON array.
type RetailerRegistrationModel struct {
	BaseModel
	BusinessName     string `gorm:"type:varchar(300);not null"`
	OwnerName        string `gorm:"type:varchar(200);not null"`
	OwnerNID         string `gorm:"type:varchar(50)"`
	OwnerPhone       string `gorm:"type:varchar(30)"`
	OwnerEmail       string `gorm:"type:varchar(200)"`
	TradeLicenseNo   string `gorm:"type:varchar(100)"`
	BIN              string `gorm:"type:varchar(100);column:bin"`
	Address          string `gorm:"type:text"`
	PostalCode       string `gorm:"type:varchar(20)"`
	ServiceTypes     string `gorm:"type:jsonb;default:'[]'"`
	ZoneRemoteID     string `gorm:"type:varchar(100)"`
	DivisionRemoteID string `gorm:"type:varchar(100)"`
	CircleRemoteID   string `gorm:"type:varchar(100)"`
	CommissionRateID string `gorm:"type:varchar(100)"`
	RemoteRetailerID string `gorm:"type:varchar(100);index"`
	Status           string `gorm:"type:varchar(30);not null;default:'Draft'"`
	LastResponse     string `gorm:"type:text"`
}

// TableName specifies the table name
func (RetailerRegistrationModel) TableName() string {
	return "retailer_registrations"
}

// ToDomain converts the model to a domain entity
func (m *RetailerRegistrationModel) ToDomain() *challan.RetailerRegistration {
	var serviceTypes []string
	if m.ServiceTypes != "" {
		_ = json.Unmarshal([]byte(m.ServiceTypes), &serviceTypes)
	}
	return &challan.RetailerRegistration{
		ID:             m.ID,
		BusinessName:   m.BusinessName,
		OwnerName:      m.OwnerName,
		OwnerNID:       m.OwnerNID,
		OwnerPhone:     m.OwnerPhone,
		OwnerEmail:     m.OwnerEmail,
		TradeLicenseNo: m.TradeLicenseNo,
		BIN:            m.BIN,
		Address:        m.Address,
		PostalCode:     m.PostalCode,
		ServiceTypes:   serviceTypes,
		Jurisdiction: challan.JurisdictionSelection{
			ZoneRemoteID:     m.ZoneRemoteID,
			DivisionRemoteID: m.DivisionRemoteID,
			CircleRemoteID:   m.CircleRemoteID,
		},
		CommissionRateID: m.CommissionRateID,
		RemoteRetailerID: m.RemoteRetailerID,
		Status:           challan.RegistrationStatus(m.Status),
		LastResponse:     m.LastResponse,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// RetailerRegistrationModelFromDomain converts a domain entity to the model
func RetailerRegistrationModelFromDomain(r *challan.RetailerRegistration) *RetailerRegistrationModel {
	serviceTypes, _ := json.Marshal(r.ServiceTypes)
	return &RetailerRegistrationModel{
		BaseModel:        BaseModel{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		BusinessName:     r.BusinessName,
		OwnerName:        r.OwnerName,
		OwnerNID:         r.OwnerNID,
		OwnerPhone:       r.OwnerPhone,
		OwnerEmail:       r.OwnerEmail,
		TradeLicenseNo:   r.TradeLicenseNo,
		BIN:              r.BIN,
		Address:          r.Address,
		PostalCode:       r.PostalCode,
		ServiceTypes:     string(serviceTypes),
		ZoneRemoteID:     r.Jurisdiction.ZoneRemoteID,
		DivisionRemoteID: r.Jurisdiction.DivisionRemoteID,
		CircleRemoteID:   r.Jurisdiction.CircleRemoteID,
		CommissionRateID: r.CommissionRateID,
		RemoteRetailerID: r.RemoteRetailerID,
		Status:           r.Status.String(),
		LastResponse:     r.LastResponse,
	}
}

// BranchRegistrationModel is the persistence model for branch registrations.
type BranchRegistrationModel struct {
	BaseModel
	RetailerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchName     string    `gorm:"type:varchar(300);not null"`
	Address        string    `gorm:"type:text"`
	PostalCode     string    `gorm:"type:varchar(20)"`
	ContactPhone   string    `gorm:"type:varchar(30)"`
	RemoteBranchID string    `gorm:"type:varchar(100);index"`
	Status         string    `gorm:"type:varchar(30);not null;default:'Draft'"`
	LastResponse   string    `gorm:"type:text"`
}

// TableName specifies the table name
func (BranchRegistrationModel) TableName() string {
	return "branch_registrations"
}

// ToDomain converts the model to a domain entity
func (m *BranchRegistrationModel) ToDomain() *challan.BranchRegistration {
	return &challan.BranchRegistration{
		ID:             m.ID,
		RetailerID:     m.RetailerID,
		BranchName:     m.BranchName,
		Address:        m.Address,
		PostalCode:     m.PostalCode,
		ContactPhone:   m.ContactPhone,
		RemoteBranchID: m.RemoteBranchID,
		Status:         challan.RegistrationStatus(m.Status),
		LastResponse:   m.LastResponse,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// BranchRegistrationModelFromDomain converts a domain entity to the model
func BranchRegistrationModelFromDomain(b *challan.BranchRegistration) *BranchRegistrationModel {
	return &BranchRegistrationModel{
		BaseModel:      BaseModel{ID: b.ID, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt},
		RetailerID:     b.RetailerID,
		BranchName:     b.BranchName,
		Address:        b.Address,
		PostalCode:     b.PostalCode,
		ContactPhone:   b.ContactPhone,
		RemoteBranchID: b.RemoteBranchID,
		Status:         b.Status.String(),
		LastResponse:   b.LastResponse,
	}
}

// RetailerDocumentModel is the persistence model for uploaded retailer
// documents.
type RetailerDocumentModel struct {
	BaseModel
	RetailerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Category     string    `gorm:"type:varchar(50);not null"`
	FileName     string    `gorm:"type:varchar(300);not null"`
	StorageKey   string    `gorm:"type:varchar(500)"`
	Acknowledged bool      `gorm:"not null;default:false"`
	LastResponse string    `gorm:"type:text"`
}

// TableName specifies the table name
func (RetailerDocumentModel) TableName() string {
	return "retailer_documents"
}

// ToDomain converts the model to a domain entity
func (m *RetailerDocumentModel) ToDomain() *challan.RetailerDocument {
	return &challan.RetailerDocument{
		ID:           m.ID,
		RetailerID:   m.RetailerID,
		Category:     challan.DocumentCategory(m.Category),
		FileName:     m.FileName,
		StorageKey:   m.StorageKey,
		Acknowledged: m.Acknowledged,
		LastResponse: m.LastResponse,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// RetailerDocumentModelFromDomain converts a domain entity to the model
func RetailerDocumentModelFromDomain(d *challan.RetailerDocument) *RetailerDocumentModel {
	return &RetailerDocumentModel{
		BaseModel:    BaseModel{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		RetailerID:   d.RetailerID,
		Category:     d.Category.String(),
		FileName:     d.FileName,
		StorageKey:   d.StorageKey,
		Acknowledged: d.Acknowledged,
		LastResponse: d.LastResponse,
	}
}

// ---------------------------------------------------------------------------
// VAT invoices
// ---------------------------------------------------------------------------

// VATInvoiceModel is the persistence model for VAT invoices.
type VATInvoiceModel struct {
	BaseModel
	InvoiceNumber    string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	OrderID          string          `gorm:"type:varchar(100);index"`
	InvoiceDate      time.Time       `gorm:"not null;index"`
	RetailerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID         *uuid.UUID      `gorm:"type:uuid;index"`
	RemoteRetailerID string          `gorm:"type:varchar(100)"`
	RemoteBranchID   string          `gorm:"type:varchar(100)"`
	CustomerID       string          `gorm:"type:varchar(100);index"`
	ServiceType      string          `gorm:"type:varchar(100);index"`
	PaymentMethod    string          `gorm:"type:varchar(50)"`
	TxnAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ServiceCharge    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	VATRate          decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	VATAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReturnedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ReturnInvoiceNo  string          `gorm:"type:varchar(100)"`
	RemoteChallanID  string          `gorm:"type:varchar(100);index"`
	SchallanURL      string          `gorm:"type:varchar(500)"`
	Status           string          `gorm:"type:varchar(30);not null;default:'Pending';index"`
	LastResponse     string          `gorm:"type:text"`
}

// TableName specifies the table name
func (VATInvoiceModel) TableName() string {
	return "vat_invoices"
}

// ToDomain converts the model to a domain entity
func (m *VATInvoiceModel) ToDomain() *challan.VATInvoice {
	return &challan.VATInvoice{
		ID:               m.ID,
		InvoiceNumber:    m.InvoiceNumber,
		OrderID:          m.OrderID,
		InvoiceDate:      m.InvoiceDate,
		RetailerID:       m.RetailerID,
		BranchID:         m.BranchID,
		RemoteRetailerID: m.RemoteRetailerID,
		RemoteBranchID:   m.RemoteBranchID,
		CustomerID:       m.CustomerID,
		ServiceType:      m.ServiceType,
		PaymentMethod:    m.PaymentMethod,
		TxnAmount:        m.TxnAmount,
		DiscountAmount:   m.DiscountAmount,
		ServiceCharge:    m.ServiceCharge,
		VATRate:          m.VATRate,
		VATAmount:        m.VATAmount,
		TotalAmount:      m.TotalAmount,
		ReturnedAmount:   m.ReturnedAmount,
		ReturnInvoiceNo:  m.ReturnInvoiceNo,
		RemoteChallanID:  m.RemoteChallanID,
		SchallanURL:      m.SchallanURL,
		Status:           challan.InvoiceStatus(m.Status),
		LastResponse:     m.LastResponse,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// VATInvoiceModelFromDomain converts a domain entity to the model
func VATInvoiceModelFromDomain(v *challan.VATInvoice) *VATInvoiceModel {
	return &VATInvoiceModel{
		BaseModel:        BaseModel{ID: v.ID, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt},
		InvoiceNumber:    v.InvoiceNumber,
		OrderID:          v.OrderID,
		InvoiceDate:      v.InvoiceDate,
		RetailerID:       v.RetailerID,
		BranchID:         v.BranchID,
		RemoteRetailerID: v.RemoteRetailerID,
		RemoteBranchID:   v.RemoteBranchID,
		CustomerID:       v.CustomerID,
		ServiceType:      v.ServiceType,
		PaymentMethod:    v.PaymentMethod,
		TxnAmount:        v.TxnAmount,
		DiscountAmount:   v.DiscountAmount,
		ServiceCharge:    v.ServiceCharge,
		VATRate:          v.VATRate,
		VATAmount:        v.VATAmount,
		TotalAmount:      v.TotalAmount,
		ReturnedAmount:   v.ReturnedAmount,
		ReturnInvoiceNo:  v.ReturnInvoiceNo,
		RemoteChallanID:  v.RemoteChallanID,
		SchallanURL:      v.SchallanURL,
		Status:           v.Status.String(),
		LastResponse:     v.LastResponse,
	}
}
