package challan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Reference data entities
// ---------------------------------------------------------------------------

// Reference records mirror the authority's jurisdiction master data. RemoteID
// is the authority-assigned identifier and the upsert key: re-running a sync
// never creates duplicates.

// Zone is the top level of the tax jurisdiction hierarchy.
type Zone struct {
	ID        uuid.UUID
	RemoteID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Division belongs to a zone.
type Division struct {
	ID           uuid.UUID
	RemoteID     string
	Name         string
	ZoneRemoteID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Circle belongs to a division. The zone remote id is carried redundantly as
// the authority payload provides it.
type Circle struct {
	ID               uuid.UUID
	RemoteID         string
	Name             string
	DivisionRemoteID string
	ZoneRemoteID     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CommissionRate is a VAT rate scoped to a jurisdiction and service type.
// Empty scope fields mean the rate applies to the whole parent scope.
type CommissionRate struct {
	ID                  uuid.UUID
	RemoteID            string
	Name                string
	Rate                decimal.Decimal
	ZoneRemoteID        string
	DivisionRemoteID    string
	CircleRemoteID      string
	ServiceTypeRemoteID string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ServiceType is an authority-defined business category.
type ServiceType struct {
	ID        uuid.UUID
	RemoteID  string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Hierarchy validation
// ---------------------------------------------------------------------------

// JurisdictionSelection is a zone/division/circle pick made during retailer
// registration.
type JurisdictionSelection struct {
	ZoneRemoteID     string
	DivisionRemoteID string
	CircleRemoteID   string
}

// ValidateHierarchy checks that the selected circle belongs to the selected
// division and the division to the selected zone.
func ValidateHierarchy(sel JurisdictionSelection, division *Division, circle *Circle) error {
	if division == nil {
		return ErrDivisionNotFound
	}
	if circle == nil {
		return ErrCircleNotFound
	}
	if division.ZoneRemoteID != sel.ZoneRemoteID {
		return ErrDivisionOutsideZone
	}
	if circle.DivisionRemoteID != sel.DivisionRemoteID {
		return ErrCircleOutsideDivision
	}
	return nil
}

// CoversSelection reports whether the rate's scope matches a jurisdiction and
// service type selection. Empty scope fields on the rate match anything.
func (r *CommissionRate) CoversSelection(sel JurisdictionSelection, serviceTypeRemoteID string) bool {
	if r.ZoneRemoteID != "" && r.ZoneRemoteID != sel.ZoneRemoteID {
		return false
	}
	if r.DivisionRemoteID != "" && r.DivisionRemoteID != sel.DivisionRemoteID {
		return false
	}
	if r.CircleRemoteID != "" && r.CircleRemoteID != sel.CircleRemoteID {
		return false
	}
	if r.ServiceTypeRemoteID != "" && serviceTypeRemoteID != "" && r.ServiceTypeRemoteID != serviceTypeRemoteID {
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Repository ports
// ---------------------------------------------------------------------------

// ReferenceFilter narrows reference listings to a parent scope.
type ReferenceFilter struct {
	ZoneRemoteID     string
	DivisionRemoteID string
}

// ReferenceRepository persists the synced jurisdiction master data. Upsert
// methods key on RemoteID.
type ReferenceRepository interface {
	UpsertZone(ctx context.Context, z *Zone) (created bool, err error)
	UpsertDivision(ctx context.Context, d *Division) (created bool, err error)
	UpsertCircle(ctx context.Context, c *Circle) (created bool, err error)
	UpsertCommissionRate(ctx context.Context, r *CommissionRate) (created bool, err error)
	UpsertServiceType(ctx context.Context, s *ServiceType) (created bool, err error)

	ListZones(ctx context.Context) ([]Zone, error)
	ListDivisions(ctx context.Context, filter ReferenceFilter) ([]Division, error)
	ListCircles(ctx context.Context, filter ReferenceFilter) ([]Circle, error)
	ListCommissionRates(ctx context.Context, filter ReferenceFilter) ([]CommissionRate, error)
	ListServiceTypes(ctx context.Context) ([]ServiceType, error)

	FindDivisionByRemoteID(ctx context.Context, remoteID string) (*Division, error)
	FindCircleByRemoteID(ctx context.Context, remoteID string) (*Circle, error)
	FindCommissionRateByRemoteID(ctx context.Context, remoteID string) (*CommissionRate, error)
	FindServiceTypeByRemoteID(ctx context.Context, remoteID string) (*ServiceType, error)
}
