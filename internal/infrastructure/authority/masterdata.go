package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/erp/vatchallan/internal/domain/challan"
)

const (
	zoneListPath           = "/integration/zone_list"
	divisionListPath       = "/integration/division_list"
	circleListPath         = "/integration/circle_list"
	commissionRateListPath = "/integration/vat_commissionrate_list"
	serviceTypeListPath    = "/integration/service_type_list"
)

// fetchList GETs a reference listing and returns its raw rows.
func (c *Client) fetchList(ctx context.Context, path string) ([]json.RawMessage, error) {
	body, status, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", challan.ErrAuthorityRequestFailed, status, body)
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse listing: %v", challan.ErrAuthorityInvalidResponse, err)
	}
	if !envelope.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", challan.ErrAuthorityRequestFailed, envelope.Message)
	}
	return envelope.Data, nil
}

// FetchZones retrieves the zone master list.
func (c *Client) FetchZones(ctx context.Context) ([]challan.RemoteRow[challan.Zone], error) {
	raws, err := c.fetchList(ctx, zoneListPath)
	if err != nil {
		return nil, err
	}

	rows := make([]challan.RemoteRow[challan.Zone], 0, len(raws))
	for _, raw := range raws {
		row := challan.RemoteRow[challan.Zone]{Raw: string(raw)}
		var p zonePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			row.Err = fmt.Errorf("%w: %v", challan.ErrAuthorityInvalidResponse, err)
		} else if p.ZoneID == "" {
			row.Err = fmt.Errorf("%w: missing zone_id", challan.ErrAuthorityInvalidResponse)
		} else {
			row.Value = challan.Zone{RemoteID: p.ZoneID, Name: p.ZoneName}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchDivisions retrieves the division master list.
func (c *Client) FetchDivisions(ctx context.Context) ([]challan.RemoteRow[challan.Division], error) {
	raws, err := c.fetchList(ctx, divisionListPath)
	if err != nil {
		return nil, err
	}

	rows := make([]challan.RemoteRow[challan.Division], 0, len(raws))
	for _, raw := range raws {
		row := challan.RemoteRow[challan.Division]{Raw: string(raw)}
		var p divisionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			row.Err = fmt.Errorf("%w: %v", challan.ErrAuthorityInvalidResponse, err)
		} else if p.DivisionID == "" {
			row.Err = fmt.Errorf("%w: missing division_id", challan.ErrAuthorityInvalidResponse)
		} else {
			row.Value = challan.Division{
				RemoteID:     p.DivisionID,
				Name:         p.DivisionName,
				ZoneRemoteID: p.ZoneID,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchCircles retrieves the circle master list.
func (c *Client) FetchCircles(ctx context.Context) ([]challan.RemoteRow[challan.Circle], error) {
	raws, err := c.fetchList(ctx, circleListPath)
	if err != nil {
		return nil, err
	}

	rows := make([]challan.RemoteRow[challan.Circle], 0, len(raws))
	for _, raw := range raws {
		row := challan.RemoteRow[challan.Circle]{Raw: string(raw)}
		var p circlePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			row.Err = fmt.Errorf("%w: %v", challan.ErrAuthorityInvalidResponse, err)
		} else if p.CircleID == "" {
			row.Err = fmt.Errorf("%w: missing circle_id", challan.ErrAuthorityInvalidResponse)
		} else {
			row.Value = challan.Circle{
				RemoteID:         p.CircleID,
				Name:             p.CircleName,
				DivisionRemoteID: p.DivisionID,
				ZoneRemoteID:     p.ZoneID,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchCommissionRates retrieves the VAT commission rate master list.
func (c *Client) FetchCommissionRates(ctx context.Context) ([]challan.RemoteRow[challan.CommissionRate], error) {
	raws, err := c.fetchList(ctx, commissionRateListPath)
	if err != nil {
		return nil, err
	}

	rows := make([]challan.RemoteRow[challan.CommissionRate], 0, len(raws))
	for _, raw := range raws {
		row := challan.RemoteRow[challan.CommissionRate]{Raw: string(raw)}
		var p commissionRatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			row.Err = fmt.Errorf("%w: %v", challan.ErrAuthorityInvalidResponse, err)
		} else if p.CommissionRateID == "" {
			row.Err = fmt.Errorf("%w: missing vat_commissionrate_id", challan.ErrAuthorityInvalidResponse)
		} else {
			row.Value = challan.CommissionRate{
				RemoteID:            p.CommissionRateID,
				Name:                p.Name,
				Rate:                p.Rate,
				ZoneRemoteID:        p.ZoneID,
				DivisionRemoteID:    p.DivisionID,
				CircleRemoteID:      p.CircleID,
				ServiceTypeRemoteID: p.ServiceTypeID,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchServiceTypes retrieves the service type master list.
func (c *Client) FetchServiceTypes(ctx context.Context) ([]challan.RemoteRow[challan.ServiceType], error) {
	raws, err := c.fetchList(ctx, serviceTypeListPath)
	if err != nil {
		return nil, err
	}

	rows := make([]challan.RemoteRow[challan.ServiceType], 0, len(raws))
	for _, raw := range raws {
		row := challan.RemoteRow[challan.ServiceType]{Raw: string(raw)}
		var p serviceTypePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			row.Err = fmt.Errorf("%w: %v", challan.ErrAuthorityInvalidResponse, err)
		} else if p.ServiceTypeID == "" {
			row.Err = fmt.Errorf("%w: missing service_type_id", challan.ErrAuthorityInvalidResponse)
		} else {
			row.Value = challan.ServiceType{
				RemoteID: p.ServiceTypeID,
				Code:     p.ServiceTypeCode,
				Name:     p.ServiceTypeName,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
