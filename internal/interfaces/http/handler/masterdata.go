package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/erp/vatchallan/internal/application/masterdata"
	"github.com/erp/vatchallan/internal/domain/challan"
)

// MasterDataHandler exposes the jurisdiction master-data sync and listing
// endpoints.
type MasterDataHandler struct {
	BaseHandler
	sync     *masterdata.SyncService
	listings *masterdata.ListingService
}

// NewMasterDataHandler creates a new MasterDataHandler
func NewMasterDataHandler(sync *masterdata.SyncService, listings *masterdata.ListingService) *MasterDataHandler {
	return &MasterDataHandler{sync: sync, listings: listings}
}

// SyncFailureResponse is one skipped row of a sync run
type SyncFailureResponse struct {
	RemoteID string `json:"remote_id"`
	Reason   string `json:"reason"`
}

// SyncResultResponse reports what a sync run did
type SyncResultResponse struct {
	Status   string                `json:"status"`
	Total    int                   `json:"total"`
	Created  int                   `json:"created"`
	Updated  int                   `json:"updated"`
	Skipped  int                   `json:"skipped"`
	Failures []SyncFailureResponse `json:"failures,omitempty"`
	SyncedAt string                `json:"synced_at"`
}

func toSyncResultResponse(r *challan.SyncResult) SyncResultResponse {
	resp := SyncResultResponse{
		Status:   r.Status.String(),
		Total:    r.TotalCount,
		Created:  r.CreatedCount,
		Updated:  r.UpdatedCount,
		Skipped:  r.SkippedCount,
		SyncedAt: r.SyncedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, SyncFailureResponse{RemoteID: f.RemoteID, Reason: f.Reason})
	}
	return resp
}

// SyncZones pulls the zone list from the authority and upserts it locally
func (h *MasterDataHandler) SyncZones(c *gin.Context) {
	result, err := h.sync.SyncZones(c.Request.Context())
	h.respondSync(c, result, err)
}

// SyncDivisions pulls the division list from the authority
func (h *MasterDataHandler) SyncDivisions(c *gin.Context) {
	result, err := h.sync.SyncDivisions(c.Request.Context())
	h.respondSync(c, result, err)
}

// SyncCircles pulls the circle list from the authority
func (h *MasterDataHandler) SyncCircles(c *gin.Context) {
	result, err := h.sync.SyncCircles(c.Request.Context())
	h.respondSync(c, result, err)
}

// SyncCommissionRates pulls the commission rate list from the authority
func (h *MasterDataHandler) SyncCommissionRates(c *gin.Context) {
	result, err := h.sync.SyncCommissionRates(c.Request.Context())
	h.respondSync(c, result, err)
}

// SyncServiceTypes pulls the service type list from the authority
func (h *MasterDataHandler) SyncServiceTypes(c *gin.Context) {
	result, err := h.sync.SyncServiceTypes(c.Request.Context())
	h.respondSync(c, result, err)
}

// SyncAll runs every master-data sync. Individual failures do not abort the
// run; each entity reports its own result.
func (h *MasterDataHandler) SyncAll(c *gin.Context) {
	results, err := h.sync.SyncAll(c.Request.Context())
	if err != nil && len(results) == 0 {
		h.HandleError(c, err)
		return
	}
	out := make(map[string]SyncResultResponse, len(results))
	for entity, result := range results {
		out[entity] = toSyncResultResponse(result)
	}
	h.Success(c, out)
}

func (h *MasterDataHandler) respondSync(c *gin.Context, result *challan.SyncResult, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncResultResponse(result))
}

// referenceQuery carries the shared listing query parameters
type referenceQuery struct {
	ZoneID       string `form:"zone_id"`
	DivisionID   string `form:"division_id"`
	ForceRefresh bool   `form:"force_refresh"`
}

// ZoneResponse represents a synced zone
type ZoneResponse struct {
	RemoteID string `json:"remote_id"`
	Name     string `json:"name"`
}

// ListZones returns the synced zones
func (h *MasterDataHandler) ListZones(c *gin.Context) {
	var q referenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	zones, err := h.listings.ListZones(c.Request.Context(), q.ForceRefresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, ZoneResponse{RemoteID: z.RemoteID, Name: z.Name})
	}
	h.Success(c, out)
}

// DivisionResponse represents a synced division
type DivisionResponse struct {
	RemoteID     string `json:"remote_id"`
	Name         string `json:"name"`
	ZoneRemoteID string `json:"zone_remote_id"`
}

// ListDivisions returns the synced divisions, optionally scoped to a zone
func (h *MasterDataHandler) ListDivisions(c *gin.Context) {
	var q referenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	filter := challan.ReferenceFilter{ZoneRemoteID: q.ZoneID}
	divisions, err := h.listings.ListDivisions(c.Request.Context(), filter, q.ForceRefresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DivisionResponse, 0, len(divisions))
	for _, d := range divisions {
		out = append(out, DivisionResponse{RemoteID: d.RemoteID, Name: d.Name, ZoneRemoteID: d.ZoneRemoteID})
	}
	h.Success(c, out)
}

// CircleResponse represents a synced circle
type CircleResponse struct {
	RemoteID         string `json:"remote_id"`
	Name             string `json:"name"`
	DivisionRemoteID string `json:"division_remote_id"`
	ZoneRemoteID     string `json:"zone_remote_id"`
}

// ListCircles returns the synced circles, optionally scoped to a division
func (h *MasterDataHandler) ListCircles(c *gin.Context) {
	var q referenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	filter := challan.ReferenceFilter{ZoneRemoteID: q.ZoneID, DivisionRemoteID: q.DivisionID}
	circles, err := h.listings.ListCircles(c.Request.Context(), filter, q.ForceRefresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]CircleResponse, 0, len(circles))
	for _, cl := range circles {
		out = append(out, CircleResponse{
			RemoteID:         cl.RemoteID,
			Name:             cl.Name,
			DivisionRemoteID: cl.DivisionRemoteID,
			ZoneRemoteID:     cl.ZoneRemoteID,
		})
	}
	h.Success(c, out)
}

// CommissionRateResponse represents a synced commission rate
type CommissionRateResponse struct {
	RemoteID            string          `json:"remote_id"`
	Name                string          `json:"name"`
	Rate                decimal.Decimal `json:"rate"`
	ZoneRemoteID        string          `json:"zone_remote_id,omitempty"`
	DivisionRemoteID    string          `json:"division_remote_id,omitempty"`
	CircleRemoteID      string          `json:"circle_remote_id,omitempty"`
	ServiceTypeRemoteID string          `json:"service_type_remote_id,omitempty"`
}

// ListCommissionRates returns the synced commission rates
func (h *MasterDataHandler) ListCommissionRates(c *gin.Context) {
	var q referenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	filter := challan.ReferenceFilter{ZoneRemoteID: q.ZoneID, DivisionRemoteID: q.DivisionID}
	rates, err := h.listings.ListCommissionRates(c.Request.Context(), filter, q.ForceRefresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]CommissionRateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, CommissionRateResponse{
			RemoteID:            r.RemoteID,
			Name:                r.Name,
			Rate:                r.Rate,
			ZoneRemoteID:        r.ZoneRemoteID,
			DivisionRemoteID:    r.DivisionRemoteID,
			CircleRemoteID:      r.CircleRemoteID,
			ServiceTypeRemoteID: r.ServiceTypeRemoteID,
		})
	}
	h.Success(c, out)
}

// ServiceTypeResponse represents a synced service type
type ServiceTypeResponse struct {
	RemoteID string `json:"remote_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// ListServiceTypes returns the synced service types
func (h *MasterDataHandler) ListServiceTypes(c *gin.Context) {
	var q referenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}
	types, err := h.listings.ListServiceTypes(c.Request.Context(), q.ForceRefresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ServiceTypeResponse, 0, len(types))
	for _, st := range types {
		out = append(out, ServiceTypeResponse{RemoteID: st.RemoteID, Code: st.Code, Name: st.Name})
	}
	h.Success(c, out)
}
