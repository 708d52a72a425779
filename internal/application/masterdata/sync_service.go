// Package masterdata synchronizes the authority's jurisdiction reference data
// and serves cached listings of it.
package masterdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// Cache keys per listing. A sync run invalidates its own listing only.
const (
	CacheKeyZones           = "zones"
	CacheKeyDivisions       = "divisions"
	CacheKeyCircles         = "circles"
	CacheKeyCommissionRates = "commission_rates"
	CacheKeyServiceTypes    = "service_types"
)

// DefaultCacheTTL bounds staleness between syncs.
const DefaultCacheTTL = 6 * time.Hour

// ReferenceCache is the cache port for reference-data listings. The Redis
// implementation lives in the infrastructure layer.
type ReferenceCache interface {
	// GetList loads a cached listing into out, returning false on a miss.
	GetList(ctx context.Context, key string, out any) (bool, error)
	// SetList stores a listing with a TTL.
	SetList(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate drops cached listings.
	Invalidate(ctx context.Context, keys ...string) error
}

// SyncService pulls reference data from the authority and upserts it by
// remote id. Malformed rows are skipped and logged; a run with skips reports
// partial success instead of failing.
type SyncService struct {
	gateway  challan.AuthorityGateway
	refs     challan.ReferenceRepository
	cache    ReferenceCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(gateway challan.AuthorityGateway, refs challan.ReferenceRepository, cache ReferenceCache, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		gateway:  gateway,
		refs:     refs,
		cache:    cache,
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
	}
}

// applyRows upserts fetched rows one by one. A row that failed to decode or
// to persist is counted and logged, never aborting the rest of the batch.
func applyRows[T any](
	ctx context.Context,
	entity string,
	rows []challan.RemoteRow[T],
	upsert func(context.Context, *T) (bool, error),
	remoteID func(*T) string,
	logger *zap.Logger,
) *challan.SyncResult {
	result := &challan.SyncResult{TotalCount: len(rows)}

	for i := range rows {
		row := &rows[i]
		if row.Err != nil {
			result.SkippedCount++
			result.Failures = append(result.Failures, challan.SyncFailure{Reason: row.Err.Error()})
			logger.Warn("skipping malformed row",
				zap.String("entity", entity),
				zap.String("raw", row.Raw),
				zap.Error(row.Err))
			continue
		}

		created, err := upsert(ctx, &row.Value)
		if err != nil {
			result.SkippedCount++
			result.Failures = append(result.Failures, challan.SyncFailure{
				RemoteID: remoteID(&row.Value),
				Reason:   err.Error(),
			})
			logger.Warn("failed to upsert row",
				zap.String("entity", entity),
				zap.String("remote_id", remoteID(&row.Value)),
				zap.Error(err))
			continue
		}
		if created {
			result.CreatedCount++
		} else {
			result.UpdatedCount++
		}
	}

	result.Finalize(time.Now())
	return result
}

// SyncZones pulls and upserts the zone master list.
func (s *SyncService) SyncZones(ctx context.Context) (*challan.SyncResult, error) {
	rows, err := s.gateway.FetchZones(ctx)
	if err != nil {
		return nil, err
	}
	result := applyRows(ctx, "zone", rows, s.refs.UpsertZone,
		func(z *challan.Zone) string { return z.RemoteID }, s.logger)
	s.invalidate(ctx, CacheKeyZones)
	s.logSync("zones", result)
	return result, nil
}

// SyncDivisions pulls and upserts the division master list.
func (s *SyncService) SyncDivisions(ctx context.Context) (*challan.SyncResult, error) {
	rows, err := s.gateway.FetchDivisions(ctx)
	if err != nil {
		return nil, err
	}
	result := applyRows(ctx, "division", rows, s.refs.UpsertDivision,
		func(d *challan.Division) string { return d.RemoteID }, s.logger)
	s.invalidate(ctx, CacheKeyDivisions)
	s.logSync("divisions", result)
	return result, nil
}

// SyncCircles pulls and upserts the circle master list.
func (s *SyncService) SyncCircles(ctx context.Context) (*challan.SyncResult, error) {
	rows, err := s.gateway.FetchCircles(ctx)
	if err != nil {
		return nil, err
	}
	result := applyRows(ctx, "circle", rows, s.refs.UpsertCircle,
		func(c *challan.Circle) string { return c.RemoteID }, s.logger)
	s.invalidate(ctx, CacheKeyCircles)
	s.logSync("circles", result)
	return result, nil
}

// SyncCommissionRates pulls and upserts the VAT commission rate master list.
func (s *SyncService) SyncCommissionRates(ctx context.Context) (*challan.SyncResult, error) {
	rows, err := s.gateway.FetchCommissionRates(ctx)
	if err != nil {
		return nil, err
	}
	result := applyRows(ctx, "commission_rate", rows, s.refs.UpsertCommissionRate,
		func(r *challan.CommissionRate) string { return r.RemoteID }, s.logger)
	s.invalidate(ctx, CacheKeyCommissionRates)
	s.logSync("commission_rates", result)
	return result, nil
}

// SyncServiceTypes pulls and upserts the service type master list.
func (s *SyncService) SyncServiceTypes(ctx context.Context) (*challan.SyncResult, error) {
	rows, err := s.gateway.FetchServiceTypes(ctx)
	if err != nil {
		return nil, err
	}
	result := applyRows(ctx, "service_type", rows, s.refs.UpsertServiceType,
		func(t *challan.ServiceType) string { return t.RemoteID }, s.logger)
	s.invalidate(ctx, CacheKeyServiceTypes)
	s.logSync("service_types", result)
	return result, nil
}

// SyncAll runs every sync in dependency order. One failing listing does not
// stop the others; the first error is returned after all have run.
func (s *SyncService) SyncAll(ctx context.Context) (map[string]*challan.SyncResult, error) {
	results := make(map[string]*challan.SyncResult, 5)
	var firstErr error

	run := func(name string, sync func(context.Context) (*challan.SyncResult, error)) {
		result, err := sync(ctx)
		if err != nil {
			s.logger.Error("sync failed", zap.String("entity", name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		results[name] = result
	}

	run("zones", s.SyncZones)
	run("divisions", s.SyncDivisions)
	run("circles", s.SyncCircles)
	run("service_types", s.SyncServiceTypes)
	run("commission_rates", s.SyncCommissionRates)

	return results, firstErr
}

func (s *SyncService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *SyncService) logSync(entity string, result *challan.SyncResult) {
	s.logger.Info("reference sync finished",
		zap.String("entity", entity),
		zap.String("status", result.Status.String()),
		zap.Int("total", result.TotalCount),
		zap.Int("created", result.CreatedCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("skipped", result.SkippedCount))
}
