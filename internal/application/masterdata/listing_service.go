package masterdata

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// ListingService serves reference-data reads. Unfiltered listings are cached;
// a force-refresh read bypasses the cache and repopulates it.
type ListingService struct {
	refs   challan.ReferenceRepository
	cache  ReferenceCache
	logger *zap.Logger
}

// NewListingService creates a new ListingService
func NewListingService(refs challan.ReferenceRepository, cache ReferenceCache, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{refs: refs, cache: cache, logger: logger}
}

// ListZones returns all zones.
func (s *ListingService) ListZones(ctx context.Context, forceRefresh bool) ([]challan.Zone, error) {
	if !forceRefresh && s.cache != nil {
		var cached []challan.Zone
		if hit, err := s.cache.GetList(ctx, CacheKeyZones, &cached); err == nil && hit {
			return cached, nil
		}
	}

	zones, err := s.refs.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, CacheKeyZones, zones)
	return zones, nil
}

// ListDivisions returns divisions, optionally scoped to a zone. Only the
// unscoped listing is cached.
func (s *ListingService) ListDivisions(ctx context.Context, filter challan.ReferenceFilter, forceRefresh bool) ([]challan.Division, error) {
	cacheable := filter == challan.ReferenceFilter{}
	if cacheable && !forceRefresh && s.cache != nil {
		var cached []challan.Division
		if hit, err := s.cache.GetList(ctx, CacheKeyDivisions, &cached); err == nil && hit {
			return cached, nil
		}
	}

	divisions, err := s.refs.ListDivisions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.store(ctx, CacheKeyDivisions, divisions)
	}
	return divisions, nil
}

// ListCircles returns circles, optionally scoped to a zone or division.
func (s *ListingService) ListCircles(ctx context.Context, filter challan.ReferenceFilter, forceRefresh bool) ([]challan.Circle, error) {
	cacheable := filter == challan.ReferenceFilter{}
	if cacheable && !forceRefresh && s.cache != nil {
		var cached []challan.Circle
		if hit, err := s.cache.GetList(ctx, CacheKeyCircles, &cached); err == nil && hit {
			return cached, nil
		}
	}

	circles, err := s.refs.ListCircles(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.store(ctx, CacheKeyCircles, circles)
	}
	return circles, nil
}

// ListCommissionRates returns commission rates, optionally scoped.
func (s *ListingService) ListCommissionRates(ctx context.Context, filter challan.ReferenceFilter, forceRefresh bool) ([]challan.CommissionRate, error) {
	cacheable := filter == challan.ReferenceFilter{}
	if cacheable && !forceRefresh && s.cache != nil {
		var cached []challan.CommissionRate
		if hit, err := s.cache.GetList(ctx, CacheKeyCommissionRates, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rates, err := s.refs.ListCommissionRates(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.store(ctx, CacheKeyCommissionRates, rates)
	}
	return rates, nil
}

// ListServiceTypes returns all service types.
func (s *ListingService) ListServiceTypes(ctx context.Context, forceRefresh bool) ([]challan.ServiceType, error) {
	if !forceRefresh && s.cache != nil {
		var cached []challan.ServiceType
		if hit, err := s.cache.GetList(ctx, CacheKeyServiceTypes, &cached); err == nil && hit {
			return cached, nil
		}
	}

	types, err := s.refs.ListServiceTypes(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, CacheKeyServiceTypes, types)
	return types, nil
}

// store repopulates a cache entry. Cache failures are logged, never fatal.
func (s *ListingService) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetList(ctx, key, value, DefaultCacheTTL); err != nil {
		s.logger.Warn("failed to cache listing", zap.String("key", key), zap.Error(err))
	}
}
