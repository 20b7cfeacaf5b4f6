// internal/service/forecast_period_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/backend-go/internal/forecastperiod"
	"github.com/shelfwatch/backend-go/internal/repository"
)

// ForecastPeriodService validates period mutations against the product's
// current set and delegates persistence. A failed validation applies no
// partial mutation: the stored set is only written after the in-memory set
// accepted the change.
type ForecastPeriodService struct {
	periods     repository.ForecastPeriodRepository
	products    repository.ProductRepository
	projections repository.ProjectionRepository
	cache       cache.TimelineCache
}

func NewForecastPeriodService(
	periods repository.ForecastPeriodRepository,
	products repository.ProductRepository,
	projections repository.ProjectionRepository,
	cacheImpl cache.TimelineCache,
) *ForecastPeriodService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopTimelineCache()
	}
	return &ForecastPeriodService{
		periods:     periods,
		products:    products,
		projections: projections,
		cache:       cacheImpl,
	}
}

func (s *ForecastPeriodService) List(ctx context.Context, productID int64) ([]domain.ForecastPeriod, error) {
	periods, err := s.periods.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	return forecastperiod.NewSet(periods).Periods(), nil
}

func (s *ForecastPeriodService) Add(ctx context.Context, productID int64, period domain.ForecastPeriod) ([]domain.ForecastPeriod, error) {
	set, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if period.ClientID == "" {
		period.ClientID = uuid.NewString()
	}
	period.ProductID = productID

	updated, err := set.Add(period)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, productID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ForecastPeriodService) Edit(ctx context.Context, productID int64, clientID string, period domain.ForecastPeriod) ([]domain.ForecastPeriod, error) {
	set, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	period.ProductID = productID

	updated, err := set.Edit(clientID, period)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, productID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ForecastPeriodService) Delete(ctx context.Context, productID int64, clientID string) ([]domain.ForecastPeriod, error) {
	set, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	updated, err := set.Delete(clientID)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, productID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ForecastPeriodService) ProposeNextStart(ctx context.Context, productID int64, now time.Time) (time.Time, error) {
	set, err := s.load(ctx, productID)
	if err != nil {
		return time.Time{}, err
	}
	return set.ProposeNextStart(now), nil
}

func (s *ForecastPeriodService) load(ctx context.Context, productID int64) (*forecastperiod.Set, error) {
	periods, err := s.periods.List(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load forecast periods for product %d: %w", productID, err)
	}
	return forecastperiod.NewSet(periods), nil
}

// persist saves the validated set, then nudges the projection pipeline: the
// rate schedule changed, so the product's horizon must be regenerated and any
// cached timelines dropped.
func (s *ForecastPeriodService) persist(ctx context.Context, productID int64, periods []domain.ForecastPeriod) error {
	if err := s.periods.Save(ctx, productID, periods); err != nil {
		return err
	}

	code, err := s.products.CodeByID(ctx, productID)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast periods: could not resolve product code for refresh")
		return nil
	}

	if err := s.projections.MarkForRefresh(ctx, code); err != nil {
		log.Warn().Err(err).Str("product", code).Msg("forecast periods: refresh request failed")
	}
	if err := s.cache.Invalidate(ctx, code); err != nil {
		log.Warn().Err(err).Str("product", code).Msg("forecast periods: cache invalidate failed")
	}
	return nil
}
