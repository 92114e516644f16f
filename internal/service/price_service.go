package service

import (
	"context"
	"fmt"
	"time"

	"cot-dashboard/internal/cache"
	"cot-dashboard/internal/domain"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPriceCacheTTL = 15 * time.Minute
	priceInterval        = "1d"
)

type PriceProvider interface {
	HistoricalPrices(ctx context.Context, sess domain.Session, symbol, startDate, endDate, interval string) ([]domain.PricePoint, error)
}

// PriceService serves the daily price/volume overlay for a commodity, cached
// in Redis per (ticker, range).
type PriceService struct {
	tracer   trace.Tracer
	log      logrus.FieldLogger
	provider PriceProvider
	redis    cache.JSONStore
	ttl      time.Duration
	lookback time.Duration
	now      func() time.Time
}

// NewPriceService creates the service. redisClient may be nil to disable caching.
func NewPriceService(
	tracer trace.Tracer,
	log logrus.FieldLogger,
	provider PriceProvider,
	redisClient cache.JSONStore,
	ttl time.Duration,
	lookback time.Duration,
) *PriceService {
	if ttl <= 0 {
		ttl = defaultPriceCacheTTL
	}
	return &PriceService{
		tracer:   tracer,
		log:      log.WithField("component", "price-service"),
		provider: provider,
		redis:    redisClient,
		ttl:      ttl,
		lookback: lookback,
		now:      time.Now,
	}
}

func priceCacheKey(symbol, start, end string) string {
	return fmt.Sprintf("prices:%s:%s:%s", symbol, start, end)
}

// Overlay returns daily bars for the commodity's ticker. A rate-limited
// upstream yields an empty slice, which is not cached. Dates must be
// YYYY-MM-DD.
func (s *PriceService) Overlay(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.PricePoint, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.overlay")
	defer span.End()

	if err := validateDates(startDate, endDate); err != nil {
		return nil, err
	}

	symbol := domain.SymbolFor(commodity)
	span.SetAttributes(attribute.String("symbol", symbol))
	key := priceCacheKey(symbol, startDate, endDate)

	if s.redis != nil {
		var cached []domain.PricePoint
		found, err := cache.GetJSON(ctx, s.redis, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("redis cache read error")
		}
		if found {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
	}

	return s.fetch(ctx, sess, symbol, startDate, endDate)
}

func (s *PriceService) fetch(ctx context.Context, sess domain.Session, symbol, startDate, endDate string) ([]domain.PricePoint, error) {
	points, err := s.provider.HistoricalPrices(ctx, sess, symbol, startDate, endDate, priceInterval)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 && s.redis != nil {
		if err := cache.SetJSON(ctx, s.redis, priceCacheKey(symbol, startDate, endDate), points, s.ttl); err != nil {
			s.log.WithField("symbol", symbol).WithError(err).Warn("redis cache write error")
		}
	}
	return points, nil
}

// WarmRange is the overlay range used whenever the selected fields reach
// back further than the lookback window, which is the usual case.
func (s *PriceService) WarmRange() (start, end string) {
	now := s.now().UTC()
	return domain.LookbackStart(now, s.lookback).Format(domain.DateLayout), now.Format(domain.DateLayout)
}

// Refresh fetches the lookback-window overlay for a commodity and stores it,
// bypassing any cached copy. It returns the number of bars fetched.
func (s *PriceService) Refresh(ctx context.Context, sess domain.Session, commodity string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.refresh")
	defer span.End()

	start, end := s.WarmRange()
	points, err := s.fetch(ctx, sess, domain.SymbolFor(commodity), start, end)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}
