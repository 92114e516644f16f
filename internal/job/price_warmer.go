package job

import (
	"context"
	"errors"
	"time"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/provider"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionSource hands out the service account session used by background work.
type SessionSource interface {
	Session(ctx context.Context) (domain.Session, error)
	Invalidate()
}

type PriceRefresher interface {
	Refresh(ctx context.Context, sess domain.Session, commodity string) (int, error)
}

// PriceWarmer periodically refetches the lookback-window price overlay for
// every commodity so that dashboard chart loads hit the cache.
type PriceWarmer struct {
	tracer      trace.Tracer
	log         logrus.FieldLogger
	prices      PriceRefresher
	account     SessionSource
	commodities []string
	interval    time.Duration
}

func NewPriceWarmer(tracer trace.Tracer, log logrus.FieldLogger, prices PriceRefresher, account SessionSource, commodities []string, intervalSecs int) *PriceWarmer {
	if len(commodities) == 0 {
		commodities = domain.SupportedCommodities
	}
	return &PriceWarmer{
		tracer:      tracer,
		log:         log.WithField("component", "price-warmer"),
		prices:      prices,
		account:     account,
		commodities: commodities,
		interval:    time.Duration(intervalSecs) * time.Second,
	}
}

// Start runs the warm loop. Blocks until ctx is cancelled.
func (w *PriceWarmer) Start(ctx context.Context) {
	w.log.WithField("interval", w.interval).Info("price warmer starting")
	pollLoop(ctx, w.log, "price-warm", w.interval, w.WarmAll)
	w.log.Info("price warmer stopped")
}

// WarmAll refreshes every commodity once. A rejected token drops the cached
// service session so the next round logs in again.
func (w *PriceWarmer) WarmAll(ctx context.Context) error {
	ctx, span := w.tracer.Start(ctx, "job.price-warm")
	defer span.End()

	sess, err := w.account.Session(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, commodity := range w.commodities {
		n, err := w.prices.Refresh(ctx, sess, commodity)
		if err != nil {
			if isUnauthorized(err) {
				w.account.Invalidate()
				return err
			}
			w.log.WithField("commodity", commodity).WithError(err).Warn("price warm failed")
			errs = append(errs, err)
			continue
		}
		if n == 0 {
			w.log.WithField("commodity", commodity).Debug("no price bars returned, upstream may be rate limited")
		}
		span.SetAttributes(attribute.Int("bars."+commodity, n))
	}
	return errors.Join(errs...)
}

func isUnauthorized(err error) bool {
	var apiErr *provider.APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

func pollLoop(ctx context.Context, log logrus.FieldLogger, name string, interval time.Duration, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.WithField("job", name).WithError(err).Warn("initial run error")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.WithField("job", name).WithError(err).Warn("run error")
			}
		}
	}
}
