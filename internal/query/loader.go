// Package query turns a field selection into fetched chart data: a settle
// delay, one concurrent trend fetch per field, then the price/volume overlay.
package query

import (
	"context"
	"sync"
	"time"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/normalize"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTrendLimit = 999
	DefaultLookback   = domain.DefaultLookback
)

type TrendSource interface {
	Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error)
}

type PriceSource interface {
	Overlay(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.PricePoint, error)
}

// DateRange is an inclusive YYYY-MM-DD span.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Result is everything one dispatch fetched. Fields follow the selection order;
// a field whose fetch failed has no points and an entry in FieldErrors.
type Result struct {
	Generation  uint64
	Selection   chart.Selection
	Fields      []chart.FieldData
	Prices      []domain.PricePoint
	Range       *DateRange
	FieldErrors map[string]string
}

// Desired converts the result into chart input.
func (r Result) Desired() chart.Desired {
	return chart.Desired{
		Commodity: r.Selection.Commodity,
		Fields:    r.Fields,
		Overlay:   r.Selection.Overlay,
		Prices:    r.Prices,
	}
}

type Loader struct {
	trends   TrendSource
	prices   PriceSource
	tracer   trace.Tracer
	log      logrus.FieldLogger
	limit    int
	lookback time.Duration
	now      func() time.Time
}

type LoaderOption func(*Loader)

func WithTrendLimit(limit int) LoaderOption {
	return func(l *Loader) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithLookback caps how far back the overlay range may start.
func WithLookback(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.lookback = d
		}
	}
}

func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

func NewLoader(tracer trace.Tracer, log logrus.FieldLogger, trends TrendSource, prices PriceSource, opts ...LoaderOption) *Loader {
	l := &Loader{
		trends:   trends,
		prices:   prices,
		tracer:   tracer,
		log:      log.WithField("component", "query-loader"),
		limit:    DefaultTrendLimit,
		lookback: DefaultLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every selected field concurrently, then the overlay if it is
// enabled and the fields produced at least one dated point. It never fails:
// per-field errors become empty series and an overlay error an empty overlay.
func (l *Loader) Load(ctx context.Context, sess domain.Session, sel chart.Selection) Result {
	ctx, span := l.tracer.Start(ctx, "query.load")
	defer span.End()
	span.SetAttributes(
		attribute.String("commodity", sel.Commodity),
		attribute.Int("fields", len(sel.Fields)),
		attribute.Bool("overlay", sel.Overlay),
	)

	res := Result{
		Selection: sel,
		Fields:    make([]chart.FieldData, len(sel.Fields)),
	}
	if len(sel.Fields) == 0 {
		return res
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for i, field := range sel.Fields {
		g.Go(func() error {
			points, err := l.trends.Trend(ctx, sess, sel.Commodity, field, l.limit)
			if err != nil {
				l.log.WithFields(logrus.Fields{
					"commodity": sel.Commodity,
					"field":     field,
				}).WithError(err).Warn("trend fetch failed, showing empty series")
				mu.Lock()
				if res.FieldErrors == nil {
					res.FieldErrors = make(map[string]string)
				}
				res.FieldErrors[field] = err.Error()
				mu.Unlock()
				points = nil
			}
			res.Fields[i] = chart.FieldData{Field: field, Points: points}
			return nil
		})
	}
	_ = g.Wait()

	if !sel.Overlay {
		return res
	}
	rng, ok := OverlayRange(res.Fields, l.now(), l.lookback)
	if !ok {
		return res
	}
	res.Range = &rng

	prices, err := l.prices.Overlay(ctx, sess, sel.Commodity, rng.Start, rng.End)
	if err != nil {
		l.log.WithField("commodity", sel.Commodity).WithError(err).Warn("price overlay fetch failed")
		return res
	}
	res.Prices = prices
	return res
}

// OverlayRange spans from the earliest dated point across all series to now,
// with the start clamped to the lookback window. ok is false when no series has
// a parseable date.
func OverlayRange(fields []chart.FieldData, now time.Time, lookback time.Duration) (DateRange, bool) {
	var earliest time.Time
	for _, f := range fields {
		for _, p := range f.Points {
			t, ok := normalize.ParseDate(p.ReportDate)
			if !ok {
				continue
			}
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
	}
	if earliest.IsZero() {
		return DateRange{}, false
	}

	now = now.UTC()
	if floor := domain.LookbackStart(now, lookback); earliest.Before(floor) {
		earliest = floor
	}
	return DateRange{
		Start: earliest.Format(domain.DateLayout),
		End:   now.Format(domain.DateLayout),
	}, true
}
