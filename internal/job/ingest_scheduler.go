package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TriggeredByScheduler marks ingest runs started by the cron schedule.
const TriggeredByScheduler = "scheduler"

type Ingester interface {
	Ingest(ctx context.Context, sess domain.Session, req service.IngestRequest) (domain.IngestResult, error)
}

// IngestScheduler pulls the most recent COT reports for each configured
// commodity on a cron schedule. Reports are published weekly, so the default
// schedule runs on Saturday morning.
type IngestScheduler struct {
	cron        *cron.Cron
	log         logrus.FieldLogger
	ingester    Ingester
	account     SessionSource
	commodities []string
	lookback    time.Duration
	now         func() time.Time
}

func NewIngestScheduler(log logrus.FieldLogger, ingester Ingester, account SessionSource, commodities []string, lookbackDays int) *IngestScheduler {
	if len(commodities) == 0 {
		commodities = domain.SupportedCommodities
	}
	return &IngestScheduler{
		cron:        cron.New(),
		log:         log.WithField("component", "ingest-scheduler"),
		ingester:    ingester,
		account:     account,
		commodities: commodities,
		lookback:    time.Duration(lookbackDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// Schedule registers the ingest run under a standard five-field cron spec.
func (s *IngestScheduler) Schedule(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(ctx); err != nil {
			s.log.WithError(err).Warn("scheduled ingest finished with errors")
		}
	})
	if err != nil {
		return fmt.Errorf("register ingest schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the cron scheduler. Blocks until ctx is cancelled, then waits
// for a running ingest to finish.
func (s *IngestScheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.WithField("commodities", s.commodities).Info("ingest scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("ingest scheduler stopped")
}

// RunNow ingests the lookback window for every commodity. One failure does not
// stop the others.
func (s *IngestScheduler) RunNow(ctx context.Context) error {
	sess, err := s.account.Session(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	start := now.Add(-s.lookback).Format(domain.DateLayout)
	end := now.Format(domain.DateLayout)

	var errs []error
	for _, commodity := range s.commodities {
		result, err := s.ingester.Ingest(ctx, sess, service.IngestRequest{
			Commodity:   commodity,
			StartDate:   start,
			EndDate:     end,
			TriggeredBy: TriggeredByScheduler,
		})
		if err != nil {
			if isUnauthorized(err) {
				s.account.Invalidate()
			}
			errs = append(errs, fmt.Errorf("%s: %w", commodity, err))
			continue
		}
		s.log.WithFields(logrus.Fields{
			"commodity": commodity,
			"start":     start,
			"end":       end,
		}).Info(result.Message)
	}
	return errors.Join(errs...)
}
