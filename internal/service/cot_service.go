package service

import (
	"context"
	"fmt"
	"time"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/normalize"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// historyFloor is the start date used when only an end date is given.
const historyFloor = "1900-01-01"

type CotBackend interface {
	Ingest(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) (domain.IngestResult, error)
	ListByCommodity(ctx context.Context, sess domain.Session, commodity string) ([]domain.CotRecord, error)
	ListByDateRange(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.CotRecord, error)
	Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error)
	Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error)
}

type IngestRunRecorder interface {
	Record(ctx context.Context, run domain.IngestRun) (domain.IngestRun, error)
	Recent(ctx context.Context, commodity string, limit int) ([]domain.IngestRun, error)
}

// CotService is what every front door (HTTP, SSH, bot, MCP) calls.
type CotService struct {
	tracer     trace.Tracer
	log        logrus.FieldLogger
	backend    CotBackend
	runs       IngestRunRecorder
	trendLimit int
	now        func() time.Time
}

// NewCotService creates the service. runs may be nil when no database is
// configured.
func NewCotService(tracer trace.Tracer, log logrus.FieldLogger, backend CotBackend, runs IngestRunRecorder, trendLimit int) *CotService {
	return &CotService{
		tracer:     tracer,
		log:        log.WithField("component", "cot-service"),
		backend:    backend,
		runs:       runs,
		trendLimit: trendLimit,
		now:        time.Now,
	}
}

// IngestRequest is one user- or scheduler-initiated ingest.
type IngestRequest struct {
	Commodity   string `json:"commodity_name"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	TriggeredBy string `json:"-"`
}

// Ingest triggers backend ingestion and returns the result with a status
// message for display. The attempt is recorded whether it succeeds or not.
func (s *CotService) Ingest(ctx context.Context, sess domain.Session, req IngestRequest) (domain.IngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "cot-service.ingest")
	defer span.End()

	commodity, ok := domain.NormalizeCommodity(req.Commodity)
	if !ok {
		return domain.IngestResult{}, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, req.Commodity)
	}
	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return domain.IngestResult{}, err
	}
	span.SetAttributes(attribute.String("commodity", commodity))

	result, err := s.backend.Ingest(ctx, sess, commodity, req.StartDate, req.EndDate)
	run := domain.IngestRun{
		Commodity:   commodity,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TriggeredBy: req.TriggeredBy,
		Status:      domain.IngestStatusOK,
	}
	if err != nil {
		run.Status = domain.IngestStatusFailed
		run.Error = err.Error()
	} else {
		result.Message = IngestMessage(result)
		run.InsertedCount = result.InsertedCount
		run.DuplicateCount = result.DuplicateCount
	}
	s.recordRun(ctx, run)

	if err != nil {
		return domain.IngestResult{}, err
	}
	s.log.WithFields(logrus.Fields{
		"commodity":  commodity,
		"inserted":   result.InsertedCount,
		"duplicates": result.DuplicateCount,
	}).Info("ingest complete")
	return result, nil
}

func (s *CotService) recordRun(ctx context.Context, run domain.IngestRun) {
	if s.runs == nil {
		return
	}
	if _, err := s.runs.Record(ctx, run); err != nil {
		s.log.WithError(err).Warn("failed to record ingest run")
	}
}

// IngestRuns lists recorded ingest attempts. Without a database it returns
// ErrHistoryUnavailable.
func (s *CotService) IngestRuns(ctx context.Context, commodity string, limit int) ([]domain.IngestRun, error) {
	if s.runs == nil {
		return nil, ErrHistoryUnavailable
	}
	if commodity != "" {
		canonical, ok := domain.NormalizeCommodity(commodity)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
		}
		commodity = canonical
	}
	return s.runs.Recent(ctx, commodity, limit)
}

// IngestMessage phrases a result the way the dashboard shows it. A backend
// message wins over the computed text.
func IngestMessage(r domain.IngestResult) string {
	switch {
	case r.Message != "":
		return r.Message
	case r.DuplicateCount > 0:
		return fmt.Sprintf("Ingested %d new records. Skipped %d duplicates.", r.InsertedCount, r.DuplicateCount)
	case r.InsertedCount == 0:
		return "No new data found for the selected date range."
	default:
		return fmt.Sprintf("Successfully ingested %d records", r.InsertedCount)
	}
}

// Latest returns the newest report; nil with no error means the backend has none.
func (s *CotService) Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error) {
	ctx, span := s.tracer.Start(ctx, "cot-service.latest")
	defer span.End()

	canonical, ok := domain.NormalizeCommodity(commodity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	return s.backend.Latest(ctx, sess, canonical)
}

// List returns every stored report for a commodity, newest first.
func (s *CotService) List(ctx context.Context, sess domain.Session, commodity string) ([]domain.CotRecord, error) {
	ctx, span := s.tracer.Start(ctx, "cot-service.list")
	defer span.End()

	canonical, ok := domain.NormalizeCommodity(commodity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	records, err := s.backend.ListByCommodity(ctx, sess, canonical)
	if err != nil {
		return nil, err
	}
	normalize.SortByDateDesc(records)
	return records, nil
}

// HistoryRange resolves the date filter: both dates give that range, only a
// start runs to today, only an end starts at 1900-01-01. ok is false when
// neither is set, meaning no historical query is made.
func HistoryRange(startDate, endDate string, now time.Time) (start, end string, ok bool) {
	switch {
	case startDate != "" && endDate != "":
		return startDate, endDate, true
	case startDate != "":
		return startDate, now.UTC().Format(domain.DateLayout), true
	case endDate != "":
		return historyFloor, endDate, true
	default:
		return "", "", false
	}
}

// History returns reports for the date filter, newest first. With no dates
// it returns nil without calling the backend.
func (s *CotService) History(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) ([]domain.CotRecord, error) {
	ctx, span := s.tracer.Start(ctx, "cot-service.history")
	defer span.End()

	canonical, ok := domain.NormalizeCommodity(commodity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	if err := validateDates(startDate, endDate); err != nil {
		return nil, err
	}
	start, end, ok := HistoryRange(startDate, endDate, s.now())
	if !ok {
		return nil, nil
	}
	span.SetAttributes(attribute.String("start_date", start), attribute.String("end_date", end))

	records, err := s.backend.ListByDateRange(ctx, sess, canonical, start, end)
	if err != nil {
		return nil, err
	}
	normalize.SortByDateDesc(records)
	return records, nil
}

// View is the data section of the dashboard for one commodity.
type View struct {
	Commodity string             `json:"commodity"`
	Latest    *domain.CotRecord  `json:"latest"`
	History   []domain.CotRecord `json:"history"`
	StartDate string             `json:"start_date,omitempty"`
	EndDate   string             `json:"end_date,omitempty"`
}

// LoadView fetches the latest report and the filtered history. Either
// failure is returned with the partial view.
func (s *CotService) LoadView(ctx context.Context, sess domain.Session, commodity, startDate, endDate string) (View, error) {
	ctx, span := s.tracer.Start(ctx, "cot-service.load-view")
	defer span.End()

	canonical, ok := domain.NormalizeCommodity(commodity)
	if !ok {
		return View{}, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	view := View{Commodity: canonical, StartDate: startDate, EndDate: endDate, History: []domain.CotRecord{}}

	latest, err := s.backend.Latest(ctx, sess, canonical)
	if err != nil {
		return view, fmt.Errorf("load latest: %w", err)
	}
	view.Latest = latest

	history, err := s.History(ctx, sess, canonical, startDate, endDate)
	if err != nil {
		return view, fmt.Errorf("load history: %w", err)
	}
	if history != nil {
		view.History = history
	}
	return view, nil
}

// Trend returns one field's series, validating the field name first.
func (s *CotService) Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error) {
	canonical, ok := domain.NormalizeCommodity(commodity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	if !domain.IsKnownField(field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if limit <= 0 {
		limit = s.trendLimit
	}
	return s.backend.Trend(ctx, sess, canonical, field, limit)
}

func validateDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}
	return nil
}
