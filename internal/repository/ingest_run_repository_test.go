package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"cot-dashboard/internal/domain"

	"github.com/pashagolub/pgxmock/v4"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var runColumns = []string{
	"id", "commodity", "start_date", "end_date", "inserted_count", "duplicate_count",
	"status", "error", "triggered_by", "created_at",
}

func TestRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	created := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ingest_runs")).
		WithArgs("GOLD", "2024-01-01", "", 4, 1, domain.IngestStatusOK, "", "scheduler").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	repo := NewIngestRunRepository(mock, testTracer)
	run, err := repo.Record(context.Background(), domain.IngestRun{
		Commodity:      "GOLD",
		StartDate:      "2024-01-01",
		InsertedCount:  4,
		DuplicateCount: 1,
		Status:         domain.IngestStatusOK,
		TriggeredBy:    "scheduler",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID != 7 || !run.CreatedAt.Equal(created) {
		t.Fatalf("unexpected run: %+v", run)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordError(t *testing.T) {
	mock, _ := pgxmock.NewPool()
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ingest_runs")).WillReturnError(errors.New("relation does not exist"))

	if _, err := NewIngestRunRepository(mock, testTracer).Record(context.Background(), domain.IngestRun{Commodity: "GOLD"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecentFiltersByCommodityAndClampsLimit(t *testing.T) {
	mock, _ := pgxmock.NewPool()
	defer mock.Close()

	created := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE commodity = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("SILVER", MaxRunLimit).
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow(int64(2), "SILVER", "", "", 0, 0, domain.IngestStatusFailed, "timeout", "http:alice", created).
			AddRow(int64(1), "SILVER", "2024-01-01", "2024-02-01", 10, 0, domain.IngestStatusOK, "", "http:alice", created.Add(-time.Hour)))

	runs, err := NewIngestRunRepository(mock, testTracer).Recent(context.Background(), "SILVER", 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 || runs[0].Error != "timeout" || runs[1].InsertedCount != 10 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecentAllCommoditiesDefaultLimit(t *testing.T) {
	mock, _ := pgxmock.NewPool()
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM ingest_runs ORDER BY created_at DESC LIMIT $1")).
		WithArgs(DefaultRunLimit).
		WillReturnRows(pgxmock.NewRows(runColumns))

	runs, err := NewIngestRunRepository(mock, testTracer).Recent(context.Background(), "", 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("unexpected result %+v err=%v", runs, err)
	}
}
