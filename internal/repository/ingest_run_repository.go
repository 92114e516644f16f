package repository

import (
	"context"
	"fmt"

	"cot-dashboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRunLimit = 20
	MaxRunLimit     = 200
)

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IngestRunRepository records every ingest the dashboard triggers so the
// history survives restarts. The table is created by cmd/migrate.
type IngestRunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewIngestRunRepository(pool PgxPool, tracer trace.Tracer) *IngestRunRepository {
	return &IngestRunRepository{pool: pool, tracer: tracer}
}

// Record inserts run and returns it with ID and CreatedAt set.
func (r *IngestRunRepository) Record(ctx context.Context, run domain.IngestRun) (domain.IngestRun, error) {
	ctx, span := r.tracer.Start(ctx, "ingest-run-repo.record")
	defer span.End()
	span.SetAttributes(attribute.String("commodity", run.Commodity), attribute.String("status", run.Status))

	err := r.pool.QueryRow(ctx,
		`INSERT INTO ingest_runs (commodity, start_date, end_date, inserted_count, duplicate_count, status, error, triggered_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		run.Commodity, run.StartDate, run.EndDate, run.InsertedCount, run.DuplicateCount, run.Status, run.Error, run.TriggeredBy,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return domain.IngestRun{}, fmt.Errorf("insert ingest run: %w", err)
	}
	return run, nil
}

// Recent lists the newest runs, optionally for one commodity. limit is
// clamped to [1, MaxRunLimit] with DefaultRunLimit for non-positive values.
func (r *IngestRunRepository) Recent(ctx context.Context, commodity string, limit int) ([]domain.IngestRun, error) {
	ctx, span := r.tracer.Start(ctx, "ingest-run-repo.recent")
	defer span.End()

	if limit <= 0 {
		limit = DefaultRunLimit
	}
	if limit > MaxRunLimit {
		limit = MaxRunLimit
	}

	const columns = `SELECT id, commodity, start_date, end_date, inserted_count, duplicate_count, status, error, triggered_by, created_at
		 FROM ingest_runs`
	var (
		rows pgx.Rows
		err  error
	)
	if commodity == "" {
		rows, err = r.pool.Query(ctx, columns+` ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = r.pool.Query(ctx, columns+` WHERE commodity = $1 ORDER BY created_at DESC LIMIT $2`, commodity, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		var run domain.IngestRun
		if err := rows.Scan(
			&run.ID, &run.Commodity, &run.StartDate, &run.EndDate,
			&run.InsertedCount, &run.DuplicateCount, &run.Status, &run.Error,
			&run.TriggeredBy, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ingest run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
