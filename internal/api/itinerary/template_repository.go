package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-travel-agent-crm/app/db"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

var _ TemplateStore = (*PostgresTemplateRepo)(nil)

// PostgresTemplateRepo stores templates in itinerary_templates. The unique
// (destination, days) constraint makes the first insert win.
type PostgresTemplateRepo struct {
	logger *slog.Logger
	pgpool database.DBTX
}

func NewPostgresTemplateRepo(pgpool database.DBTX, logger *slog.Logger) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresTemplateRepo) GetTemplate(ctx context.Context, key string, days int) (*types.ItineraryBody, bool, error) {
	ctx, span := otel.Tracer("TemplateRepository").Start(ctx, "GetTemplate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "itinerary_templates"),
		attribute.String("destination", key),
		attribute.Int("days", days),
	))
	defer span.End()

	query := `
		SELECT itinerary
		FROM itinerary_templates
		WHERE destination = $1 AND days = $2
		ORDER BY created_at ASC
		LIMIT 1`

	var raw []byte
	err := r.pgpool.QueryRow(ctx, query, key, days).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Ok, "Template not found")
		return nil, false, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query itinerary template", slog.Any("error", err), slog.String("destination", key), slog.Int("days", days))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, false, fmt.Errorf("failed to query itinerary template: %w", err)
	}

	body, err := decodeItineraryBody(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Decode failed")
		return nil, false, err
	}

	span.SetStatus(codes.Ok, "Template found")
	return body, true, nil
}

func (r *PostgresTemplateRepo) PutTemplateIfAbsent(ctx context.Context, key string, days int, body types.ItineraryBody) (bool, error) {
	ctx, span := otel.Tracer("TemplateRepository").Start(ctx, "PutTemplateIfAbsent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "itinerary_templates"),
		attribute.String("destination", key),
		attribute.Int("days", days),
	))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Encode failed")
		return false, fmt.Errorf("failed to encode itinerary template: %w", err)
	}

	query := `
		INSERT INTO itinerary_templates (destination, days, itinerary)
		VALUES ($1, $2, $3)
		ON CONFLICT (destination, days) DO NOTHING`

	tag, err := r.pgpool.Exec(ctx, query, key, days, payload)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert itinerary template", slog.Any("error", err), slog.String("destination", key), slog.Int("days", days))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return false, fmt.Errorf("failed to insert itinerary template: %w", err)
	}

	inserted := tag.RowsAffected() > 0
	span.SetAttributes(attribute.Bool("inserted", inserted))
	span.SetStatus(codes.Ok, "Template write finished")
	return inserted, nil
}
