package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-travel-agent-crm/app/db"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

// GenerationRepository is the append-only log of AI generations per lead.
type GenerationRepository interface {
	SaveGeneration(ctx context.Context, rec types.GenerationRecord) (uuid.UUID, error)
	ListGenerationsByLead(ctx context.Context, leadID string) ([]types.GenerationRecord, error)
}

var _ GenerationRepository = (*PostgresGenerationRepo)(nil)

type PostgresGenerationRepo struct {
	logger *slog.Logger
	pgpool database.DBTX
}

func NewPostgresGenerationRepo(pgpool database.DBTX, logger *slog.Logger) *PostgresGenerationRepo {
	return &PostgresGenerationRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresGenerationRepo) SaveGeneration(ctx context.Context, rec types.GenerationRecord) (uuid.UUID, error) {
	ctx, span := otel.Tracer("GenerationRepository").Start(ctx, "SaveGeneration", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "generated_itineraries"),
		attribute.String("lead.id", rec.LeadID),
	))
	defer span.End()

	payload, err := json.Marshal(rec.Itinerary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Encode failed")
		return uuid.Nil, fmt.Errorf("failed to encode generated itinerary: %w", err)
	}

	query := `
		INSERT INTO generated_itineraries (lead_id, destination, source, days, travellers, itinerary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query,
		rec.LeadID, rec.Destination, rec.Source, rec.Days, rec.Travellers, payload,
	).Scan(&id); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert generated itinerary", slog.Any("error", err), slog.String("leadID", rec.LeadID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return uuid.Nil, fmt.Errorf("failed to insert generated itinerary: %w", err)
	}

	span.SetAttributes(attribute.String("generation.id", id.String()))
	span.SetStatus(codes.Ok, "Generation saved")
	return id, nil
}

func (r *PostgresGenerationRepo) ListGenerationsByLead(ctx context.Context, leadID string) ([]types.GenerationRecord, error) {
	ctx, span := otel.Tracer("GenerationRepository").Start(ctx, "ListGenerationsByLead", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "generated_itineraries"),
		attribute.String("lead.id", leadID),
	))
	defer span.End()

	query := `
		SELECT id, lead_id, destination, source, days, travellers, itinerary, created_at
		FROM generated_itineraries
		WHERE lead_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query, leadID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query generated itineraries", slog.Any("error", err), slog.String("leadID", leadID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to query generated itineraries: %w", err)
	}
	defer rows.Close()

	records := []types.GenerationRecord{}
	for rows.Next() {
		var rec types.GenerationRecord
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Destination, &rec.Source, &rec.Days, &rec.Travellers, &raw, &rec.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan generated itinerary: %w", err)
		}
		body, err := decodeItineraryBody(raw)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Decode failed")
			return nil, err
		}
		rec.Itinerary = *body
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows iteration failed")
		return nil, fmt.Errorf("failed iterating generated itineraries: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(records)))
	span.SetStatus(codes.Ok, "Generations listed")
	return records, nil
}
