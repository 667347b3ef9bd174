package leads

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-travel-agent-crm/app/db"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

var _ Repository = (*PostgresLeadRepo)(nil)

type Repository interface {
	ListLeads(ctx context.Context) ([]types.Lead, error)
	CreateLead(ctx context.Context, lead types.Lead) (*types.Lead, error)
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status types.LeadStatus) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
	GetActivityStats(ctx context.Context) (*types.ActivityStats, error)
}

type PostgresLeadRepo struct {
	logger *slog.Logger
	pgpool database.DBTX
}

func NewPostgresLeadRepo(pgpool database.DBTX, logger *slog.Logger) *PostgresLeadRepo {
	return &PostgresLeadRepo{logger: logger, pgpool: pgpool}
}

func leadSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "leads"))
	return otel.Tracer("LeadRepository").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresLeadRepo) ListLeads(ctx context.Context) ([]types.Lead, error) {
	ctx, span := leadSpan(ctx, "ListLeads")
	defer span.End()

	query := `
		SELECT id, created_at, created_by, traveller_name, phone, from_location,
		       destination, start_date, end_date, travellers, status
		FROM leads
		ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query leads", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	leads := []types.Lead{}
	for rows.Next() {
		var l types.Lead
		var status *string
		if err := rows.Scan(
			&l.ID, &l.CreatedAt, &l.CreatedBy, &l.TravellerName, &l.Phone, &l.FromLocation,
			&l.Destination, &l.StartDate, &l.EndDate, &l.Travellers, &status,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		l.Status = types.LeadStatusPending
		if status != nil && *status != "" {
			l.Status = types.LeadStatus(*status)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows iteration failed")
		return nil, fmt.Errorf("failed iterating leads: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(leads)))
	span.SetStatus(codes.Ok, "Leads listed")
	return leads, nil
}

func (r *PostgresLeadRepo) CreateLead(ctx context.Context, lead types.Lead) (*types.Lead, error) {
	ctx, span := leadSpan(ctx, "CreateLead")
	defer span.End()

	query := `
		INSERT INTO leads (created_by, traveller_name, phone, from_location, destination,
		                   start_date, end_date, travellers, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	if err := r.pgpool.QueryRow(ctx, query,
		lead.CreatedBy, lead.TravellerName, lead.Phone, lead.FromLocation, lead.Destination,
		lead.StartDate, lead.EndDate, lead.Travellers, string(lead.Status),
	).Scan(&lead.ID, &lead.CreatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert lead", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("failed to insert lead: %w", err)
	}

	span.SetAttributes(attribute.String("lead.id", lead.ID.String()))
	span.SetStatus(codes.Ok, "Lead created")
	return &lead, nil
}

func (r *PostgresLeadRepo) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status types.LeadStatus) error {
	ctx, span := leadSpan(ctx, "UpdateLeadStatus", attribute.String("lead.id", id.String()), attribute.String("lead.status", string(status)))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `UPDATE leads SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update lead status", slog.Any("error", err), slog.String("leadID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Lead not found")
		return fmt.Errorf("lead %s: %w", id, api.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "Lead status updated")
	return nil
}

func (r *PostgresLeadRepo) DeleteLead(ctx context.Context, id uuid.UUID) error {
	ctx, span := leadSpan(ctx, "DeleteLead", attribute.String("lead.id", id.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete lead", slog.Any("error", err), slog.String("leadID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Lead not found")
		return fmt.Errorf("lead %s: %w", id, api.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "Lead deleted")
	return nil
}

// GetActivityStats counts leads by their current state; shares are not
// tracked separately.
func (r *PostgresLeadRepo) GetActivityStats(ctx context.Context) (*types.ActivityStats, error) {
	ctx, span := leadSpan(ctx, "GetActivityStats")
	defer span.End()

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'shared')
		FROM leads`

	var total, shared int64
	if err := r.pgpool.QueryRow(ctx, query).Scan(&total, &shared); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count leads", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	span.SetStatus(codes.Ok, "Stats computed")
	return &types.ActivityStats{LeadsGenerated: int(total), ItinerariesShared: int(shared)}, nil
}
