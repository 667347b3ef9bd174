package leads

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListLeads(ctx context.Context) ([]types.Lead, error)
	CreateLead(ctx context.Context, req types.CreateLeadRequest) (*types.Lead, error)
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status types.LeadStatus) error
	MarkLeadShared(ctx context.Context, id uuid.UUID, via types.ShareChannel) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
	GetActivityStats(ctx context.Context) (*types.ActivityStats, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	now    func() time.Time
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, now: time.Now}
}

func (s *ServiceImpl) ListLeads(ctx context.Context) ([]types.Lead, error) {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "ListLeads")
	defer span.End()

	leads, err := s.repo.ListLeads(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list leads", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Leads listed")
	return leads, nil
}

func (s *ServiceImpl) CreateLead(ctx context.Context, req types.CreateLeadRequest) (*types.Lead, error) {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "CreateLead", trace.WithAttributes(
		attribute.String("destination", req.Destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateLead"))

	name := strings.TrimSpace(req.TravellerName)
	if name == "" {
		err := fmt.Errorf("traveller_name is required: %w", api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}

	now := s.now().UTC()
	lead := types.Lead{
		CreatedBy:     req.CreatedBy,
		TravellerName: name,
		Phone:         strings.TrimSpace(req.Phone),
		FromLocation:  strings.TrimSpace(req.FromLocation),
		Destination:   strings.TrimSpace(req.Destination),
		StartDate:     now,
		EndDate:       now,
		Travellers:    1,
		Status:        types.LeadStatusPending,
	}
	if req.StartDate != nil {
		lead.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		lead.EndDate = *req.EndDate
	}
	if lead.EndDate.Before(lead.StartDate) {
		err := fmt.Errorf("endDate is before startDate: %w", api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}
	if req.PaxCount > 0 {
		lead.Travellers = req.PaxCount
	}

	created, err := s.repo.CreateLead(ctx, lead)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create lead", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}

	l.InfoContext(ctx, "Lead created", slog.String("leadID", created.ID.String()), slog.String("destination", created.Destination))
	span.SetStatus(codes.Ok, "Lead created")
	return created, nil
}

func (s *ServiceImpl) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status types.LeadStatus) error {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "UpdateLeadStatus", trace.WithAttributes(
		attribute.String("lead.id", id.String()),
		attribute.String("lead.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		err := fmt.Errorf("unknown lead status %q: %w", status, api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return err
	}

	if err := s.repo.UpdateLeadStatus(ctx, id, status); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update lead status", slog.Any("error", err), slog.String("leadID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return err
	}

	span.SetStatus(codes.Ok, "Lead status updated")
	return nil
}

// MarkLeadShared records that the itinerary went out to the traveller. The
// channel is validated and logged; only the lead status is persisted.
func (s *ServiceImpl) MarkLeadShared(ctx context.Context, id uuid.UUID, via types.ShareChannel) error {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "MarkLeadShared", trace.WithAttributes(
		attribute.String("lead.id", id.String()),
		attribute.String("share.channel", string(via)),
	))
	defer span.End()

	if !via.Valid() {
		err := fmt.Errorf("invalid share method %q: %w", via, api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return err
	}

	if err := s.repo.UpdateLeadStatus(ctx, id, types.LeadStatusShared); err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark lead as shared", slog.Any("error", err), slog.String("leadID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return err
	}

	s.logger.InfoContext(ctx, "Itinerary shared", slog.String("leadID", id.String()), slog.String("sharedVia", string(via)))
	span.SetStatus(codes.Ok, "Lead marked shared")
	return nil
}

func (s *ServiceImpl) DeleteLead(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "DeleteLead", trace.WithAttributes(
		attribute.String("lead.id", id.String()),
	))
	defer span.End()

	if err := s.repo.DeleteLead(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete lead", slog.Any("error", err), slog.String("leadID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return err
	}

	s.logger.InfoContext(ctx, "Lead deleted", slog.String("leadID", id.String()))
	span.SetStatus(codes.Ok, "Lead deleted")
	return nil
}

func (s *ServiceImpl) GetActivityStats(ctx context.Context) (*types.ActivityStats, error) {
	ctx, span := otel.Tracer("LeadService").Start(ctx, "GetActivityStats")
	defer span.End()

	stats, err := s.repo.GetActivityStats(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch activity stats", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Stats fetched")
	return stats, nil
}
