package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-travel-agent-crm/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	generativeAI "github.com/FACorreiaa/go-travel-agent-crm/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ErrTooManyDays is returned, alongside api.ErrInvalidRequest, when days
// exceeds Options.MaxDays.
var ErrTooManyDays = errors.New("too many days requested")

type Service interface {
	// GenerateItinerary only returns an error for invalid input. Every other
	// failure is folded into the result.
	GenerateItinerary(ctx context.Context, req types.GenerateItineraryRequest) (*GenerationResult, error)
	ListLeadItineraries(ctx context.Context, leadID string) ([]types.GenerationRecord, error)
}

type GenerationResult struct {
	Itinerary types.ItineraryBody
	Source    types.ItinerarySource
	// Degraded marks an empty body returned after an unexpected failure.
	Degraded bool
	Err      error
}

type Options struct {
	RealDayCap   int
	MaxDays      int
	AITimeout    time.Duration
	WriteTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		RealDayCap:   DefaultRealDayCap,
		MaxDays:      DefaultMaxDays,
		AITimeout:    30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

type ServiceImpl struct {
	logger      *slog.Logger
	templates   TemplateStore
	generations GenerationRepository
	generator   generativeAI.DayPlanGenerator
	metrics     *metrics.AppMetrics
	opts        Options
	flight      singleflight.Group
}

func NewServiceImpl(
	templates TemplateStore,
	generations GenerationRepository,
	generator generativeAI.DayPlanGenerator,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
	opts Options,
) *ServiceImpl {
	defaults := DefaultOptions()
	if opts.RealDayCap <= 0 {
		opts.RealDayCap = defaults.RealDayCap
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = defaults.MaxDays
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = defaults.AITimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if appMetrics == nil {
		// The noop meter never fails to create instruments.
		appMetrics, _ = metrics.New(noop.NewMeterProvider().Meter("itinerary"))
	}
	return &ServiceImpl{
		logger:      logger,
		templates:   templates,
		generations: generations,
		generator:   generator,
		metrics:     appMetrics,
		opts:        opts,
	}
}

func validateGenerateRequest(req types.GenerateItineraryRequest, maxDays int) error {
	var missing []string
	if req.LeadID == "" {
		missing = append(missing, "leadId")
	}
	if req.Destination == "" {
		missing = append(missing, "destination")
	}
	if req.Days == nil {
		missing = append(missing, "days")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields (%s): %w", strings.Join(missing, ", "), api.ErrInvalidRequest)
	}
	if *req.Days > maxDays {
		return fmt.Errorf("days %d exceeds maximum of %d: %w: %w", *req.Days, maxDays, ErrTooManyDays, api.ErrInvalidRequest)
	}
	return nil
}

func (s *ServiceImpl) GenerateItinerary(ctx context.Context, req types.GenerateItineraryRequest) (result *GenerationResult, err error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("lead.id", req.LeadID),
		attribute.String("destination", req.Destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GenerateItinerary"), slog.String("leadID", req.LeadID))

	if err := validateGenerateRequest(req, s.opts.MaxDays); err != nil {
		l.WarnContext(ctx, "Rejected itinerary request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			cause := fmt.Errorf("itinerary generation panicked: %v", rec)
			l.ErrorContext(ctx, "Itinerary generation failed, returning empty itinerary", slog.Any("error", cause))
			span.RecordError(cause)
			span.SetStatus(codes.Error, "Generation failed")
			result = &GenerationResult{
				Itinerary: types.EmptyItinerary(),
				Source:    types.ItinerarySourceAI,
				Degraded:  true,
				Err:       cause,
			}
			err = nil
		}
		s.metrics.ItineraryRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", string(result.Source)),
			attribute.Bool("degraded", result.Degraded),
		))
		s.metrics.GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	result = s.generate(ctx, l, req)

	span.SetAttributes(
		attribute.String("itinerary.source", string(result.Source)),
		attribute.Int("itinerary.days", len(result.Itinerary.Days)),
	)
	span.SetStatus(codes.Ok, "Itinerary generated")
	return result, nil
}

func (s *ServiceImpl) generate(ctx context.Context, l *slog.Logger, req types.GenerateItineraryRequest) *GenerationResult {
	days := *req.Days
	if days <= 0 {
		l.DebugContext(ctx, "Non-positive day count, returning empty itinerary", slog.Int("days", days))
		return &GenerationResult{Itinerary: types.EmptyItinerary(), Source: types.ItinerarySourceAI}
	}

	destination := strings.TrimSpace(req.Destination)
	key := NormalizeDestination(req.Destination)
	l = l.With(slog.String("destination", key), slog.Int("days", days))

	if body, ok := s.lookupTemplate(ctx, l, key, days); ok {
		return &GenerationResult{Itinerary: *body, Source: types.ItinerarySourceTemplate}
	}

	travellers := req.Travellers
	if travellers <= 0 {
		travellers = DefaultTravellers
	}
	source := req.Source
	if source == "" {
		source = DefaultSource
	}

	generated := s.generateRealDays(ctx, l, destination, key, min(days, s.opts.RealDayCap), travellers)
	body := buildItinerary(destination, days, generated)

	s.persist(ctx, l, types.GenerationRecord{
		LeadID:      req.LeadID,
		Destination: key,
		Source:      source,
		Days:        days,
		Travellers:  travellers,
		Itinerary:   body,
	})

	return &GenerationResult{Itinerary: body, Source: types.ItinerarySourceAI}
}

func (s *ServiceImpl) lookupTemplate(ctx context.Context, l *slog.Logger, key string, days int) (*types.ItineraryBody, bool) {
	start := time.Now()
	body, found, err := s.templates.GetTemplate(ctx, key, days)
	if err != nil {
		l.WarnContext(ctx, "Template lookup failed, treating as miss", slog.Any("error", err))
		s.metrics.DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "get_template")))
	}
	if err == nil && found && body != nil && len(body.Days) != days {
		l.WarnContext(ctx, "Stored template has wrong day count, treating as miss",
			slog.Int("stored_days", len(body.Days)),
		)
		found = false
	}
	if err != nil || !found || body == nil {
		s.metrics.TemplateMissesTotal.Add(ctx, 1)
		l.InfoContext(ctx, "Template cache miss", slog.Duration("latency", time.Since(start)))
		return nil, false
	}

	s.metrics.TemplateHitsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Template cache hit", slog.Duration("latency", time.Since(start)))
	return body, true
}

var errGeneratorPanic = errors.New("day plan generator panicked")

// generateRealDays never fails: errors and timeouts yield zero real days.
// Concurrent callers for the same key share one provider call; the result is
// read-only to them.
func (s *ServiceImpl) generateRealDays(ctx context.Context, l *slog.Logger, destination, key string, target, travellers int) []types.GeneratedDay {
	if target <= 0 || s.generator == nil {
		return nil
	}

	start := time.Now()
	flightKey := key + "|" + strconv.Itoa(target) + "|" + strconv.Itoa(travellers)
	v, err, shared := s.flight.Do(flightKey, func() (plans interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				plans, err = nil, fmt.Errorf("%w: %v", errGeneratorPanic, rec)
			}
		}()
		aiCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AITimeout)
		defer cancel()
		return s.generator.GenerateDayPlans(aiCtx, destination, target, travellers)
	})
	if err != nil {
		reason := "provider_error"
		switch {
		case errors.Is(err, errGeneratorPanic):
			reason = "panic"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		}
		s.metrics.AIFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		l.WarnContext(ctx, "Day plan generation failed, falling back to generic days",
			slog.Any("error", err),
			slog.Duration("latency", time.Since(start)),
		)
		return nil
	}

	generated, _ := v.([]types.GeneratedDay)
	if len(generated) > target {
		generated = generated[:target]
	}
	l.InfoContext(ctx, "Day plans generated",
		slog.Int("real_days", len(generated)),
		slog.Bool("shared_call", shared),
		slog.Duration("latency", time.Since(start)),
	)
	return generated
}

// persist writes the audit record and the template on a context detached from
// the caller so a disconnecting client does not abort them.
func (s *ServiceImpl) persist(ctx context.Context, l *slog.Logger, rec types.GenerationRecord) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.WriteTimeout)
	defer cancel()

	if s.generations != nil {
		if _, err := s.generations.SaveGeneration(writeCtx, rec); err != nil {
			s.metrics.DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "save_generation")))
			l.WarnContext(ctx, "Failed to save generation record", slog.Any("error", err))
		}
	}

	inserted, err := s.templates.PutTemplateIfAbsent(writeCtx, rec.Destination, rec.Days, rec.Itinerary)
	switch {
	case err != nil:
		s.metrics.DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "put_template")))
		l.WarnContext(ctx, "Failed to save itinerary template", slog.Any("error", err))
	case !inserted:
		l.DebugContext(ctx, "Itinerary template already stored, keeping existing one")
	default:
		l.DebugContext(ctx, "Itinerary template stored")
	}
}

func (s *ServiceImpl) ListLeadItineraries(ctx context.Context, leadID string) ([]types.GenerationRecord, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ListLeadItineraries", trace.WithAttributes(
		attribute.String("lead.id", leadID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ListLeadItineraries"), slog.String("leadID", leadID))

	if strings.TrimSpace(leadID) == "" {
		err := fmt.Errorf("leadId is required: %w", api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}

	records, err := s.generations.ListGenerationsByLead(ctx, leadID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list generated itineraries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, fmt.Errorf("failed to list generated itineraries: %w", err)
	}

	l.DebugContext(ctx, "Listed generated itineraries", slog.Int("count", len(records)))
	span.SetStatus(codes.Ok, "Generations listed")
	return records, nil
}
