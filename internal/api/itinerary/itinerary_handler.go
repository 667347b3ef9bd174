package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

const (
	missingFieldsMessage = "Missing required fields (leadId, destination, days)"
	tooManyDaysMessage   = "Requested days exceed the maximum allowed"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// GenerateItinerary answers 200 with a template or AI itinerary, 400 when a
// required field is missing or days is over the limit, and 500 with an empty itinerary when generation
// failed unexpectedly.
func (h *Handler) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GenerateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itinerary/generate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GenerateItinerary"))

	var req types.GenerateItineraryRequest
	if err := api.DecodeJSONBodyLenient(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.GenerateItinerary(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyDays):
			api.ErrorResponse(w, r, http.StatusBadRequest, tooManyDaysMessage)
			return
		case errors.Is(err, api.ErrInvalidRequest):
			api.ErrorResponse(w, r, http.StatusBadRequest, missingFieldsMessage)
			return
		}
		l.ErrorContext(ctx, "Itinerary generation returned an error", slog.Any("error", err))
		api.WriteJSONResponse(w, r, http.StatusInternalServerError, types.DegradedItineraryResponse{
			Itinerary: types.EmptyItinerary(),
		})
		return
	}

	if result.Degraded {
		l.ErrorContext(ctx, "Returning degraded itinerary", slog.Any("error", result.Err))
		api.WriteJSONResponse(w, r, http.StatusInternalServerError, types.DegradedItineraryResponse{
			Itinerary: result.Itinerary,
		})
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.GenerateItineraryResponse{
		Itinerary: result.Itinerary,
		Source:    result.Source,
	})
}

func (h *Handler) ListLeadItineraries(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListLeadItineraries", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/leads/{leadID}/itineraries"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ListLeadItineraries"))
	leadID := chi.URLParam(r, "leadID")

	records, err := h.service.ListLeadItineraries(ctx, leadID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list lead itineraries", slog.Any("error", err), slog.String("leadID", leadID))
		api.ErrorResponse(w, r, api.StatusForError(err), "Failed to list itineraries")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, records)
}
