package leads

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type listLeadsResponse struct {
	Leads []types.Lead `json:"leads"`
}

func startSpan(r *http.Request, name, route string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("LeadHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
	return r.WithContext(ctx), span
}

func (h *Handler) leadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid lead ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "ListLeads", "/api/v1/leads")
	defer span.End()

	leads, err := h.service.ListLeads(r.Context())
	if err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, listLeadsResponse{Leads: leads})
}

func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "CreateLead", "/api/v1/leads")
	defer span.End()

	var req types.CreateLeadRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create lead body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := h.service.CreateLead(r.Context(), req)
	if err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, lead)
}

func (h *Handler) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "UpdateLeadStatus", "/api/v1/leads/{leadID}/status")
	defer span.End()

	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	var req types.UpdateLeadStatusRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateLeadStatus(r.Context(), id, req.Status); err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ShareLead(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "ShareLead", "/api/v1/leads/{leadID}/share")
	defer span.End()

	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	var req types.ShareLeadRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.MarkLeadShared(r.Context(), id, req.SharedVia); err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "DeleteLead", "/api/v1/leads/{leadID}")
	defer span.End()

	id, ok := h.leadID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteLead(r.Context(), id); err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *Handler) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "GetActivityStats", "/api/v1/activity-stats")
	defer span.End()

	stats, err := h.service.GetActivityStats(r.Context())
	if err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}
