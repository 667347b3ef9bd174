package media

import (
	"log/slog"
	"net/http"
	"strconv"

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

func startSpan(r *http.Request, name, route string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("MediaHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
	return r.WithContext(ctx), span
}

func (h *Handler) folderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "folderID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid folder ID format")
		return uuid.Nil, false
	}
	return id, true
}

func parseListQuery(r *http.Request) (types.MediaListQuery, string) {
	var q types.MediaListQuery
	values := r.URL.Query()

	if raw := values.Get("folderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, "Invalid folder ID format"
		}
		q.FolderID = &id
	}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, "limit must be an integer"
		}
		q.Limit = n
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, "offset must be an integer"
		}
		q.Offset = n
	}
	return q, ""
}

// ListMedia serves GET /api/v1/media?folderId=&limit=&offset=. Without
// folderId the library root is listed.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "ListMedia", "/api/v1/media")
	defer span.End()

	q, msg := parseListQuery(r)
	if msg != "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	listing, err := h.service.ListMedia(r.Context(), q)
	if err != nil {
		status := api.StatusForError(err)
		if status == http.StatusInternalServerError {
			api.ErrorResponse(w, r, status, "Failed to fetch media")
			return
		}
		api.ErrorResponse(w, r, status, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, listing)
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "CreateFolder", "/api/v1/media/folders")
	defer span.End()

	var req types.MediaFolderRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create folder body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), req.Name)
	if err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, types.MediaFolderResponse{Folder: folder})
}

func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "RenameFolder", "/api/v1/media/folders/{folderID}")
	defer span.End()

	id, ok := h.folderID(w, r)
	if !ok {
		return
	}

	var req types.MediaFolderRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.service.RenameFolder(r.Context(), id, req.Name)
	if err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.MediaFolderResponse{Folder: folder})
}

func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "DeleteFolder", "/api/v1/media/folders/{folderID}")
	defer span.End()

	id, ok := h.folderID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteFolder(r.Context(), id); err != nil {
		api.ErrorResponse(w, r, api.StatusForError(err), err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]bool{"success": true})
}
