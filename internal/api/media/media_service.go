package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/api"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListMedia(ctx context.Context, q types.MediaListQuery) (*types.MediaListing, error)
	CreateFolder(ctx context.Context, name string) (*types.MediaFolder, error)
	RenameFolder(ctx context.Context, id uuid.UUID, name string) (*types.MediaFolder, error)
	DeleteFolder(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func folderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("folder name is required: %w", api.ErrInvalidRequest)
	}
	return name, nil
}

// ListMedia returns one page of assets in a folder. A zero limit means
// DefaultPageSize and larger limits are clamped to MaxPageSize.
func (s *ServiceImpl) ListMedia(ctx context.Context, q types.MediaListQuery) (*types.MediaListing, error) {
	ctx, span := otel.Tracer("MediaService").Start(ctx, "ListMedia", trace.WithAttributes(
		attribute.Int("page.limit", q.Limit),
		attribute.Int("page.offset", q.Offset),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ListMedia"))

	if q.Limit < 0 || q.Offset < 0 {
		err := fmt.Errorf("limit and offset must not be negative: %w", api.ErrInvalidRequest)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	q.Limit = min(q.Limit, MaxPageSize)

	listing := &types.MediaListing{Folders: []types.MediaFolder{}}
	if q.Offset == 0 {
		folders, err := s.repo.ListFolders(ctx)
		if err != nil {
			l.ErrorContext(ctx, "Failed to list media folders", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Repository error")
			return nil, err
		}
		listing.Folders = folders
	}

	assets, err := s.repo.ListAssets(ctx, q.FolderID, q.Limit, q.Offset)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list media assets", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}
	total, err := s.repo.CountAssets(ctx, q.FolderID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to count media assets", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}

	listing.Assets = assets
	listing.Total = total
	listing.HasMore = total > q.Offset+q.Limit

	span.SetAttributes(attribute.Int("results.total", total))
	span.SetStatus(codes.Ok, "Media listed")
	return listing, nil
}

func (s *ServiceImpl) CreateFolder(ctx context.Context, name string) (*types.MediaFolder, error) {
	ctx, span := otel.Tracer("MediaService").Start(ctx, "CreateFolder")
	defer span.End()

	name, err := folderName(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}

	folder, err := s.repo.CreateFolder(ctx, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create media folder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}

	s.logger.InfoContext(ctx, "Media folder created", slog.String("folderID", folder.ID.String()))
	span.SetStatus(codes.Ok, "Folder created")
	return folder, nil
}

func (s *ServiceImpl) RenameFolder(ctx context.Context, id uuid.UUID, name string) (*types.MediaFolder, error) {
	ctx, span := otel.Tracer("MediaService").Start(ctx, "RenameFolder", trace.WithAttributes(
		attribute.String("media.folder_id", id.String()),
	))
	defer span.End()

	name, err := folderName(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}

	folder, err := s.repo.RenameFolder(ctx, id, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to rename media folder", slog.Any("error", err), slog.String("folderID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Folder renamed")
	return folder, nil
}

func (s *ServiceImpl) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("MediaService").Start(ctx, "DeleteFolder", trace.WithAttributes(
		attribute.String("media.folder_id", id.String()),
	))
	defer span.End()

	if err := s.repo.DeleteFolder(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete media folder", slog.Any("error", err), slog.String("folderID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		return err
	}

	s.logger.InfoContext(ctx, "Media folder deleted", slog.String("folderID", id.String()))
	span.SetStatus(codes.Ok, "Folder deleted")
	return nil
}
