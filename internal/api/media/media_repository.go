package media

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

var _ Repository = (*PostgresMediaRepo)(nil)

type Repository interface {
	ListFolders(ctx context.Context) ([]types.MediaFolder, error)
	// ListAssets pages assets of a folder, newest first. A nil folderID lists
	// the root.
	ListAssets(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]types.MediaAsset, error)
	CountAssets(ctx context.Context, folderID *uuid.UUID) (int, error)
	CreateFolder(ctx context.Context, name string) (*types.MediaFolder, error)
	RenameFolder(ctx context.Context, id uuid.UUID, name string) (*types.MediaFolder, error)
	// DeleteFolder moves the folder's assets to the root before removing it.
	DeleteFolder(ctx context.Context, id uuid.UUID) error
}

type PostgresMediaRepo struct {
	logger *slog.Logger
	pgpool database.TxDB
}

func NewPostgresMediaRepo(pgpool database.TxDB, logger *slog.Logger) *PostgresMediaRepo {
	return &PostgresMediaRepo{logger: logger, pgpool: pgpool}
}

func mediaSpan(ctx context.Context, name, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", table))
	return otel.Tracer("MediaRepository").Start(ctx, name, trace.WithAttributes(attrs...))
}

func folderAttr(folderID *uuid.UUID) attribute.KeyValue {
	if folderID == nil {
		return attribute.String("media.folder_id", "root")
	}
	return attribute.String("media.folder_id", folderID.String())
}

func (r *PostgresMediaRepo) ListFolders(ctx context.Context) ([]types.MediaFolder, error) {
	ctx, span := mediaSpan(ctx, "ListFolders", "media_folders")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `SELECT id, name, created_at FROM media_folders ORDER BY name`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query media folders", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to query media folders: %w", err)
	}
	defer rows.Close()

	folders := []types.MediaFolder{}
	for rows.Next() {
		var f types.MediaFolder
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan media folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows iteration failed")
		return nil, fmt.Errorf("failed iterating media folders: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(folders)))
	span.SetStatus(codes.Ok, "Folders listed")
	return folders, nil
}

func (r *PostgresMediaRepo) ListAssets(ctx context.Context, folderID *uuid.UUID, limit, offset int) ([]types.MediaAsset, error) {
	ctx, span := mediaSpan(ctx, "ListAssets", "media_assets", folderAttr(folderID),
		attribute.Int("page.limit", limit), attribute.Int("page.offset", offset))
	defer span.End()

	query := `
		SELECT id, folder_id, file_name, file_path, public_url, file_size, created_at
		FROM media_assets
		WHERE folder_id IS NOT DISTINCT FROM $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pgpool.Query(ctx, query, folderID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query media assets", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to query media assets: %w", err)
	}
	defer rows.Close()

	assets := []types.MediaAsset{}
	for rows.Next() {
		var a types.MediaAsset
		if err := rows.Scan(&a.ID, &a.FolderID, &a.FileName, &a.FilePath, &a.PublicURL, &a.FileSize, &a.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan media asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows iteration failed")
		return nil, fmt.Errorf("failed iterating media assets: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(assets)))
	span.SetStatus(codes.Ok, "Assets listed")
	return assets, nil
}

func (r *PostgresMediaRepo) CountAssets(ctx context.Context, folderID *uuid.UUID) (int, error) {
	ctx, span := mediaSpan(ctx, "CountAssets", "media_assets", folderAttr(folderID))
	defer span.End()

	var total int64
	if err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM media_assets WHERE folder_id IS NOT DISTINCT FROM $1`, folderID,
	).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count media assets", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("failed to count media assets: %w", err)
	}

	span.SetStatus(codes.Ok, "Assets counted")
	return int(total), nil
}

func (r *PostgresMediaRepo) CreateFolder(ctx context.Context, name string) (*types.MediaFolder, error) {
	ctx, span := mediaSpan(ctx, "CreateFolder", "media_folders")
	defer span.End()

	folder := types.MediaFolder{Name: name}
	if err := r.pgpool.QueryRow(ctx,
		`INSERT INTO media_folders (name) VALUES ($1) RETURNING id, created_at`, name,
	).Scan(&folder.ID, &folder.CreatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert media folder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("failed to insert media folder: %w", err)
	}

	span.SetAttributes(attribute.String("media.folder_id", folder.ID.String()))
	span.SetStatus(codes.Ok, "Folder created")
	return &folder, nil
}

func (r *PostgresMediaRepo) RenameFolder(ctx context.Context, id uuid.UUID, name string) (*types.MediaFolder, error) {
	ctx, span := mediaSpan(ctx, "RenameFolder", "media_folders", attribute.String("media.folder_id", id.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`UPDATE media_folders SET name = $1 WHERE id = $2 RETURNING id, name, created_at`, name, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to rename media folder", slog.Any("error", err), slog.String("folderID", id.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("failed to rename media folder: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
			return nil, fmt.Errorf("failed to rename media folder: %w", err)
		}
		span.SetStatus(codes.Error, "Folder not found")
		return nil, fmt.Errorf("media folder %s: %w", id, api.ErrNotFound)
	}

	var folder types.MediaFolder
	if err := rows.Scan(&folder.ID, &folder.Name, &folder.CreatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Scan failed")
		return nil, fmt.Errorf("failed to scan media folder: %w", err)
	}

	span.SetStatus(codes.Ok, "Folder renamed")
	return &folder, nil
}

func (r *PostgresMediaRepo) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	ctx, span := mediaSpan(ctx, "DeleteFolder", "media_folders", attribute.String("media.folder_id", id.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeleteFolder"), slog.String("folderID", id.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	moved, err := tx.Exec(ctx, `UPDATE media_assets SET folder_id = NULL WHERE folder_id = $1`, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to move folder assets to root", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("failed to move folder assets: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM media_folders WHERE id = $1`, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete media folder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("failed to delete media folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Folder not found")
		return fmt.Errorf("media folder %s: %w", id, api.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit folder delete", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("failed to commit folder delete: %w", err)
	}

	l.DebugContext(ctx, "Media folder deleted", slog.Int64("assets_moved", moved.RowsAffected()))
	span.SetStatus(codes.Ok, "Folder deleted")
	return nil
}
