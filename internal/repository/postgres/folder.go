package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rdm/internal/domain"
	"rdm/internal/domain/models"
	"rdm/internal/domain/repositories"
)

// FolderRepository implements repositories.FolderRepository on postgres.
type FolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &FolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const folderColumns = "id, organization_id, parent_id, name, created_at, updated_at, deleted_at"

func scanFolder(row interface{ Scan(...interface{}) error }) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.OrganizationID,
		&folder.ParentID,
		&folder.Name,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// Create inserts a new folder
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (organization_id, parent_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	err := executor(ctx, r.pool).QueryRow(ctx, query,
		folder.OrganizationID,
		folder.ParentID,
		folder.Name,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a live folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id, orgID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(executor(ctx, r.pool).QueryRow(ctx, query, id, orgID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// GetAnyByID retrieves a folder regardless of trash state
func (r *FolderRepository) GetAnyByID(ctx context.Context, id, orgID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2
	`, folderColumns, r.tables.Folders)

	folder, err := scanFolder(executor(ctx, r.pool).QueryRow(ctx, query, id, orgID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// Update persists name/parent changes
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, updated_at = $3
		WHERE id = $4 AND organization_id = $5 AND deleted_at IS NULL
	`, r.tables.Folders)

	result, err := executor(ctx, r.pool).Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.UpdatedAt,
		folder.ID,
		folder.OrganizationID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists live immediate child folders (nil parent = root)
func (r *FolderRepository) ListChildren(ctx context.Context, parentID *string, orgID string) ([]models.Folder, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND parent_id IS NULL AND deleted_at IS NULL
			ORDER BY name ASC
		`, folderColumns, r.tables.Folders)
		args = append(args, orgID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND parent_id = $2 AND deleted_at IS NULL
			ORDER BY name ASC
		`, folderColumns, r.tables.Folders)
		args = append(args, orgID, *parentID)
	}

	rows, err := executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// ListMetadata lists all live folders in an organization together with the
// aggregates the folder table renders: live document count and the actor of
// the most recent document change.
func (r *FolderRepository) ListMetadata(ctx context.Context, orgID string) ([]models.FolderMetadata, error) {
	query := fmt.Sprintf(`
		SELECT
			f.id,
			f.name,
			f.parent_id,
			(SELECT COUNT(*) FROM %s d
			 WHERE d.folder_id = f.id AND d.deleted_at IS NULL) AS file_count,
			f.updated_at,
			COALESCE(
				(SELECT d.updated_by FROM %s d
				 WHERE d.folder_id = f.id AND d.deleted_at IS NULL
				 ORDER BY d.updated_at DESC LIMIT 1),
				'') AS last_updated_by
		FROM %s f
		WHERE f.organization_id = $1 AND f.deleted_at IS NULL
		ORDER BY f.name ASC
	`, r.tables.Documents, r.tables.Documents, r.tables.Folders)

	rows, err := executor(ctx, r.pool).Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list folder metadata: %w", err)
	}
	defer rows.Close()

	var folders []models.FolderMetadata
	for rows.Next() {
		var meta models.FolderMetadata
		err := rows.Scan(
			&meta.ID,
			&meta.Name,
			&meta.ParentID,
			&meta.FileCount,
			&meta.UpdatedAt,
			&meta.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder metadata: %w", err)
		}
		folders = append(folders, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder metadata: %w", err)
	}

	return folders, nil
}

// ListDescendantIDs returns the folder's id plus every descendant id,
// trashed included, via a recursive CTE.
func (r *FolderRepository) ListDescendantIDs(ctx context.Context, id, orgID string) ([]string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE folder_tree AS (
			SELECT id FROM %s WHERE id = $1 AND organization_id = $2
			UNION ALL
			SELECT f.id FROM %s f
			INNER JOIN folder_tree ft ON f.parent_id = ft.id
		)
		SELECT id FROM folder_tree
	`, r.tables.Folders, r.tables.Folders)

	rows, err := executor(ctx, r.pool).Query(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("list descendant folders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var fid string
		if err := rows.Scan(&fid); err != nil {
			return nil, fmt.Errorf("scan folder id: %w", err)
		}
		ids = append(ids, fid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder ids: %w", err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return ids, nil
}

// Trash soft-deletes the folder subtree rooted at id
func (r *FolderRepository) Trash(ctx context.Context, id, orgID, actor string) error {
	query := fmt.Sprintf(`
		WITH RECURSIVE folder_tree AS (
			SELECT id FROM %s WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
			UNION ALL
			SELECT f.id FROM %s f
			INNER JOIN folder_tree ft ON f.parent_id = ft.id
		)
		UPDATE %s
		SET deleted_at = $3, deleted_by = $4
		WHERE id IN (SELECT id FROM folder_tree)
	`, r.tables.Folders, r.tables.Folders, r.tables.Folders)

	result, err := executor(ctx, r.pool).Exec(ctx, query, id, orgID, time.Now(), actor)
	if err != nil {
		return fmt.Errorf("trash folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Restore clears the trash state of the subtree rooted at id and reattaches
// the subtree root to parentID (nil = root).
func (r *FolderRepository) Restore(ctx context.Context, id, orgID string, parentID *string) error {
	query := fmt.Sprintf(`
		WITH RECURSIVE folder_tree AS (
			SELECT id FROM %s WHERE id = $1 AND organization_id = $2 AND deleted_at IS NOT NULL
			UNION ALL
			SELECT f.id FROM %s f
			INNER JOIN folder_tree ft ON f.parent_id = ft.id
		)
		UPDATE %s
		SET deleted_at = NULL, deleted_by = NULL
		WHERE id IN (SELECT id FROM folder_tree)
	`, r.tables.Folders, r.tables.Folders, r.tables.Folders)

	result, err := executor(ctx, r.pool).Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("restore folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	reattach := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, updated_at = $2
		WHERE id = $3 AND organization_id = $4
	`, r.tables.Folders)

	if _, err := executor(ctx, r.pool).Exec(ctx, reattach, parentID, time.Now(), id, orgID); err != nil {
		return fmt.Errorf("reattach restored folder: %w", err)
	}

	return nil
}

// Purge permanently removes a trashed folder subtree
func (r *FolderRepository) Purge(ctx context.Context, id, orgID string) error {
	query := fmt.Sprintf(`
		WITH RECURSIVE folder_tree AS (
			SELECT id FROM %s WHERE id = $1 AND organization_id = $2 AND deleted_at IS NOT NULL
			UNION ALL
			SELECT f.id FROM %s f
			INNER JOIN folder_tree ft ON f.parent_id = ft.id
		)
		DELETE FROM %s
		WHERE id IN (SELECT id FROM folder_tree)
	`, r.tables.Folders, r.tables.Folders, r.tables.Folders)

	result, err := executor(ctx, r.pool).Exec(ctx, query, id, orgID)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder still has documents: %w", domain.ErrConflict)
		}
		return fmt.Errorf("purge folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListTrashed lists trashed folders, most recently trashed first
func (r *FolderRepository) ListTrashed(ctx context.Context, orgID string) ([]models.TrashItem, error) {
	query := fmt.Sprintf(`
		SELECT id, name, parent_id, deleted_at, COALESCE(deleted_by, '')
		FROM %s
		WHERE organization_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, r.tables.Folders)

	rows, err := executor(ctx, r.pool).Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}
	defer rows.Close()

	var items []models.TrashItem
	for rows.Next() {
		item := models.TrashItem{Type: models.ItemTypeFolder}
		if err := rows.Scan(&item.ID, &item.Name, &item.ParentID, &item.TrashedAt, &item.TrashedBy); err != nil {
			return nil, fmt.Errorf("scan trash item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trash items: %w", err)
	}

	return items, nil
}
