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

// DocumentRepository implements repositories.DocumentRepository on postgres.
type DocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &DocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const documentColumns = `id, organization_id, folder_id, name, file_type, mime_type,
	file_size, checksum, version, blob_key, created_by, updated_by,
	created_at, updated_at, deleted_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.OrganizationID,
		&doc.FolderID,
		&doc.Name,
		&doc.FileType,
		&doc.MimeType,
		&doc.FileSize,
		&doc.Checksum,
		&doc.Version,
		&doc.BlobKey,
		&doc.CreatedBy,
		&doc.UpdatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create inserts a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (organization_id, folder_id, name, file_type, mime_type,
			file_size, checksum, version, blob_key, created_by, updated_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	err := executor(ctx, r.pool).QueryRow(ctx, query,
		doc.OrganizationID,
		doc.FolderID,
		doc.Name,
		doc.FileType,
		doc.MimeType,
		doc.FileSize,
		doc.Checksum,
		doc.Version,
		doc.BlobKey,
		doc.CreatedBy,
		doc.UpdatedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("containing folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a live document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(executor(ctx, r.pool).QueryRow(ctx, query, id, orgID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetAnyByID retrieves a document regardless of trash state
func (r *DocumentRepository) GetAnyByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2
	`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(executor(ctx, r.pool).QueryRow(ctx, query, id, orgID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetByNameInFolder finds a live document by exact name in a folder.
// Returns nil, nil when absent; absence is an answer here, not an error.
func (r *DocumentRepository) GetByNameInFolder(ctx context.Context, name string, folderID *string, orgID string) (*models.Document, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND name = $2 AND folder_id IS NULL AND deleted_at IS NULL
		`, documentColumns, r.tables.Documents)
		args = append(args, orgID, name)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND name = $2 AND folder_id = $3 AND deleted_at IS NULL
		`, documentColumns, r.tables.Documents)
		args = append(args, orgID, name, *folderID)
	}

	doc, err := scanDocument(executor(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by name: %w", err)
	}

	return doc, nil
}

// Update persists metadata changes
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, name = $2, file_size = $3, checksum = $4,
			version = $5, blob_key = $6, updated_by = $7, updated_at = $8
		WHERE id = $9 AND organization_id = $10 AND deleted_at IS NULL
	`, r.tables.Documents)

	result, err := executor(ctx, r.pool).Exec(ctx, query,
		doc.FolderID,
		doc.Name,
		doc.FileSize,
		doc.Checksum,
		doc.Version,
		doc.BlobKey,
		doc.UpdatedBy,
		doc.UpdatedAt,
		doc.ID,
		doc.OrganizationID,
	)

	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists live documents in a folder (nil = root)
func (r *DocumentRepository) ListByFolder(ctx context.Context, folderID *string, orgID string) ([]models.Document, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND folder_id IS NULL AND deleted_at IS NULL
			ORDER BY updated_at DESC
		`, documentColumns, r.tables.Documents)
		args = append(args, orgID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE organization_id = $1 AND folder_id = $2 AND deleted_at IS NULL
			ORDER BY updated_at DESC
		`, documentColumns, r.tables.Documents)
		args = append(args, orgID, *folderID)
	}

	rows, err := executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// ListByFolderIDs lists documents, trashed included, across a set of folders.
func (r *DocumentRepository) ListByFolderIDs(ctx context.Context, folderIDs []string, orgID string) ([]models.Document, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE organization_id = $1 AND folder_id = ANY($2)
	`, documentColumns, r.tables.Documents)

	rows, err := executor(ctx, r.pool).Query(ctx, query, orgID, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("list documents by folders: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// Trash soft-deletes a document
func (r *DocumentRepository) Trash(ctx context.Context, id, orgID, actor string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND organization_id = $4 AND deleted_at IS NULL
	`, r.tables.Documents)

	result, err := executor(ctx, r.pool).Exec(ctx, query, time.Now(), actor, id, orgID)
	if err != nil {
		return fmt.Errorf("trash document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// TrashByFolderIDs soft-deletes every live document in the given folders
func (r *DocumentRepository) TrashByFolderIDs(ctx context.Context, folderIDs []string, orgID, actor string) error {
	if len(folderIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1, deleted_by = $2
		WHERE organization_id = $3 AND folder_id = ANY($4) AND deleted_at IS NULL
	`, r.tables.Documents)

	if _, err := executor(ctx, r.pool).Exec(ctx, query, time.Now(), actor, orgID, folderIDs); err != nil {
		return fmt.Errorf("trash folder documents: %w", err)
	}

	return nil
}

// Restore returns a trashed document to the live state in folderID
func (r *DocumentRepository) Restore(ctx context.Context, id, orgID string, folderID *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NULL, deleted_by = NULL, folder_id = $1, updated_at = $2
		WHERE id = $3 AND organization_id = $4 AND deleted_at IS NOT NULL
	`, r.tables.Documents)

	result, err := executor(ctx, r.pool).Exec(ctx, query, folderID, time.Now(), id, orgID)
	if err != nil {
		return fmt.Errorf("restore document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// RestoreByFolderIDs restores every trashed document in the given folders
func (r *DocumentRepository) RestoreByFolderIDs(ctx context.Context, folderIDs []string, orgID string) error {
	if len(folderIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NULL, deleted_by = NULL
		WHERE organization_id = $1 AND folder_id = ANY($2) AND deleted_at IS NOT NULL
	`, r.tables.Documents)

	if _, err := executor(ctx, r.pool).Exec(ctx, query, orgID, folderIDs); err != nil {
		return fmt.Errorf("restore folder documents: %w", err)
	}

	return nil
}

// Purge permanently removes a trashed document record
func (r *DocumentRepository) Purge(ctx context.Context, id, orgID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NOT NULL
	`, r.tables.Documents)

	result, err := executor(ctx, r.pool).Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("purge document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListTrashed lists trashed documents, most recently trashed first
func (r *DocumentRepository) ListTrashed(ctx context.Context, orgID string) ([]models.TrashItem, error) {
	query := fmt.Sprintf(`
		SELECT id, name, folder_id, deleted_at, COALESCE(deleted_by, '')
		FROM %s
		WHERE organization_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, r.tables.Documents)

	rows, err := executor(ctx, r.pool).Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list trashed documents: %w", err)
	}
	defer rows.Close()

	var items []models.TrashItem
	for rows.Next() {
		item := models.TrashItem{Type: models.ItemTypeDocument}
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
