package repositories

import (
	"context"

	"rdm/internal/domain/models"
)

// DocumentRepository defines data access operations for document metadata.
// Binary content is the blob store's concern, not this repository's.
type DocumentRepository interface {
	// Create inserts a new document record
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a live document by ID
	GetByID(ctx context.Context, id, orgID string) (*models.Document, error)

	// GetAnyByID retrieves a document regardless of trash state
	GetAnyByID(ctx context.Context, id, orgID string) (*models.Document, error)

	// GetByNameInFolder finds a live document by exact name in a folder,
	// nil when absent
	GetByNameInFolder(ctx context.Context, name string, folderID *string, orgID string) (*models.Document, error)

	// Update persists metadata changes (rename, move, re-upload version bump)
	Update(ctx context.Context, doc *models.Document) error

	// ListByFolder lists live documents in a folder (nil = root),
	// most recently updated first
	ListByFolder(ctx context.Context, folderID *string, orgID string) ([]models.Document, error)

	// ListByFolderIDs lists documents, trashed included, across a set of
	// folders; used when purging a folder subtree to release blobs
	ListByFolderIDs(ctx context.Context, folderIDs []string, orgID string) ([]models.Document, error)

	// Trash soft-deletes a document
	Trash(ctx context.Context, id, orgID, actor string) error

	// TrashByFolderIDs soft-deletes every live document in the given folders
	TrashByFolderIDs(ctx context.Context, folderIDs []string, orgID, actor string) error

	// Restore returns a trashed document to the live state in folderID
	Restore(ctx context.Context, id, orgID string, folderID *string) error

	// RestoreByFolderIDs restores every trashed document in the given folders
	RestoreByFolderIDs(ctx context.Context, folderIDs []string, orgID string) error

	// Purge permanently removes a trashed document record
	Purge(ctx context.Context, id, orgID string) error

	// ListTrashed lists trashed documents, most recently trashed first
	ListTrashed(ctx context.Context, orgID string) ([]models.TrashItem, error)
}
