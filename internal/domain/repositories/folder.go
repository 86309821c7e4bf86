package repositories

import (
	"context"

	"rdm/internal/domain/models"
)

// FolderRepository defines data access operations for folders.
// All listing operations exclude trashed folders unless stated otherwise.
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a live folder by ID
	GetByID(ctx context.Context, id, orgID string) (*models.Folder, error)

	// GetAnyByID retrieves a folder regardless of trash state
	GetAnyByID(ctx context.Context, id, orgID string) (*models.Folder, error)

	// Update persists name/parent changes
	Update(ctx context.Context, folder *models.Folder) error

	// ListChildren lists live immediate child folders (nil parent = root)
	ListChildren(ctx context.Context, parentID *string, orgID string) ([]models.Folder, error)

	// ListMetadata lists all live folders with per-folder aggregates
	ListMetadata(ctx context.Context, orgID string) ([]models.FolderMetadata, error)

	// ListDescendantIDs returns the ids of the folder and its whole subtree,
	// including trashed descendants
	ListDescendantIDs(ctx context.Context, id, orgID string) ([]string, error)

	// Trash soft-deletes the folder subtree rooted at id
	Trash(ctx context.Context, id, orgID, actor string) error

	// Restore clears the trash state of the folder subtree rooted at id,
	// reattaching the root of the subtree to parentID
	Restore(ctx context.Context, id, orgID string, parentID *string) error

	// Purge permanently removes a trashed folder subtree
	Purge(ctx context.Context, id, orgID string) error

	// ListTrashed lists trashed folders, most recently trashed first
	ListTrashed(ctx context.Context, orgID string) ([]models.TrashItem, error)
}
