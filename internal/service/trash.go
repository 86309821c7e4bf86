package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"rdm/internal/blobstore"
	"rdm/internal/domain"
	"rdm/internal/domain/models"
	"rdm/internal/domain/repositories"
)

// TrashRequest identifies one item for a trash lifecycle transition.
type TrashRequest struct {
	Type models.ItemType
	ID   string
}

// TrashService owns the trash lifecycle: trash, restore and purge for
// folders and documents, batched trashing, and the trash listing. Folder
// transitions apply to the whole subtree; restore falls back to root when
// the original parent is no longer live.
type TrashService struct {
	folderRepo repositories.FolderRepository
	docRepo    repositories.DocumentRepository
	blobs      blobstore.BlobStore
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewTrashService creates a new trash service
func NewTrashService(
	folderRepo repositories.FolderRepository,
	docRepo repositories.DocumentRepository,
	blobs blobstore.BlobStore,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *TrashService {
	return &TrashService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		blobs:      blobs,
		txManager:  txManager,
		logger:     logger,
	}
}

// ListTrash returns every trashed folder and document for the organization,
// most recently trashed first.
func (s *TrashService) ListTrash(ctx context.Context, orgID string) ([]models.TrashItem, error) {
	folders, err := s.folderRepo.ListTrashed(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}

	docs, err := s.docRepo.ListTrashed(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list trashed documents: %w", err)
	}

	items := make([]models.TrashItem, 0, len(folders)+len(docs))
	items = append(items, folders...)
	items = append(items, docs...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].TrashedAt.After(items[j].TrashedAt)
	})

	return items, nil
}

// Trash soft-deletes one item. A folder takes its whole subtree, documents
// included, in a single transaction.
func (s *TrashService) Trash(ctx context.Context, itemType models.ItemType, id, orgID, actor string) error {
	switch itemType {
	case models.ItemTypeFolder:
		if err := s.trashFolder(ctx, id, orgID, actor); err != nil {
			return err
		}
	case models.ItemTypeDocument:
		if err := s.docRepo.Trash(ctx, id, orgID, actor); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, itemType)
	}

	s.logger.Info("item trashed", "type", itemType, "id", id, "actor", actor)
	return nil
}

func (s *TrashService) trashFolder(ctx context.Context, id, orgID, actor string) error {
	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		descendants, err := s.folderRepo.ListDescendantIDs(ctx, id, orgID)
		if err != nil {
			return err
		}

		if err := s.folderRepo.Trash(ctx, id, orgID, actor); err != nil {
			return err
		}

		return s.docRepo.TrashByFolderIDs(ctx, descendants, orgID, actor)
	})
}

// TrashMany trashes a set of items, each independently. One failure never
// blocks the rest; the caller gets a result per item.
func (s *TrashService) TrashMany(ctx context.Context, reqs []TrashRequest, orgID, actor string) []models.BatchResult {
	results := make([]models.BatchResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req TrashRequest) {
			defer wg.Done()
			results[i] = models.BatchResult{ID: req.ID}
			if err := s.Trash(ctx, req.Type, req.ID, orgID, actor); err != nil {
				results[i].Error = err.Error()
			}
		}(i, req)
	}
	wg.Wait()

	return results
}

// Restore returns a trashed item to the live state. When the original parent
// folder is itself gone or still trashed, the item lands at the root instead
// of staying stranded.
func (s *TrashService) Restore(ctx context.Context, itemType models.ItemType, id, orgID string) error {
	switch itemType {
	case models.ItemTypeFolder:
		if err := s.restoreFolder(ctx, id, orgID); err != nil {
			return err
		}
	case models.ItemTypeDocument:
		if err := s.restoreDocument(ctx, id, orgID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, itemType)
	}

	s.logger.Info("item restored", "type", itemType, "id", id)
	return nil
}

func (s *TrashService) restoreFolder(ctx context.Context, id, orgID string) error {
	folder, err := s.folderRepo.GetAnyByID(ctx, id, orgID)
	if err != nil {
		return err
	}
	if folder.DeletedAt == nil {
		return fmt.Errorf("%w: folder is not in the trash", domain.ErrConflict)
	}

	target := s.restoreTarget(ctx, folder.ParentID, orgID)

	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		descendants, err := s.folderRepo.ListDescendantIDs(ctx, id, orgID)
		if err != nil {
			return err
		}

		if err := s.folderRepo.Restore(ctx, id, orgID, target); err != nil {
			return err
		}

		return s.docRepo.RestoreByFolderIDs(ctx, descendants, orgID)
	})
}

func (s *TrashService) restoreDocument(ctx context.Context, id, orgID string) error {
	doc, err := s.docRepo.GetAnyByID(ctx, id, orgID)
	if err != nil {
		return err
	}
	if doc.DeletedAt == nil {
		return fmt.Errorf("%w: document is not in the trash", domain.ErrConflict)
	}

	target := s.restoreTarget(ctx, doc.FolderID, orgID)

	return s.docRepo.Restore(ctx, id, orgID, target)
}

// restoreTarget resolves where a restored item should land. The original
// parent wins if it is still live; otherwise root.
func (s *TrashService) restoreTarget(ctx context.Context, parentID *string, orgID string) *string {
	if parentID == nil {
		return nil
	}
	if _, err := s.folderRepo.GetByID(ctx, *parentID, orgID); err != nil {
		s.logger.Info("restore parent unavailable, falling back to root", "parent_id", *parentID)
		return nil
	}
	return parentID
}

// Purge permanently removes a trashed item. Folder purges take the subtree:
// every document's content is released from the blob store, then the
// metadata records go. Purge is irreversible.
func (s *TrashService) Purge(ctx context.Context, itemType models.ItemType, id, orgID string) error {
	switch itemType {
	case models.ItemTypeFolder:
		if err := s.purgeFolder(ctx, id, orgID); err != nil {
			return err
		}
	case models.ItemTypeDocument:
		if err := s.purgeDocument(ctx, id, orgID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, itemType)
	}

	s.logger.Info("item purged", "type", itemType, "id", id)
	return nil
}

func (s *TrashService) purgeFolder(ctx context.Context, id, orgID string) error {
	folder, err := s.folderRepo.GetAnyByID(ctx, id, orgID)
	if err != nil {
		return err
	}
	if folder.DeletedAt == nil {
		return fmt.Errorf("%w: folder is not in the trash", domain.ErrConflict)
	}

	descendants, err := s.folderRepo.ListDescendantIDs(ctx, id, orgID)
	if err != nil {
		return err
	}

	docs, err := s.docRepo.ListByFolderIDs(ctx, descendants, orgID)
	if err != nil {
		return err
	}

	// Blob deletes happen outside the transaction; a failed delete leaves an
	// orphaned blob, which is recoverable, unlike a dangling metadata row.
	for _, doc := range docs {
		if err := s.blobs.Delete(ctx, doc.BlobKey); err != nil {
			s.logger.Warn("failed to release document content", "id", doc.ID, "key", doc.BlobKey, "error", err)
		}
	}

	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for _, doc := range docs {
			if err := s.docRepo.Purge(ctx, doc.ID, orgID); err != nil {
				return err
			}
		}
		return s.folderRepo.Purge(ctx, id, orgID)
	})
}

func (s *TrashService) purgeDocument(ctx context.Context, id, orgID string) error {
	doc, err := s.docRepo.GetAnyByID(ctx, id, orgID)
	if err != nil {
		return err
	}
	if doc.DeletedAt == nil {
		return fmt.Errorf("%w: document is not in the trash", domain.ErrConflict)
	}

	if err := s.blobs.Delete(ctx, doc.BlobKey); err != nil {
		s.logger.Warn("failed to release document content", "id", doc.ID, "key", doc.BlobKey, "error", err)
	}

	return s.docRepo.Purge(ctx, id, orgID)
}
