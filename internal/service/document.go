package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rdm/internal/blobstore"
	"rdm/internal/domain"
	"rdm/internal/domain/models"
	"rdm/internal/domain/repositories"
	"rdm/internal/naming"
)

// UploadRequest carries one incoming file. Content is streamed to the blob
// store; this service never buffers the whole file.
type UploadRequest struct {
	OrganizationID string
	FolderID       *string
	Name           string
	MimeType       string
	Size           int64
	Content        io.Reader
}

// DocumentService owns document placement: upload with version semantics,
// download, rename and move. Binary content goes straight to the blob store;
// only metadata touches postgres.
type DocumentService struct {
	docRepo    repositories.DocumentRepository
	folderRepo repositories.FolderRepository
	blobs      blobstore.BlobStore
	txManager  repositories.TransactionManager
	clock      Clock
	ids        IDGenerator
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
	blobs blobstore.BlobStore,
	txManager repositories.TransactionManager,
	clock Clock,
	ids IDGenerator,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:    docRepo,
		folderRepo: folderRepo,
		blobs:      blobs,
		txManager:  txManager,
		clock:      clock,
		ids:        ids,
		logger:     logger,
	}
}

// ListDocuments lists live documents scoped to a folder (nil = root).
func (s *DocumentService) ListDocuments(ctx context.Context, folderID *string, orgID string) ([]models.Document, error) {
	if folderID != nil && *folderID == "" {
		folderID = nil
	}
	return s.docRepo.ListByFolder(ctx, folderID, orgID)
}

// Upload stores a document. Uploading a name that already exists live in the
// destination folder is a re-upload: the version counter increments and the
// content reference is replaced. Otherwise a fresh version-1 record is
// created.
func (s *DocumentService) Upload(ctx context.Context, req *UploadRequest, actor string) (*models.Document, error) {
	if err := s.validateUpload(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}
	if req.FolderID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.FolderID, req.OrganizationID); err != nil {
			return nil, fmt.Errorf("destination folder: %w", err)
		}
	}

	// Stream to the blob store, hashing as the bytes pass through
	now := s.clock.Now()
	blobKey := fmt.Sprintf("documents/%s/%s_%s", now.Format("2006/01/02"), s.ids.New(), req.Name)

	hasher := sha256.New()
	tee := io.TeeReader(req.Content, hasher)
	if err := s.blobs.Put(ctx, blobKey, tee, req.Size, req.MimeType); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))

	existing, err := s.docRepo.GetByNameInFolder(ctx, req.Name, req.FolderID, req.OrganizationID)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, blobKey); delErr != nil {
			s.logger.Warn("orphaned blob cleanup failed", "key", blobKey, "error", delErr)
		}
		return nil, err
	}

	if existing != nil {
		oldKey := existing.BlobKey
		existing.FileSize = req.Size
		existing.Checksum = checksum
		existing.Version++
		existing.BlobKey = blobKey
		existing.UpdatedBy = actor
		existing.UpdatedAt = now

		if err := s.docRepo.Update(ctx, existing); err != nil {
			// Metadata update failed; don't leave the new blob orphaned
			if delErr := s.blobs.Delete(ctx, blobKey); delErr != nil {
				s.logger.Warn("orphaned blob cleanup failed", "key", blobKey, "error", delErr)
			}
			return nil, err
		}

		if err := s.blobs.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("failed to release previous version content", "key", oldKey, "error", err)
		}

		s.logger.Info("document re-uploaded",
			"id", existing.ID,
			"name", existing.Name,
			"version", existing.Version,
			"actor", actor,
		)
		return existing, nil
	}

	doc := &models.Document{
		OrganizationID: req.OrganizationID,
		FolderID:       req.FolderID,
		Name:           req.Name,
		FileType:       filepath.Ext(req.Name),
		MimeType:       req.MimeType,
		FileSize:       req.Size,
		Checksum:       checksum,
		Version:        1,
		BlobKey:        blobKey,
		CreatedBy:      actor,
		UpdatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, blobKey); delErr != nil {
			s.logger.Warn("orphaned blob cleanup failed", "key", blobKey, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		"id", doc.ID,
		"name", doc.Name,
		"size", doc.FileSize,
		"folder_id", doc.FolderID,
		"actor", actor,
	)

	return doc, nil
}

// Download opens the document content for streaming to the client. The
// caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, id, orgID string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.docRepo.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open content: %w", err)
	}

	return doc, rc, nil
}

// Rename renames a document with the same no-op and collision semantics as
// folder rename.
func (s *DocumentService) Rename(ctx context.Context, id string, req *models.RenameDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.OrganizationID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: document name cannot be blank", domain.ErrValidation)
	}

	doc, err := s.docRepo.GetByID(ctx, id, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		siblings, err := s.docRepo.ListByFolder(ctx, doc.FolderID, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("list siblings: %w", err)
		}

		names := make([]string, 0, len(siblings))
		for _, sibling := range siblings {
			if sibling.ID != doc.ID {
				names = append(names, sibling.Name)
			}
		}

		resolved, changed := naming.ResolveRename(doc.Name, req.Name, names)
		if !changed {
			return nil
		}

		doc.Name = resolved
		doc.FileType = filepath.Ext(resolved)
		doc.UpdatedAt = s.clock.Now()
		return s.docRepo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document renamed", "id", doc.ID, "name", doc.Name)

	return doc, nil
}

// Move places a document into another folder (nil = root), resolving name
// collisions in the destination the same way create does.
func (s *DocumentService) Move(ctx context.Context, id string, req *models.MoveDocumentRequest) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	if req.NewFolderID != nil && *req.NewFolderID == "" {
		req.NewFolderID = nil
	}
	if req.NewFolderID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.NewFolderID, req.OrganizationID); err != nil {
			return nil, fmt.Errorf("destination folder: %w", err)
		}
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		siblings, err := s.docRepo.ListByFolder(ctx, req.NewFolderID, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("list destination siblings: %w", err)
		}

		names := make([]string, 0, len(siblings))
		for _, sibling := range siblings {
			if sibling.ID != doc.ID {
				names = append(names, sibling.Name)
			}
		}

		doc.FolderID = req.NewFolderID
		doc.Name = naming.Resolve(doc.Name, names)
		doc.UpdatedAt = s.clock.Now()
		return s.docRepo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document moved", "id", doc.ID, "folder_id", doc.FolderID)

	return doc, nil
}

func (s *DocumentService) validateUpload(req *UploadRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OrganizationID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(1, maxFolderNameLength)),
		validation.Field(&req.Content, validation.Required),
	)
}
