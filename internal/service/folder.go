package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rdm/internal/domain"
	"rdm/internal/domain/models"
	"rdm/internal/domain/repositories"
	"rdm/internal/naming"
)

const maxFolderNameLength = 255

var folderNamePattern = regexp.MustCompile(`^[^/]*$`)

// FolderService owns folder placement: create with sibling-name resolution,
// rename with no-op semantics, move with the ancestry cycle guard, and the
// metadata listing the folder table renders.
type FolderService struct {
	folderRepo repositories.FolderRepository
	txManager  repositories.TransactionManager
	clock      Clock
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	txManager repositories.TransactionManager,
	clock Clock,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		txManager:  txManager,
		clock:      clock,
		logger:     logger,
	}
}

// CreateFolder creates a folder under parentID, resolving the requested name
// against live siblings so the sibling-uniqueness invariant holds. The
// sibling snapshot and the insert run in one transaction, so two concurrent
// creates with the same suggestion serialize into "name" and "name (1)"
// instead of colliding.
func (s *FolderService) CreateFolder(ctx context.Context, req *models.CreateFolderRequest, actor string) (*models.Folder, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID, req.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		req.ParentID = &parent.ID
	}

	var folder *models.Folder
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		siblings, err := s.folderRepo.ListChildren(ctx, req.ParentID, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("list siblings: %w", err)
		}

		now := s.clock.Now()
		folder = &models.Folder{
			OrganizationID: req.OrganizationID,
			ParentID:       req.ParentID,
			Name:           naming.Resolve(req.Name, folderNames(siblings)),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"organization_id", req.OrganizationID,
		"parent_id", folder.ParentID,
		"actor", actor,
	)

	return folder, nil
}

// GetFolder retrieves a live folder
func (s *FolderService) GetFolder(ctx context.Context, id, orgID string) (*models.Folder, error) {
	return s.folderRepo.GetByID(ctx, id, orgID)
}

// ListFolders lists all live folders with listing aggregates.
func (s *FolderService) ListFolders(ctx context.Context, orgID string) ([]models.FolderMetadata, error) {
	return s.folderRepo.ListMetadata(ctx, orgID)
}

// RenameFolder renames a folder. An empty trimmed name, or a name equal to
// the current one, is a no-op that never reaches the repository; otherwise
// the name is resolved against siblings excluding the folder itself.
func (s *FolderService) RenameFolder(ctx context.Context, id string, req *models.RenameFolderRequest) (*models.Folder, error) {
	if err := s.validateRenameRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: folder name cannot be blank", domain.ErrValidation)
	}

	folder, err := s.folderRepo.GetByID(ctx, id, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		siblings, err := s.folderRepo.ListChildren(ctx, folder.ParentID, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("list siblings: %w", err)
		}

		resolved, changed := naming.ResolveRename(folder.Name, req.Name, siblingNamesExcluding(siblings, folder.ID))
		if !changed {
			return nil
		}

		folder.Name = resolved
		folder.UpdatedAt = s.clock.Now()
		return s.folderRepo.Update(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed", "id", folder.ID, "name", folder.Name)

	return folder, nil
}

// MoveFolder reattaches a folder to newParentID (nil = root). A move that
// would make the folder its own ancestor is rejected before anything is
// persisted.
func (s *FolderService) MoveFolder(ctx context.Context, id string, req *models.MoveFolderRequest) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	if req.NewParentID != nil && *req.NewParentID == "" {
		req.NewParentID = nil
	}

	if req.NewParentID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.NewParentID, req.OrganizationID); err != nil {
			return nil, fmt.Errorf("destination folder: %w", err)
		}
		if err := s.checkNoCycle(ctx, id, *req.NewParentID, req.OrganizationID); err != nil {
			return nil, err
		}
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		siblings, err := s.folderRepo.ListChildren(ctx, req.NewParentID, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("list destination siblings: %w", err)
		}
		for _, sibling := range siblings {
			if sibling.ID != folder.ID && strings.EqualFold(sibling.Name, folder.Name) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
					ResourceType: "folder",
					ResourceID:   sibling.ID,
				}
			}
		}

		folder.ParentID = req.NewParentID
		folder.UpdatedAt = s.clock.Now()
		return s.folderRepo.Update(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder moved", "id", folder.ID, "new_parent_id", folder.ParentID)

	return folder, nil
}

// checkNoCycle walks from newParentID up to the root and fails when the
// folder being moved appears on the path. Guarantees the parent relation
// stays acyclic.
func (s *FolderService) checkNoCycle(ctx context.Context, folderID, newParentID, orgID string) error {
	currentID := newParentID
	for {
		if currentID == folderID {
			return fmt.Errorf("%w: cannot move a folder into itself or its own subtree", domain.ErrValidation)
		}

		current, err := s.folderRepo.GetByID(ctx, currentID, orgID)
		if err != nil {
			return fmt.Errorf("walk ancestry: %w", err)
		}
		if current.ParentID == nil {
			return nil
		}
		currentID = *current.ParentID
	}
}

func (s *FolderService) validateCreateRequest(req *models.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OrganizationID, validation.Required),
		validation.Field(&req.Name,
			validation.Length(0, maxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
	)
}

func (s *FolderService) validateRenameRequest(req *models.RenameFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OrganizationID, validation.Required),
		validation.Field(&req.Name,
			validation.Length(0, maxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
	)
}

func folderNames(folders []models.Folder) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		names = append(names, f.Name)
	}
	return names
}

func siblingNamesExcluding(folders []models.Folder, excludeID string) []string {
	names := make([]string, 0, len(folders))
	for _, f := range folders {
		if f.ID != excludeID {
			names = append(names, f.Name)
		}
	}
	return names
}
