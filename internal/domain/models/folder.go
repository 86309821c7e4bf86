package models

import (
	"time"
)

// Folder is a node in the organization's folder forest.
// ParentID == nil means the folder lives at the root.
type Folder struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	ParentID       *string    `json:"parentId" db:"parent_id"`
	Name           string     `json:"name" db:"name"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// FolderMetadata is the listing projection: a folder plus the aggregates the
// folder table view renders (document count, last modifying actor).
type FolderMetadata struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ParentID      *string   `json:"parentId"`
	FileCount     int       `json:"fileCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

type CreateFolderRequest struct {
	Name           string  `json:"name"`
	ParentID       *string `json:"parentId,omitempty"`
	OrganizationID string  `json:"organizationId"`
}

type RenameFolderRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
}

type MoveFolderRequest struct {
	NewParentID    *string `json:"newParentId"`
	OrganizationID string  `json:"organizationId"`
}
