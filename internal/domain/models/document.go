package models

import (
	"time"
)

// Document is the metadata record for an uploaded file. The binary content
// lives in the blob store under BlobKey; this record never holds it.
type Document struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	FolderID       *string    `json:"folderId" db:"folder_id"` // nil = root level
	Name           string     `json:"name" db:"name"`
	FileType       string     `json:"fileType" db:"file_type"` // extension, e.g. ".pdf"
	MimeType       string     `json:"mimeType" db:"mime_type"`
	FileSize       int64      `json:"fileSize" db:"file_size"`
	Checksum       string     `json:"checksum,omitempty" db:"checksum"`
	Version        int        `json:"version" db:"version"`
	BlobKey        string     `json:"-" db:"blob_key"`
	CreatedBy      string     `json:"createdBy,omitempty" db:"created_by"`
	UpdatedBy      string     `json:"updatedBy,omitempty" db:"updated_by"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

type RenameDocumentRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
}

type MoveDocumentRequest struct {
	NewFolderID    *string `json:"newFolderId"`
	OrganizationID string  `json:"organizationId"`
}
