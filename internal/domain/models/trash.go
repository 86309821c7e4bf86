package models

import (
	"fmt"
	"time"

	"rdm/internal/domain"
)

// ItemType is the closed set of entities the trash can hold.
type ItemType string

const (
	ItemTypeFolder   ItemType = "folder"
	ItemTypeDocument ItemType = "document"
)

// ParseItemType validates an item type from the wire.
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case ItemTypeFolder:
		return ItemTypeFolder, nil
	case ItemTypeDocument:
		return ItemTypeDocument, nil
	default:
		return "", fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, s)
	}
}

// TrashItem is a soft-deleted folder or document awaiting restore or purge.
// ParentID is the original location, needed to decide the restore target.
type TrashItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      ItemType  `json:"type"`
	ParentID  *string   `json:"parentId"`
	TrashedAt time.Time `json:"deletedAt"`
	TrashedBy string    `json:"deletedBy"`
}

// BatchResult reports the outcome of one item in a batch trash/restore/purge.
// Batch operations never abort on a single failure; each item settles on its
// own and callers inspect the per-item errors.
type BatchResult struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func (r BatchResult) OK() bool { return r.Error == "" }
