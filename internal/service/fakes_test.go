package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"rdm/internal/domain"
	"rdm/internal/domain/models"
)

// In-memory collaborators so service behavior is tested without postgres.

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type noopTxManager struct{}

func (noopTxManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	ids     seqIDs
	folders map[string]*models.Folder
	deleted map[string]string // id -> actor
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{
		folders: make(map[string]*models.Folder),
		deleted: make(map[string]string),
	}
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if folder.ID == "" {
		folder.ID = "folder-" + r.ids.New()
	}
	for _, f := range r.folders {
		if f.OrganizationID == folder.OrganizationID &&
			samePtr(f.ParentID, folder.ParentID) &&
			f.DeletedAt == nil &&
			strings.EqualFold(f.Name, folder.Name) {
			return &domain.ConflictError{
				Message:      "folder with this name already exists",
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id, orgID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.OrganizationID != orgID || f.DeletedAt != nil {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) GetAnyByID(_ context.Context, id, orgID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) Update(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[folder.ID]; !ok {
		return fmt.Errorf("%w: folder %s", domain.ErrNotFound, folder.ID)
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, parentID *string, orgID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.OrganizationID == orgID && f.DeletedAt == nil && samePtr(f.ParentID, parentID) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) ListMetadata(_ context.Context, orgID string) ([]models.FolderMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FolderMetadata
	for _, f := range r.folders {
		if f.OrganizationID == orgID && f.DeletedAt == nil {
			out = append(out, models.FolderMetadata{
				ID:        f.ID,
				Name:      f.Name,
				ParentID:  f.ParentID,
				UpdatedAt: f.UpdatedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) ListDescendantIDs(_ context.Context, id, orgID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.folders[id]; !ok || f.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	ids := []string{id}
	frontier := []string{id}
	for len(frontier) > 0 {
		var next []string
		for _, f := range r.folders {
			if f.ParentID == nil {
				continue
			}
			for _, p := range frontier {
				if *f.ParentID == p {
					ids = append(ids, f.ID)
					next = append(next, f.ID)
				}
			}
		}
		frontier = next
	}
	return ids, nil
}

func (r *fakeFolderRepo) Trash(ctx context.Context, id, orgID, actor string) error {
	ids, err := r.ListDescendantIDs(ctx, id, orgID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.folders[id].DeletedAt != nil {
		return fmt.Errorf("%w: folder %s", domain.ErrNotFound, id)
	}
	now := time.Now()
	for _, fid := range ids {
		f := r.folders[fid]
		if f.DeletedAt == nil {
			f.DeletedAt = &now
			r.deleted[fid] = actor
		}
	}
	return nil
}

func (r *fakeFolderRepo) Restore(ctx context.Context, id, orgID string, parentID *string) error {
	ids, err := r.ListDescendantIDs(ctx, id, orgID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fid := range ids {
		f := r.folders[fid]
		f.DeletedAt = nil
		delete(r.deleted, fid)
	}
	r.folders[id].ParentID = parentID
	return nil
}

func (r *fakeFolderRepo) Purge(ctx context.Context, id, orgID string) error {
	ids, err := r.ListDescendantIDs(ctx, id, orgID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.folders[id].DeletedAt == nil {
		return fmt.Errorf("%w: folder %s is not trashed", domain.ErrNotFound, id)
	}
	for _, fid := range ids {
		delete(r.folders, fid)
		delete(r.deleted, fid)
	}
	return nil
}

func (r *fakeFolderRepo) ListTrashed(_ context.Context, orgID string) ([]models.TrashItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TrashItem
	for _, f := range r.folders {
		if f.OrganizationID == orgID && f.DeletedAt != nil {
			out = append(out, models.TrashItem{
				ID:        f.ID,
				Name:      f.Name,
				Type:      models.ItemTypeFolder,
				ParentID:  f.ParentID,
				TrashedAt: *f.DeletedAt,
				TrashedBy: r.deleted[f.ID],
			})
		}
	}
	return out, nil
}

type fakeDocumentRepo struct {
	mu      sync.Mutex
	ids     seqIDs
	docs    map[string]*models.Document
	deleted map[string]string
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:    make(map[string]*models.Document),
		deleted: make(map[string]string),
	}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = "doc-" + r.ids.New()
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OrganizationID != orgID || d.DeletedAt != nil {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) GetAnyByID(_ context.Context, id, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) GetByNameInFolder(_ context.Context, name string, folderID *string, orgID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.DeletedAt == nil && samePtr(d.FolderID, folderID) && d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) ListByFolder(_ context.Context, folderID *string, orgID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.DeletedAt == nil && samePtr(d.FolderID, folderID) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDocumentRepo) ListByFolderIDs(_ context.Context, folderIDs []string, orgID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		set[id] = true
	}
	var out []models.Document
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.FolderID != nil && set[*d.FolderID] {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Trash(_ context.Context, id, orgID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OrganizationID != orgID || d.DeletedAt != nil {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	now := time.Now()
	d.DeletedAt = &now
	r.deleted[id] = actor
	return nil
}

func (r *fakeDocumentRepo) TrashByFolderIDs(_ context.Context, folderIDs []string, orgID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		set[id] = true
	}
	now := time.Now()
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.DeletedAt == nil && d.FolderID != nil && set[*d.FolderID] {
			d.DeletedAt = &now
			r.deleted[d.ID] = actor
		}
	}
	return nil
}

func (r *fakeDocumentRepo) Restore(_ context.Context, id, orgID string, folderID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OrganizationID != orgID {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	d.DeletedAt = nil
	d.FolderID = folderID
	delete(r.deleted, id)
	return nil
}

func (r *fakeDocumentRepo) RestoreByFolderIDs(_ context.Context, folderIDs []string, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		set[id] = true
	}
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.FolderID != nil && set[*d.FolderID] {
			d.DeletedAt = nil
			delete(r.deleted, d.ID)
		}
	}
	return nil
}

func (r *fakeDocumentRepo) Purge(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OrganizationID != orgID || d.DeletedAt == nil {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(r.docs, id)
	delete(r.deleted, id)
	return nil
}

func (r *fakeDocumentRepo) ListTrashed(_ context.Context, orgID string) ([]models.TrashItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TrashItem
	for _, d := range r.docs {
		if d.OrganizationID == orgID && d.DeletedAt != nil {
			out = append(out, models.TrashItem{
				ID:        d.ID,
				Name:      d.Name,
				Type:      models.ItemTypeDocument,
				ParentID:  d.FolderID,
				TrashedAt: *d.DeletedAt,
				TrashedBy: r.deleted[d.ID],
			})
		}
	}
	return out, nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
