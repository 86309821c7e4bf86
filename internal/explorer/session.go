package explorer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"rdm/internal/apiclient"
	"rdm/internal/domain"
	"rdm/internal/domain/models"
	"rdm/internal/naming"
)

// API is the slice of the server client a session needs. *apiclient.Client
// satisfies it.
type API interface {
	ListFolders(ctx context.Context) ([]models.FolderMetadata, error)
	ListDocuments(ctx context.Context, folderID *string) ([]models.Document, error)
	CreateFolder(ctx context.Context, name string, parentID *string) (*models.Folder, error)
	RenameFolder(ctx context.Context, id, name string) (*models.Folder, error)
	MoveFolder(ctx context.Context, id string, newParentID *string) (*models.Folder, error)
	UploadDocument(ctx context.Context, name string, folderID *string, content io.Reader) (*models.Document, error)
	RenameDocument(ctx context.Context, id, name string) (*models.Document, error)
	MoveDocument(ctx context.Context, id string, newFolderID *string) (*models.Document, error)
	ListTrash(ctx context.Context) ([]models.TrashItem, error)
	TrashMany(ctx context.Context, items []apiclient.BatchItem) ([]models.BatchResult, error)
	RestoreItem(ctx context.Context, itemType models.ItemType, id string) error
	PurgeItem(ctx context.Context, itemType models.ItemType, id string) error
}

var _ API = (*apiclient.Client)(nil)

// Session is a stateful view over the server: the folder tree, the documents
// of the folder being browsed, and a navigation history. Every mutation
// reloads from the server afterwards, so the session never trusts its own
// bookkeeping over a fresh listing.
//
// A generation counter guards reloads: a response that started before a
// newer mutation finished is discarded instead of clobbering newer state.
type Session struct {
	api API

	mu       sync.Mutex
	gen      uint64
	folders  map[string]models.FolderMetadata
	children map[string][]string // parent key -> child folder ids
	docs     []models.Document   // documents of the current folder

	current *string  // nil = root
	history []string // folders to return to, most recent last; root is implicit
}

// NewSession creates a session rooted at the top level. Call Reload before
// reading any state.
func NewSession(api API) *Session {
	return &Session{
		api:      api,
		folders:  make(map[string]models.FolderMetadata),
		children: make(map[string][]string),
	}
}

const rootKey = ""

func parentKey(id *string) string {
	if id == nil {
		return rootKey
	}
	return *id
}

// Reload fetches the folder tree and the current folder's documents. Stale
// responses, ones raced past by a newer mutation, are dropped.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	current := s.current
	s.mu.Unlock()

	folders, err := s.api.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("load folders: %w", err)
	}
	docs, err := s.api.ListDocuments(ctx, current)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// A mutation landed while this load was in flight
		return nil
	}

	s.folders = make(map[string]models.FolderMetadata, len(folders))
	s.children = make(map[string][]string)
	for _, f := range folders {
		s.folders[f.ID] = f
		key := parentKey(f.ParentID)
		s.children[key] = append(s.children[key], f.ID)
	}
	for key := range s.children {
		ids := s.children[key]
		sort.Slice(ids, func(i, j int) bool {
			return strings.ToLower(s.folders[ids[i]].Name) < strings.ToLower(s.folders[ids[j]].Name)
		})
	}
	s.docs = docs
	return nil
}

// bump invalidates in-flight reloads. Callers hold the write path; any load
// that started before the mutation must not overwrite what comes after it.
func (s *Session) bump() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// CurrentFolder returns the folder being browsed, nil at the root.
func (s *Session) CurrentFolder() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Children lists the current folder's subfolders, name-ordered.
func (s *Session) Children() []models.FolderMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.childrenOfLocked(s.current)
}

// ChildrenOf lists the subfolders of any folder in the loaded tree.
func (s *Session) ChildrenOf(parentID *string) []models.FolderMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.childrenOfLocked(parentID)
}

func (s *Session) childrenOfLocked(parentID *string) []models.FolderMetadata {
	ids := s.children[parentKey(parentID)]
	out := make([]models.FolderMetadata, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.folders[id])
	}
	return out
}

// Documents lists the current folder's documents as of the last reload.
func (s *Session) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// MetadataFor returns the loaded metadata of one folder.
func (s *Session) MetadataFor(id string) (models.FolderMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.folders[id]
	return meta, ok
}

// Path returns the folder names from the root down to the current folder.
func (s *Session) Path() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	id := s.current
	for id != nil {
		meta, ok := s.folders[*id]
		if !ok {
			break
		}
		names = append([]string{meta.Name}, names...)
		id = meta.ParentID
	}
	return names
}

// EnterFolder descends into a loaded folder, pushing the current location
// onto the history. The root is the implicit base of every history, so it is
// never pushed.
func (s *Session) EnterFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.folders[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: folder %s is not in the loaded tree", domain.ErrNotFound, id)
	}
	if s.current != nil {
		s.history = append(s.history, *s.current)
	}
	s.current = &id
	s.gen++
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Back pops the history and returns to the previous folder; with the history
// exhausted it returns to the root. Already sitting at the root with nothing
// to pop reports false.
func (s *Session) Back(ctx context.Context) (bool, error) {
	s.mu.Lock()
	switch {
	case len(s.history) > 0:
		prev := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		s.current = &prev
	case s.current != nil:
		s.current = nil
	default:
		s.mu.Unlock()
		return false, nil
	}
	s.gen++
	s.mu.Unlock()

	return true, s.Reload(ctx)
}

// CreateFolder creates a subfolder of the current folder. The requested name
// is resolved against the loaded siblings first, so the session can predict
// the final name; the server resolves again on its own listing and wins.
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	s.mu.Lock()
	siblings := s.childrenOfLocked(s.current)
	names := make([]string, 0, len(siblings))
	for _, f := range siblings {
		names = append(names, f.Name)
	}
	current := s.current
	s.mu.Unlock()

	folder, err := s.api.CreateFolder(ctx, naming.Resolve(name, names), current)
	if err != nil {
		return nil, err
	}

	s.bump()
	return folder, s.Reload(ctx)
}

// RenameFolder renames a loaded folder. Renaming to the same or a blank name
// never leaves the session.
func (s *Session) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	s.mu.Lock()
	meta, ok := s.folders[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: folder %s is not in the loaded tree", domain.ErrNotFound, id)
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(name) == meta.Name {
		// No-op, nothing to send
		folder := &models.Folder{ID: meta.ID, ParentID: meta.ParentID, Name: meta.Name}
		return folder, nil
	}

	folder, err := s.api.RenameFolder(ctx, id, name)
	if err != nil {
		return nil, err
	}

	s.bump()
	return folder, s.Reload(ctx)
}

// MoveFolder reattaches a folder, nil meaning the root. A move into the
// folder's own subtree is rejected against the loaded tree before any
// request goes out; the server enforces the same rule on its own state.
func (s *Session) MoveFolder(ctx context.Context, id string, newParentID *string) (*models.Folder, error) {
	if err := s.checkNoCycle(id, newParentID); err != nil {
		return nil, err
	}

	folder, err := s.api.MoveFolder(ctx, id, newParentID)
	if err != nil {
		return nil, err
	}

	s.bump()
	return folder, s.Reload(ctx)
}

// checkNoCycle walks the loaded tree from the destination to the root and
// fails when the folder being moved sits on the path.
func (s *Session) checkNoCycle(id string, newParentID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor := newParentID
	for cursor != nil {
		if *cursor == id {
			return fmt.Errorf("%w: cannot move a folder into itself or its own subtree", domain.ErrValidation)
		}
		meta, ok := s.folders[*cursor]
		if !ok {
			break
		}
		cursor = meta.ParentID
	}
	return nil
}

// Upload sends a document into the current folder.
func (s *Session) Upload(ctx context.Context, name string, content io.Reader) (*models.Document, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	doc, err := s.api.UploadDocument(ctx, name, current, content)
	if err != nil {
		return nil, err
	}

	s.bump()
	return doc, s.Reload(ctx)
}

// RenameDocument renames a document in the current folder.
func (s *Session) RenameDocument(ctx context.Context, id, name string) (*models.Document, error) {
	doc, err := s.api.RenameDocument(ctx, id, name)
	if err != nil {
		return nil, err
	}

	s.bump()
	return doc, s.Reload(ctx)
}

// MoveDocument places a document into another folder, nil meaning the root.
func (s *Session) MoveDocument(ctx context.Context, id string, newFolderID *string) (*models.Document, error) {
	doc, err := s.api.MoveDocument(ctx, id, newFolderID)
	if err != nil {
		return nil, err
	}

	s.bump()
	return doc, s.Reload(ctx)
}

// Delete trashes a set of items in one batch. Partial failure is normal;
// per-item results come back and the tree reloads either way.
func (s *Session) Delete(ctx context.Context, items []apiclient.BatchItem) ([]models.BatchResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results, err := s.api.TrashMany(ctx, items)
	if err != nil {
		return nil, err
	}

	s.bump()
	if err := s.Reload(ctx); err != nil {
		return results, err
	}
	return results, nil
}

// Trash lists the trash contents.
func (s *Session) Trash(ctx context.Context) ([]models.TrashItem, error) {
	return s.api.ListTrash(ctx)
}

// Restore brings a trashed item back and reloads.
func (s *Session) Restore(ctx context.Context, itemType models.ItemType, id string) error {
	if err := s.api.RestoreItem(ctx, itemType, id); err != nil {
		return err
	}
	s.bump()
	return s.Reload(ctx)
}

// Purge permanently deletes a trashed item.
func (s *Session) Purge(ctx context.Context, itemType models.ItemType, id string) error {
	if err := s.api.PurgeItem(ctx, itemType, id); err != nil {
		return err
	}
	s.bump()
	return s.Reload(ctx)
}
