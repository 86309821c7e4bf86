package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rdm/internal/blobstore"
	"rdm/internal/domain"
	"rdm/internal/domain/models"
)

type trashFixture struct {
	folders  *fakeFolderRepo
	docs     *fakeDocumentRepo
	blobs    *blobstore.MemoryStore
	trash    *TrashService
	folderSv *FolderService
	docSv    *DocumentService
}

func newTrashFixture() *trashFixture {
	folders := newFakeFolderRepo()
	docs := newFakeDocumentRepo()
	blobs := blobstore.NewMemoryStore()
	clock := fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	logger := testLogger()
	return &trashFixture{
		folders:  folders,
		docs:     docs,
		blobs:    blobs,
		trash:    NewTrashService(folders, docs, blobs, noopTxManager{}, logger),
		folderSv: NewFolderService(folders, noopTxManager{}, clock, logger),
		docSv:    NewDocumentService(docs, folders, blobs, noopTxManager{}, clock, &seqIDs{}, logger),
	}
}

func (f *trashFixture) folder(t *testing.T, name string, parentID *string) *models.Folder {
	t.Helper()
	return mustCreateFolder(t, f.folderSv, name, parentID)
}

func (f *trashFixture) doc(t *testing.T, name string, folderID *string) *models.Document {
	t.Helper()
	doc, err := f.docSv.Upload(context.Background(), &UploadRequest{
		OrganizationID: testOrg,
		FolderID:       folderID,
		Name:           name,
		Size:           4,
		Content:        strings.NewReader("data"),
	}, "alice@example.com")
	if err != nil {
		t.Fatalf("Upload(%q): %v", name, err)
	}
	return doc
}

func TestTrashFolderTakesSubtree(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	root := f.folder(t, "Projects", nil)
	child := f.folder(t, "Data", &root.ID)
	doc := f.doc(t, "report.pdf", &child.ID)

	if err := f.trash.Trash(ctx, models.ItemTypeFolder, root.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash: %v", err)
	}

	// Nothing in the subtree is reachable anymore
	if _, err := f.folderSv.GetFolder(ctx, child.ID, testOrg); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("child folder still live: %v", err)
	}
	if _, _, err := f.docSv.Download(ctx, doc.ID, testOrg); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("document still live: %v", err)
	}

	items, err := f.trash.ListTrash(ctx, testOrg)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("trash holds %d items, want 3", len(items))
	}
}

func TestRestoreFolderRoundTrip(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	root := f.folder(t, "Projects", nil)
	child := f.folder(t, "Data", &root.ID)
	doc := f.doc(t, "report.pdf", &child.ID)

	if err := f.trash.Trash(ctx, models.ItemTypeFolder, child.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if err := f.trash.Restore(ctx, models.ItemTypeFolder, child.ID, testOrg); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := f.folderSv.GetFolder(ctx, child.ID, testOrg)
	if err != nil {
		t.Fatalf("GetFolder after restore: %v", err)
	}
	if restored.ParentID == nil || *restored.ParentID != root.ID {
		t.Errorf("restored parent = %v, want original %s", restored.ParentID, root.ID)
	}
	if _, _, err := f.docSv.Download(ctx, doc.ID, testOrg); err != nil {
		t.Errorf("document not restored with its folder: %v", err)
	}
}

func TestRestoreFallsBackToRoot(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	parent := f.folder(t, "Projects", nil)
	child := f.folder(t, "Data", &parent.ID)

	if err := f.trash.Trash(ctx, models.ItemTypeFolder, child.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash child: %v", err)
	}
	// The original parent disappears while the child sits in the trash
	if err := f.trash.Trash(ctx, models.ItemTypeFolder, parent.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash parent: %v", err)
	}
	if err := f.trash.Purge(ctx, models.ItemTypeFolder, parent.ID, testOrg); err != nil {
		t.Fatalf("Purge parent: %v", err)
	}

	if err := f.trash.Restore(ctx, models.ItemTypeFolder, child.ID, testOrg); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := f.folderSv.GetFolder(ctx, child.ID, testOrg)
	if err != nil {
		t.Fatalf("GetFolder after restore: %v", err)
	}
	if restored.ParentID != nil {
		t.Errorf("restored parent = %v, want root", *restored.ParentID)
	}
}

func TestRestoreDocumentFallsBackToRoot(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	folder := f.folder(t, "Projects", nil)
	doc := f.doc(t, "report.pdf", &folder.ID)

	if err := f.trash.Trash(ctx, models.ItemTypeDocument, doc.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash document: %v", err)
	}
	if err := f.trash.Trash(ctx, models.ItemTypeFolder, folder.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash folder: %v", err)
	}

	if err := f.trash.Restore(ctx, models.ItemTypeDocument, doc.ID, testOrg); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := f.docSv.ListDocuments(ctx, nil, testOrg)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(restored) != 1 || restored[0].ID != doc.ID {
		t.Fatalf("document not restored at root: %+v", restored)
	}
}

func TestRestoreLiveItemIsConflict(t *testing.T) {
	f := newTrashFixture()

	folder := f.folder(t, "Projects", nil)

	err := f.trash.Restore(context.Background(), models.ItemTypeFolder, folder.ID, testOrg)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestPurgeFolderReleasesBlobs(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	root := f.folder(t, "Projects", nil)
	child := f.folder(t, "Data", &root.ID)
	f.doc(t, "a.pdf", &root.ID)
	f.doc(t, "b.pdf", &child.ID)

	if err := f.trash.Trash(ctx, models.ItemTypeFolder, root.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if err := f.trash.Purge(ctx, models.ItemTypeFolder, root.ID, testOrg); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if f.blobs.Len() != 0 {
		t.Errorf("blob count after purge = %d, want 0", f.blobs.Len())
	}
	items, err := f.trash.ListTrash(ctx, testOrg)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("trash still holds %d items after purge", len(items))
	}
	// Purge is permanent: restore has nothing to act on
	if err := f.trash.Restore(ctx, models.ItemTypeFolder, root.ID, testOrg); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("restore after purge = %v, want ErrNotFound", err)
	}
}

func TestPurgeLiveItemIsConflict(t *testing.T) {
	f := newTrashFixture()

	folder := f.folder(t, "Projects", nil)

	err := f.trash.Purge(context.Background(), models.ItemTypeFolder, folder.ID, testOrg)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestTrashManyPartialFailure(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	a := f.folder(t, "A", nil)
	b := f.doc(t, "b.pdf", nil)

	results := f.trash.TrashMany(ctx, []TrashRequest{
		{Type: models.ItemTypeFolder, ID: a.ID},
		{Type: models.ItemTypeFolder, ID: "no-such-folder"},
		{Type: models.ItemTypeDocument, ID: b.ID},
	}, testOrg, "alice@example.com")

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].OK() || !results[2].OK() {
		t.Errorf("valid items failed: %+v", results)
	}
	if results[1].OK() {
		t.Error("missing folder reported success")
	}

	// The failure did not block the others
	items, err := f.trash.ListTrash(ctx, testOrg)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("trash holds %d items, want 2", len(items))
	}
}

func TestListTrashOrdersNewestFirst(t *testing.T) {
	f := newTrashFixture()
	ctx := context.Background()

	first := f.folder(t, "First", nil)
	second := f.folder(t, "Second", nil)

	if err := f.trash.Trash(ctx, models.ItemTypeFolder, first.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := f.trash.Trash(ctx, models.ItemTypeFolder, second.ID, testOrg, "alice@example.com"); err != nil {
		t.Fatalf("Trash: %v", err)
	}

	items, err := f.trash.ListTrash(ctx, testOrg)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != second.ID {
		t.Errorf("first listed = %s, want most recently trashed %s", items[0].ID, second.ID)
	}
}
