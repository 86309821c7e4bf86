package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"rdm/internal/blobstore"
	"rdm/internal/domain"
	"rdm/internal/domain/models"
)

type docFixture struct {
	svc     *DocumentService
	folders *fakeFolderRepo
	docs    *fakeDocumentRepo
	blobs   *blobstore.MemoryStore
}

func newDocFixture() *docFixture {
	folders := newFakeFolderRepo()
	docs := newFakeDocumentRepo()
	blobs := blobstore.NewMemoryStore()
	svc := NewDocumentService(
		docs, folders, blobs, noopTxManager{},
		fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		&seqIDs{}, testLogger(),
	)
	return &docFixture{svc: svc, folders: folders, docs: docs, blobs: blobs}
}

func (f *docFixture) upload(t *testing.T, name, content string, folderID *string) *models.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), &UploadRequest{
		OrganizationID: testOrg,
		FolderID:       folderID,
		Name:           name,
		MimeType:       "text/plain",
		Size:           int64(len(content)),
		Content:        strings.NewReader(content),
	}, "alice@example.com")
	if err != nil {
		t.Fatalf("Upload(%q): %v", name, err)
	}
	return doc
}

func TestUploadNewDocument(t *testing.T) {
	f := newDocFixture()

	doc := f.upload(t, "report.pdf", "pdf bytes", nil)

	if doc.Version != 1 {
		t.Errorf("version = %d, want 1", doc.Version)
	}
	if doc.FileType != ".pdf" {
		t.Errorf("file type = %q, want %q", doc.FileType, ".pdf")
	}
	sum := sha256.Sum256([]byte("pdf bytes"))
	if doc.Checksum != hex.EncodeToString(sum[:]) {
		t.Errorf("checksum = %q, want sha256 of content", doc.Checksum)
	}
	if f.blobs.Len() != 1 {
		t.Errorf("blob count = %d, want 1", f.blobs.Len())
	}
}

func TestUploadSameNameBumpsVersion(t *testing.T) {
	f := newDocFixture()

	first := f.upload(t, "report.pdf", "v1", nil)
	second := f.upload(t, "report.pdf", "v2", nil)

	if second.ID != first.ID {
		t.Errorf("re-upload created a new record: %s vs %s", second.ID, first.ID)
	}
	if second.Version != 2 {
		t.Errorf("version = %d, want 2", second.Version)
	}
	// Old content is gone, only the new blob remains
	if f.blobs.Len() != 1 {
		t.Errorf("blob count = %d, want 1", f.blobs.Len())
	}

	_, rc, err := f.svc.Download(context.Background(), second.ID, testOrg)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "v2" {
		t.Errorf("content = %q, want %q", data, "v2")
	}
}

func TestUploadToMissingFolder(t *testing.T) {
	f := newDocFixture()

	missing := "no-such-folder"
	_, err := f.svc.Upload(context.Background(), &UploadRequest{
		OrganizationID: testOrg,
		FolderID:       &missing,
		Name:           "report.pdf",
		Size:           3,
		Content:        strings.NewReader("abc"),
	}, "alice@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDownloadMissingDocument(t *testing.T) {
	f := newDocFixture()

	_, _, err := f.svc.Download(context.Background(), "no-such-doc", testOrg)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRenameDocument(t *testing.T) {
	f := newDocFixture()
	ctx := context.Background()

	f.upload(t, "report.pdf", "a", nil)
	doc := f.upload(t, "notes.txt", "b", nil)

	t.Run("rename into a taken name gets a counter", func(t *testing.T) {
		renamed, err := f.svc.Rename(ctx, doc.ID, &models.RenameDocumentRequest{
			Name:           "report.pdf",
			OrganizationID: testOrg,
		})
		if err != nil {
			t.Fatalf("Rename: %v", err)
		}
		if renamed.Name != "report.pdf (1)" {
			t.Errorf("name = %q, want %q", renamed.Name, "report.pdf (1)")
		}
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		_, err := f.svc.Rename(ctx, doc.ID, &models.RenameDocumentRequest{
			Name:           "",
			OrganizationID: testOrg,
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestMoveDocument(t *testing.T) {
	f := newDocFixture()
	ctx := context.Background()

	folderSvc := NewFolderService(f.folders, noopTxManager{}, fixedClock{t: time.Now()}, testLogger())
	dest, err := folderSvc.CreateFolder(ctx, &models.CreateFolderRequest{
		Name:           "Archive",
		OrganizationID: testOrg,
	}, "alice@example.com")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	f.upload(t, "report.pdf", "already here", &dest.ID)
	doc := f.upload(t, "report.pdf", "incoming", nil)

	moved, err := f.svc.Move(ctx, doc.ID, &models.MoveDocumentRequest{
		NewFolderID:    &dest.ID,
		OrganizationID: testOrg,
	})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.FolderID == nil || *moved.FolderID != dest.ID {
		t.Errorf("folder = %v, want %s", moved.FolderID, dest.ID)
	}
	// The destination already holds report.pdf, so the mover gets a counter
	if moved.Name != "report.pdf (1)" {
		t.Errorf("name = %q, want %q", moved.Name, "report.pdf (1)")
	}
}

func TestMoveDocumentToMissingFolder(t *testing.T) {
	f := newDocFixture()

	doc := f.upload(t, "report.pdf", "a", nil)

	missing := "no-such-folder"
	_, err := f.svc.Move(context.Background(), doc.ID, &models.MoveDocumentRequest{
		NewFolderID:    &missing,
		OrganizationID: testOrg,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
