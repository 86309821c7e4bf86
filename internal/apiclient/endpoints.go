package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"rdm/internal/domain/models"
)

// Folder endpoints.

func (c *Client) CreateFolder(ctx context.Context, name string, parentID *string) (*models.Folder, error) {
	body := map[string]any{"name": name, "parentId": parentID}
	var folder models.Folder
	if err := c.doJSON(ctx, http.MethodPost, "/folders", body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]models.FolderMetadata, error) {
	var out struct {
		Folders []models.FolderMetadata `json:"folders"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/folders", nil, &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

func (c *Client) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	var folder models.Folder
	if err := c.doJSON(ctx, http.MethodGet, "/folders/"+url.PathEscape(id), nil, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	var folder models.Folder
	path := "/folders/" + url.PathEscape(id) + "/rename"
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]string{"name": name}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// MoveFolder reattaches a folder; a nil parent means the root.
func (c *Client) MoveFolder(ctx context.Context, id string, newParentID *string) (*models.Folder, error) {
	var folder models.Folder
	path := "/folders/" + url.PathEscape(id) + "/move"
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"newParentId": newParentID}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// Document endpoints.

func (c *Client) ListDocuments(ctx context.Context, folderID *string) ([]models.Document, error) {
	path := "/documents"
	if folderID != nil {
		path += "?folderId=" + url.QueryEscape(*folderID)
	}
	var out struct {
		Documents []models.Document `json:"documents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// UploadDocument uploads content as a multipart form. The content is
// buffered so the request can be replayed after a token refresh.
func (c *Client) UploadDocument(ctx context.Context, name string, folderID *string, content io.Reader) (*models.Document, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if folderID != nil {
		if err := form.WriteField("folderId", *folderID); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/documents/upload", buf.Bytes(), form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var doc models.Document
	if err := decodeJSONBody(resp.Body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DownloadDocument streams document content. The caller closes the reader.
func (c *Client) DownloadDocument(ctx context.Context, id string) (io.ReadCloser, error) {
	path := "/documents/" + url.PathEscape(id) + "/download"
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func (c *Client) RenameDocument(ctx context.Context, id, name string) (*models.Document, error) {
	var doc models.Document
	path := "/documents/" + url.PathEscape(id) + "/rename"
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]string{"name": name}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) MoveDocument(ctx context.Context, id string, newFolderID *string) (*models.Document, error) {
	var doc models.Document
	path := "/documents/" + url.PathEscape(id) + "/move"
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"newFolderId": newFolderID}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Trash endpoints.

func (c *Client) ListTrash(ctx context.Context) ([]models.TrashItem, error) {
	var out struct {
		Items []models.TrashItem `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/trash", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) TrashItem(ctx context.Context, itemType models.ItemType, id string) error {
	path := "/trash/" + url.PathEscape(string(itemType)) + "/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// BatchItem identifies one entry in a batch trash request.
type BatchItem struct {
	Type models.ItemType `json:"type"`
	ID   string          `json:"id"`
}

// TrashMany trashes several items in one request. Per-item outcomes come
// back even when some fail; the call errors only on transport-level trouble.
func (c *Client) TrashMany(ctx context.Context, items []BatchItem) ([]models.BatchResult, error) {
	var out struct {
		Results []models.BatchResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/trash", map[string]any{"items": items}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) RestoreItem(ctx context.Context, itemType models.ItemType, id string) error {
	path := "/trash/" + url.PathEscape(string(itemType)) + "/" + url.PathEscape(id) + "/restore"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) PurgeItem(ctx context.Context, itemType models.ItemType, id string) error {
	path := "/trash/" + url.PathEscape(string(itemType)) + "/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}
