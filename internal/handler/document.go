package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"rdm/internal/domain/models"
	"rdm/internal/httputil"
	"rdm/internal/service"
)

// maxUploadSize caps multipart uploads at 100MB.
const maxUploadSize = 100 << 20

// DocumentHandler exposes document operations over HTTP.
type DocumentHandler struct {
	service *service.DocumentService
	logger  *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, logger: logger}
}

// RegisterRoutes registers document routes on the mux
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/upload", h.Upload)
	mux.HandleFunc("GET /documents", h.ListDocuments)
	mux.HandleFunc("GET /documents/{id}/download", h.Download)
	mux.HandleFunc("PATCH /documents/{id}/rename", h.RenameDocument)
	mux.HandleFunc("PATCH /documents/{id}/move", h.MoveDocument)
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	var folderID *string
	if v := r.FormValue("folderId"); v != "" {
		folderID = &v
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	doc, err := h.service.Upload(r.Context(), &service.UploadRequest{
		OrganizationID: orgID,
		FolderID:       folderID,
		Name:           header.Filename,
		MimeType:       mimeType,
		Size:           header.Size,
		Content:        file,
	}, httputil.Actor(r))
	if err != nil {
		handleError(w, h.logger, err, "upload document")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var folderID *string
	if v := r.URL.Query().Get("folderId"); v != "" {
		folderID = &v
	}

	docs, err := h.service.ListDocuments(r.Context(), folderID, orgID)
	if err != nil {
		handleError(w, h.logger, err, "list documents")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	doc, content, err := h.service.Download(r.Context(), r.PathValue("id"), orgID)
	if err != nil {
		handleError(w, h.logger, err, "download document")
		return
	}
	defer content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name})
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.FileSize))

	if _, err := io.Copy(w, content); err != nil {
		// Headers are already out; all we can do is log
		h.logger.Error("streaming document failed", "id", doc.ID, "error", err)
	}
}

func (h *DocumentHandler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Rename(r.Context(), r.PathValue("id"), &models.RenameDocumentRequest{
		Name:           body.Name,
		OrganizationID: orgID,
	})
	if err != nil {
		handleError(w, h.logger, err, "rename document")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) MoveDocument(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var body struct {
		NewFolderID httputil.OptionalString `json:"newFolderId"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !body.NewFolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "newFolderId is required; use null to move to the root")
		return
	}

	doc, err := h.service.Move(r.Context(), r.PathValue("id"), &models.MoveDocumentRequest{
		NewFolderID:    body.NewFolderID.Value,
		OrganizationID: orgID,
	})
	if err != nil {
		handleError(w, h.logger, err, "move document")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
