package handler

import (
	"log/slog"
	"net/http"

	"rdm/internal/domain/models"
	"rdm/internal/httputil"
	"rdm/internal/service"
)

// FolderHandler exposes folder operations over HTTP.
type FolderHandler struct {
	service *service.FolderService
	logger  *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(service *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{service: service, logger: logger}
}

// RegisterRoutes registers folder routes on the mux
func (h *FolderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /folders", h.CreateFolder)
	mux.HandleFunc("GET /folders", h.ListFolders)
	mux.HandleFunc("GET /folders/{id}", h.GetFolder)
	mux.HandleFunc("PATCH /folders/{id}/rename", h.RenameFolder)
	mux.HandleFunc("PATCH /folders/{id}/move", h.MoveFolder)
}

func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var body struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parentId"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), &models.CreateFolderRequest{
		Name:           body.Name,
		ParentID:       body.ParentID,
		OrganizationID: orgID,
	}, httputil.Actor(r))
	if err != nil {
		handleError(w, h.logger, err, "create folder")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	folders, err := h.service.ListFolders(r.Context(), orgID)
	if err != nil {
		handleError(w, h.logger, err, "list folders")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	folder, err := h.service.GetFolder(r.Context(), r.PathValue("id"), orgID)
	if err != nil {
		handleError(w, h.logger, err, "get folder")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
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

	folder, err := h.service.RenameFolder(r.Context(), r.PathValue("id"), &models.RenameFolderRequest{
		Name:           body.Name,
		OrganizationID: orgID,
	})
	if err != nil {
		handleError(w, h.logger, err, "rename folder")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	// newParentId must be present; explicit null means the root
	var body struct {
		NewParentID httputil.OptionalString `json:"newParentId"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !body.NewParentID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "newParentId is required; use null to move to the root")
		return
	}

	folder, err := h.service.MoveFolder(r.Context(), r.PathValue("id"), &models.MoveFolderRequest{
		NewParentID:    body.NewParentID.Value,
		OrganizationID: orgID,
	})
	if err != nil {
		handleError(w, h.logger, err, "move folder")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}
