package handler

import (
	"log/slog"
	"net/http"

	"rdm/internal/domain/models"
	"rdm/internal/httputil"
	"rdm/internal/service"
)

// TrashHandler exposes the trash lifecycle over HTTP.
type TrashHandler struct {
	service *service.TrashService
	logger  *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(service *service.TrashService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{service: service, logger: logger}
}

// RegisterRoutes registers trash routes on the mux
func (h *TrashHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /trash", h.ListTrash)
	mux.HandleFunc("POST /trash", h.TrashMany)
	mux.HandleFunc("POST /trash/{type}/{id}", h.Trash)
	mux.HandleFunc("POST /trash/{type}/{id}/restore", h.Restore)
	mux.HandleFunc("DELETE /trash/{type}/{id}", h.Purge)
}

func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListTrash(r.Context(), orgID)
	if err != nil {
		handleError(w, h.logger, err, "list trash")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *TrashHandler) Trash(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	itemType, err := models.ParseItemType(r.PathValue("type"))
	if err != nil {
		handleError(w, h.logger, err, "trash item")
		return
	}

	if err := h.service.Trash(r.Context(), itemType, r.PathValue("id"), orgID, httputil.Actor(r)); err != nil {
		handleError(w, h.logger, err, "trash item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TrashHandler) TrashMany(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	var body struct {
		Items []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"items"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Items) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "items must not be empty")
		return
	}

	reqs := make([]service.TrashRequest, 0, len(body.Items))
	for _, item := range body.Items {
		itemType, err := models.ParseItemType(item.Type)
		if err != nil {
			handleError(w, h.logger, err, "trash batch")
			return
		}
		reqs = append(reqs, service.TrashRequest{Type: itemType, ID: item.ID})
	}

	results := h.service.TrashMany(r.Context(), reqs, orgID, httputil.Actor(r))

	// 207 signals per-item outcomes; the body says which ones failed
	status := http.StatusOK
	for _, res := range results {
		if !res.OK() {
			status = http.StatusMultiStatus
			break
		}
	}

	httputil.RespondJSON(w, status, map[string]any{"results": results})
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	itemType, err := models.ParseItemType(r.PathValue("type"))
	if err != nil {
		handleError(w, h.logger, err, "restore item")
		return
	}

	if err := h.service.Restore(r.Context(), itemType, r.PathValue("id"), orgID); err != nil {
		handleError(w, h.logger, err, "restore item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	itemType, err := models.ParseItemType(r.PathValue("type"))
	if err != nil {
		handleError(w, h.logger, err, "purge item")
		return
	}

	if err := h.service.Purge(r.Context(), itemType, r.PathValue("id"), orgID); err != nil {
		handleError(w, h.logger, err, "purge item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
