package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"rdm/internal/domain"
	"rdm/internal/httputil"
)

// handleError maps domain errors to HTTP status codes and writes an RFC 7807
// response. Anything unrecognized is a 500 with a generic detail; the real
// cause goes to the log, never to the client.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error, operation string) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrGone):
		httputil.RespondError(w, http.StatusGone, err.Error())
	default:
		logger.Error("unhandled error", "operation", operation, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

// requireOrg rejects requests whose token carries no organization scope.
func requireOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := httputil.OrganizationID(r)
	if orgID == "" {
		httputil.RespondError(w, http.StatusForbidden, "token has no organization scope")
		return "", false
	}
	return orgID, true
}
