package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/otpvault/otpvault/internal/vault"
	"github.com/otpvault/otpvault/pkg/logger"
	"github.com/otpvault/otpvault/pkg/totp"
)

// errorResponse is the uniform failure body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain failures to HTTP statuses. Validation failures are
// surfaced verbatim; store failures are logged server-side and surfaced as a
// generic internal error so backend details never leak.
func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, totp.ErrInvalidURI),
		errors.Is(err, totp.ErrMissingLabel),
		errors.Is(err, totp.ErrMalformedParameters),
		errors.Is(err, totp.ErrInvalidSecret),
		errors.Is(err, totp.ErrMissingSecret),
		errors.Is(err, totp.ErrInvalidParams),
		errors.Is(err, vault.ErrEmptyLabel),
		errors.Is(err, vault.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, vault.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: vault.ErrNotFound.Error()})
	case errors.Is(err, vault.ErrLabelMismatch):
		writeJSON(w, http.StatusConflict, errorResponse{Error: vault.ErrLabelMismatch.Error()})
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			logger.Error(err),
			slog.String("path", r.URL.Path),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
