package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/otpvault/otpvault/internal/vault"
	"github.com/otpvault/otpvault/pkg/qrcode"
)

// Handler serves the vault's HTTP surface.
type Handler struct {
	svc *vault.Service
	log *slog.Logger
}

// NewHandler creates the vault HTTP handler.
func NewHandler(svc *vault.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
	URI    string `json:"uri"`
	Label  string `json:"label"`
	Secret string `json:"secret"`
	Note   string `json:"note"`
}

type createResponse struct {
	Label string `json:"label"`
}

// create ingests a credential from an otpauth:// URI or from a manually
// entered label and secret.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		label string
		err   error
	)
	switch {
	case req.URI != "":
		label, err = h.svc.AddFromURI(r.Context(), req.URI, req.Note)
	case req.Label != "" && req.Secret != "":
		label, err = h.svc.AddManual(r.Context(), req.Label, req.Secret, req.Note)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request must contain either a uri or both a label and secret"})
		return
	}
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, createResponse{Label: label})
}

// list returns all credentials without secrets or note bodies.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type codeResponse struct {
	Code             string `json:"code"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// code generates the current one-time code for a stored credential.
func (h *Handler) code(w http.ResponseWriter, r *http.Request) {
	code, err := h.svc.GenerateCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, codeResponse{Code: code.Value, SecondsRemaining: code.SecondsRemaining})
}

type previewRequest struct {
	Secret string `json:"secret"`
}

// preview generates a code from a submitted secret without persisting it.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	code, err := h.svc.Preview(r.Context(), req.Secret)
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, codeResponse{Code: code.Value, SecondsRemaining: code.SecondsRemaining})
}

type noteResponse struct {
	Note string `json:"note"`
}

// note reveals the note body of a single credential.
func (h *Handler) note(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Note(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse{Note: note})
}

type updateNoteRequest struct {
	Note string `json:"note"`
}

// updateNote replaces the note of a credential.
func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), req.Note); err != nil {
		h.writeError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequest struct {
	Label string `json:"label"`
}

// delete removes a credential after the caller echoes its exact label.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), req.Label); err != nil {
		h.writeError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportQR renders the credential's otpauth:// URI as a QR code PNG for
// re-enrollment into another authenticator.
func (h *Handler) exportQR(w http.ResponseWriter, r *http.Request) {
	uri, err := h.svc.ExportURI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := qrcode.Generate(uri, size)
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
