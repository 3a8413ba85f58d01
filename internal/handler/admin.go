package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/declabot/internal/store"
)

// AdminHandler exposes the administrative actions: approving a user's draft
// and inspecting a user's profile.
type AdminHandler struct {
	BaseHandler
	store *store.ProfileStore
}

func NewAdminHandler(s *store.ProfileStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{BaseHandler: BaseHandler{Logger: logger}, store: s}
}

func (h *AdminHandler) userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Approve marks a user's draft as approved, which gates finalization.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(r)
	if !ok {
		h.errorResponse(w, r, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	if err := h.store.SetApproved(id, true); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.Logger.Info("draft approved", "user_id", id)
	h.writeJSON(w, http.StatusOK, envelope{"status": "approved"})
}

// Profile returns the user's profile summary and whether the draft is ready
// to finalize.
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(r)
	if !ok {
		h.errorResponse(w, r, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	summary, err := h.store.Summary(id)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	finalizable, err := h.store.Finalizable(id)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"profile": summary, "finalizable": finalizable})
}
