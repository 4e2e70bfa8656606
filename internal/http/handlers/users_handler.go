package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osadchyi/contacts-api/internal/domain"
	mw "github.com/osadchyi/contacts-api/internal/http/middleware"
	"github.com/osadchyi/contacts-api/internal/http/response"
)

// 5 MB is plenty for an avatar image.
const maxAvatarBytes = 5 << 20

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "Failed to read file")
		return
	}
	if len(data) == 0 {
		response.BadRequest(w, "File is empty")
		return
	}

	updated, err := h.userService.UploadAvatar(r.Context(), info.ID, data)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) ResetAvatarToDefault(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("user_id")
	targetID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || targetID <= 0 {
		response.BadRequest(w, "Invalid user_id")
		return
	}

	updated, err := h.userService.ResetAvatarToDefault(r.Context(), targetID)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || targetID <= 0 {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req domain.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.userService.UpdateRole(r.Context(), targetID, req.Role)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
