package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osadchyi/contacts-api/internal/domain"
	mw "github.com/osadchyi/contacts-api/internal/http/middleware"
	"github.com/osadchyi/contacts-api/internal/http/response"
)

const defaultBirthdayWindow = 7

func contactID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	var req domain.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.contactService.Create(r.Context(), info.ID, &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	contacts, err := h.contactService.List(r.Context(), info.ID, r.URL.Query().Get("search"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	id, ok := contactID(r)
	if !ok {
		response.BadRequest(w, "Invalid contact ID")
		return
	}

	contact, err := h.contactService.Get(r.Context(), id, info.ID)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	id, ok := contactID(r)
	if !ok {
		response.BadRequest(w, "Invalid contact ID")
		return
	}

	var req domain.UpdateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.contactService.Update(r.Context(), id, info.ID, &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	id, ok := contactID(r)
	if !ok {
		response.BadRequest(w, "Invalid contact ID")
		return
	}

	if err := h.contactService.Delete(r.Context(), id, info.ID); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	info := mw.CurrentUser(r)
	if info == nil {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	days := defaultBirthdayWindow
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "days must be an integer")
			return
		}
		days = parsed
	}

	contacts, err := h.contactService.UpcomingBirthdays(r.Context(), info.ID, days)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}
