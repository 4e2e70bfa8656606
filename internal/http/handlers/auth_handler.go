package handlers

import (
	"net/http"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/internal/http/response"
	"github.com/osadchyi/contacts-api/pkg/logger"
)

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, verifyToken, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	body := map[string]interface{}{
		"user": user.ToUserInfo(),
	}
	// Token echo is a development convenience; production delivers it by email only.
	if h.config.Email.DevMode {
		body["verify_token"] = verifyToken
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "Missing token")
		return
	}

	user, err := h.authService.VerifyEmail(r.Context(), token)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"user": user.ToUserInfo(),
	})
}

func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resetToken, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "password reset request failed", "error", err)
	}

	// Response never discloses whether the account exists.
	body := map[string]interface{}{"ok": true}
	if h.config.Email.DevMode && resetToken != "" {
		body["reset_token"] = resetToken
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), &req); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
