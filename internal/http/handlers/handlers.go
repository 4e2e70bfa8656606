package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/osadchyi/contacts-api/internal/http/middleware"
	"github.com/osadchyi/contacts-api/internal/http/response"
	"github.com/osadchyi/contacts-api/internal/platform/cache"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
	"github.com/osadchyi/contacts-api/internal/service"
	"github.com/osadchyi/contacts-api/pkg/config"
)

type Handlers struct {
	authService    service.AuthService
	userService    service.UserService
	contactService service.ContactService
	userRepo       postgres.UserRepository
	limiter        *cache.RateLimiter
	config         *config.Config
}

func New(
	authService service.AuthService,
	userService service.UserService,
	contactService service.ContactService,
	userRepo postgres.UserRepository,
	limiter *cache.RateLimiter,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService:    authService,
		userService:    userService,
		contactService: contactService,
		userRepo:       userRepo,
		limiter:        limiter,
		config:         cfg,
	}
}

// Routes assembles the API router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	requireUser := mw.RequireUser(h.userService, h.config.Auth.JWTSecret)
	requireAdmin := mw.RequireAdmin(h.userRepo)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Get("/verify", h.VerifyEmail)
		r.Post("/reset/request", h.RequestPasswordReset)
		r.Post("/reset/confirm", h.ConfirmPasswordReset)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireUser)

		r.With(mw.RateLimitPerUser(h.limiter, "me", 5, time.Minute)).Get("/me", h.Me)
		r.Post("/me/avatar", h.UploadAvatar)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/avatar/default", h.ResetAvatarToDefault)
			r.Patch("/{id}/role", h.UpdateRole)
		})
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/", h.CreateContact)
		r.Get("/", h.ListContacts)
		r.Get("/upcoming-birthdays", h.UpcomingBirthdays)
		r.Get("/{id}", h.GetContact)
		r.Patch("/{id}", h.UpdateContact)
		r.Delete("/{id}", h.DeleteContact)
	})

	return r
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}
