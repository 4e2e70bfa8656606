package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/internal/http/response"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
	"github.com/osadchyi/contacts-api/internal/service"
	"github.com/osadchyi/contacts-api/pkg/auth"
	"github.com/osadchyi/contacts-api/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "current_user"

// RequireUser resolves the bearer token to a user projection and stores it
// on the request context. Every failure, including a valid token whose
// subject no longer exists, is an authentication failure.
func RequireUser(users service.UserService, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			// Login tokens carry no purpose; purposed tokens are rejected here.
			claims, err := auth.ParseWithPurpose(token, "", jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			info, err := users.Resolve(r.Context(), claims.Sub)
			if err != nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, info.ID)
			ctx = context.WithValue(ctx, ctxUser, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the projection stored by RequireUser.
func CurrentUser(r *http.Request) *domain.UserInfo {
	if info, ok := r.Context().Value(ctxUser).(*domain.UserInfo); ok {
		return info
	}
	return nil
}

// RequireAdmin gates privileged operations. The role check always reads
// the store: a cached projection is never authoritative for a mutation.
func RequireAdmin(userRepo postgres.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := CurrentUser(r)
			if info == nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}

			user, err := userRepo.FindByID(r.Context(), info.ID)
			if err != nil || user == nil {
				response.Unauthorized(w, "Not authenticated")
				return
			}
			if user.Role != domain.RoleAdmin {
				response.FromError(r.Context(), w, domain.ErrAdminsOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
