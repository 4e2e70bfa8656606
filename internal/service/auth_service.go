package service

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/internal/platform/cache"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
	"github.com/osadchyi/contacts-api/pkg/auth"
	"github.com/osadchyi/contacts-api/pkg/config"
	"github.com/osadchyi/contacts-api/pkg/events"
	"github.com/osadchyi/contacts-api/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, req *domain.ResetConfirmRequest) error
}

type authService struct {
	userRepo  postgres.UserRepository
	userCache ProjectionCache
	eventBus  events.EventBus
	config    *config.Config
}

func NewAuthService(userRepo postgres.UserRepository, userCache ProjectionCache, eventBus events.EventBus, cfg *config.Config) AuthService {
	if userCache == nil {
		userCache = (*cache.UserCache)(nil)
	}
	return &authService{
		userRepo:  userRepo,
		userCache: userCache,
		eventBus:  eventBus,
		config:    cfg,
	}
}

// Register creates an unverified user and hands the verification mail to
// the event bus. A dispatch failure is logged and never fails the signup.
func (s *authService) Register(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", domain.ErrEmailTaken
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Email, passwordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	verifyToken, err := auth.NewToken(user.ID, "", s.config.Auth.JWTSecret, s.config.Auth.EmailVerificationTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create verification token: %w", err)
	}
	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", s.config.App.BaseURL, verifyToken)

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:      user.ID,
		Email:       user.Email,
		VerifyToken: verifyToken,
		VerifyURL:   verifyURL,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	return user, verifyToken, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	// An unverified account never gets a token, whatever the password.
	if !user.IsVerified {
		return nil, domain.ErrEmailNotVerified
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil || !valid {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := auth.NewToken(user.ID, "", s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
	}, nil
}

// VerifyEmail flips the verification flag. Re-verifying an already
// verified user succeeds. Every failure mode collapses to ErrInvalidToken.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := auth.ParseWithPurpose(token, "", s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}
	user.IsVerified = true

	// A projection cached before the flip would report unverified for the
	// rest of its TTL.
	s.userCache.Drop(ctx, user.ID)

	return user, nil
}

// RequestPasswordReset returns the reset token for dev-mode echoing. The
// caller must answer with the same generic acknowledgment whether or not
// the email exists; an unknown email yields ("", nil).
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil
	}

	resetToken, err := auth.NewToken(user.ID, auth.PurposePasswordReset, s.config.Auth.JWTSecret, auth.ResetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.PasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		ResetToken: resetToken,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reset event", "error", err, "user_id", user.ID)
	}

	return resetToken, nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, req *domain.ResetConfirmRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	claims, err := auth.ParseWithPurpose(req.Token, auth.PurposePasswordReset, s.config.Auth.JWTSecret)
	if err != nil {
		return domain.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrInvalidToken
	}

	passwordHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.SetPassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	return nil
}
