package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/pkg/auth"
	"github.com/osadchyi/contacts-api/pkg/config"
	"github.com/osadchyi/contacts-api/pkg/events"
)

type mockUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (m *mockUserRepo) SetPassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) SetRole(_ context.Context, id int64, role string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) SetAvatar(_ context.Context, id int64, avatarURL string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.AvatarURL = avatarURL
	copied := *u
	return &copied, nil
}

type mockBus struct {
	published []string
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return nil
}

func (m *mockBus) QueueSubscribe(string, string, func(msg *events.Message)) error { return nil }
func (m *mockBus) Close() error                                                   { return nil }

type fakeProjectionCache struct {
	entries map[int64]*domain.UserInfo
}

func newFakeProjectionCache() *fakeProjectionCache {
	return &fakeProjectionCache{entries: make(map[int64]*domain.UserInfo)}
}

func (f *fakeProjectionCache) Get(_ context.Context, id int64) *domain.UserInfo {
	return f.entries[id]
}

func (f *fakeProjectionCache) Set(_ context.Context, info *domain.UserInfo) {
	f.entries[info.ID] = info
}

func (f *fakeProjectionCache) Drop(_ context.Context, id int64) {
	delete(f.entries, id)
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenTTL:       30 * time.Minute,
			EmailVerificationTTL: 2 * time.Hour,
		},
		App: config.AppConfig{BaseURL: "http://localhost:8080"},
	}
}

func newTestAuthService() (AuthService, *mockUserRepo, *mockBus) {
	repo := newMockUserRepo()
	bus := &mockBus{}
	return NewAuthService(repo, nil, bus, testConfig()), repo, bus
}

func TestRegister(t *testing.T) {
	svc, _, bus := newTestAuthService()
	ctx := context.Background()

	user, verifyToken, err := svc.Register(ctx, &domain.SignupRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.IsVerified {
		t.Error("new user should not be verified")
	}
	if user.Role != domain.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, domain.RoleUser)
	}
	if verifyToken == "" {
		t.Error("expected a verification token")
	}
	if len(bus.published) != 1 || bus.published[0] != events.UserRegistered {
		t.Errorf("published = %v, want [%s]", bus.published, events.UserRegistered)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	req := &domain.SignupRequest{Email: "alice@example.com", Password: "password123"}
	if _, _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "alice@example.com", Password: "different123"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("second Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *domain.SignupRequest
	}{
		{"missing email", &domain.SignupRequest{Password: "password123"}},
		{"bad email", &domain.SignupRequest{Email: "not-an-email", Password: "password123"}},
		{"short password", &domain.SignupRequest{Email: "a@b.co", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(ctx, tt.req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("Register() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestLoginUnverified(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "bob@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The verification gate fires before the password is even checked.
	for _, password := range []string{"password123", "wrong-password"} {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "bob@example.com", Password: password})
		if !errors.Is(err, domain.ErrEmailNotVerified) {
			t.Errorf("Login(password=%q) error = %v, want ErrEmailNotVerified", password, err)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	svc, repo, _ := newTestAuthService()
	ctx := context.Background()

	user, verifyToken, err := svc.Register(ctx, &domain.SignupRequest{Email: "bob@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.VerifyEmail(ctx, verifyToken); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if !repo.users[user.ID].IsVerified {
		t.Fatal("user not marked verified")
	}

	token, err := svc.Login(ctx, &domain.LoginRequest{Email: "bob@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", token.TokenType)
	}

	claims, err := auth.Parse(token.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Sub != user.ID {
		t.Errorf("Sub = %d, want %d", claims.Sub, user.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "bob@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	repo.users[user.ID].IsVerified = true

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "bob@example.com", Password: "wrong-password"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyEmailIdempotent(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, verifyToken, err := svc.Register(ctx, &domain.SignupRequest{Email: "carol@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		user, err := svc.VerifyEmail(ctx, verifyToken)
		if err != nil {
			t.Fatalf("VerifyEmail() attempt %d error = %v", i+1, err)
		}
		if !user.IsVerified {
			t.Errorf("attempt %d: user not verified", i+1)
		}
	}
}

func TestVerifyEmailDropsCachedProjection(t *testing.T) {
	repo := newMockUserRepo()
	cache := newFakeProjectionCache()
	svc := NewAuthService(repo, cache, &mockBus{}, testConfig())
	ctx := context.Background()

	user, verifyToken, err := svc.Register(ctx, &domain.SignupRequest{Email: "grace@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Simulate a profile read that cached the projection before verification.
	cache.Set(ctx, &domain.UserInfo{ID: user.ID, Email: user.Email, Role: user.Role, IsVerified: false})

	if _, err := svc.VerifyEmail(ctx, verifyToken); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if cache.Get(ctx, user.ID) != nil {
		t.Error("stale projection left in cache after verification")
	}
}

func TestVerifyEmailRejectsResetToken(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "dave@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	resetToken, err := auth.NewToken(user.ID, auth.PurposePasswordReset, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	if _, err := svc.VerifyEmail(ctx, resetToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("VerifyEmail() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyEmailGarbageToken(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.VerifyEmail(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("VerifyEmail() error = %v, want ErrInvalidToken", err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, bus := newTestAuthService()

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token != "" {
		t.Error("expected no token for unknown email")
	}
	if len(bus.published) != 0 {
		t.Errorf("expected no events, got %v", bus.published)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, bus := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "eve@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	repo.users[user.ID].IsVerified = true

	resetToken, err := svc.RequestPasswordReset(ctx, "eve@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if resetToken == "" {
		t.Fatal("expected a reset token")
	}
	if bus.published[len(bus.published)-1] != events.PasswordResetRequested {
		t.Errorf("last event = %q, want %q", bus.published[len(bus.published)-1], events.PasswordResetRequested)
	}

	err = svc.ConfirmPasswordReset(ctx, &domain.ResetConfirmRequest{Token: resetToken, NewPassword: "newpassword456"})
	if err != nil {
		t.Fatalf("ConfirmPasswordReset() error = %v", err)
	}

	match, err := argon2id.ComparePasswordAndHash("newpassword456", repo.users[user.ID].PasswordHash)
	if err != nil || !match {
		t.Error("new password not stored")
	}

	if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "eve@example.com", Password: "password123"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "eve@example.com", Password: "newpassword456"}); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

func TestConfirmPasswordResetRejectsLoginToken(t *testing.T) {
	svc, repo, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, &domain.SignupRequest{Email: "frank@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	repo.users[user.ID].IsVerified = true

	loginToken, err := auth.NewToken(user.ID, "", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	err = svc.ConfirmPasswordReset(ctx, &domain.ResetConfirmRequest{Token: loginToken, NewPassword: "newpassword456"})
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("ConfirmPasswordReset() error = %v, want ErrInvalidToken", err)
	}
}
