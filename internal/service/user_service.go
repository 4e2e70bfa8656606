package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/internal/platform/cache"
	"github.com/osadchyi/contacts-api/internal/platform/storage"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
)

type UserService interface {
	Resolve(ctx context.Context, id int64) (*domain.UserInfo, error)
	UploadAvatar(ctx context.Context, id int64, data []byte) (*domain.UserInfo, error)
	ResetAvatarToDefault(ctx context.Context, targetID int64) (*domain.UserInfo, error)
	UpdateRole(ctx context.Context, targetID int64, role string) (*domain.UserInfo, error)
}

// ProjectionCache is the user-projection cache the resolver reads and
// every mutation refreshes or invalidates. *cache.UserCache satisfies it.
type ProjectionCache interface {
	Get(ctx context.Context, id int64) *domain.UserInfo
	Set(ctx context.Context, info *domain.UserInfo)
	Drop(ctx context.Context, id int64)
}

type userService struct {
	userRepo         postgres.UserRepository
	userCache        ProjectionCache
	imageHost        storage.ImageHost
	defaultAvatarURL string
}

func NewUserService(userRepo postgres.UserRepository, userCache ProjectionCache, imageHost storage.ImageHost, defaultAvatarURL string) UserService {
	if userCache == nil {
		userCache = (*cache.UserCache)(nil)
	}
	return &userService{
		userRepo:         userRepo,
		userCache:        userCache,
		imageHost:        imageHost,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// Resolve maps an authenticated subject id to its projection, consulting
// the cache first and repopulating it on a miss. A subject whose user no
// longer exists resolves to ErrNotFound, which the transport surfaces as
// an authentication failure.
func (s *userService) Resolve(ctx context.Context, id int64) (*domain.UserInfo, error) {
	if info := s.userCache.Get(ctx, id); info != nil {
		return info, nil
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	info := user.ToUserInfo()
	s.userCache.Set(ctx, info)
	return info, nil
}

func (s *userService) UploadAvatar(ctx context.Context, id int64, data []byte) (*domain.UserInfo, error) {
	if s.imageHost == nil {
		return nil, domain.ErrUpstream
	}

	url, err := s.imageHost.UploadAvatar(ctx, data, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	user, err := s.userRepo.SetAvatar(ctx, id, url)
	if err != nil {
		return nil, fmt.Errorf("failed to set avatar: %w", err)
	}

	info := user.ToUserInfo()
	s.userCache.Set(ctx, info)
	return info, nil
}

func (s *userService) ResetAvatarToDefault(ctx context.Context, targetID int64) (*domain.UserInfo, error) {
	user, err := s.userRepo.SetAvatar(ctx, targetID, s.defaultAvatarURL)
	if err != nil {
		return nil, err
	}

	info := user.ToUserInfo()
	s.userCache.Set(ctx, info)
	return info, nil
}

func (s *userService) UpdateRole(ctx context.Context, targetID int64, role string) (*domain.UserInfo, error) {
	if !domain.IsValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.userRepo.SetRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	info := user.ToUserInfo()
	s.userCache.Set(ctx, info)
	return info, nil
}
