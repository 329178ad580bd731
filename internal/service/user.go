package service

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
	"github.com/craftfolio/portfolio-server-go/internal/storage"
)

type UpdateProfileInput struct {
	Fullname string
	Bio      string
	Headline string

	Avatar            io.Reader
	AvatarContentType string
}

// UserService serves profile reads and edits. Credential mutation lives in
// AuthService.
type UserService struct {
	users   repository.UserRepository
	storage storage.ObjectStorage
}

func NewUserService(users repository.UserRepository, objStorage storage.ObjectStorage) *UserService {
	return &UserService{users: users, storage: objStorage}
}

// GetByID returns the sanitized user record.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateProfile applies the non-blank optional fields and, when an avatar
// file is attached, replaces the stored object and drops the old one.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	params := model.UpdateProfileParams{}
	if v := strings.TrimSpace(input.Fullname); v != "" {
		params.Fullname = &v
	}
	if v := strings.TrimSpace(input.Bio); v != "" {
		params.Bio = &v
	}
	if v := strings.TrimSpace(input.Headline); v != "" {
		params.Headline = &v
	}

	oldAvatarKey := ""
	if input.Avatar != nil {
		uploaded, err := s.storage.Upload(ctx, input.Avatar, input.AvatarContentType, avatarFolder)
		if err != nil {
			return nil, apperrors.Upstream("object storage", err)
		}
		params.AvatarKey = &uploaded.Key
		params.AvatarURL = &uploaded.URL
		oldAvatarKey = user.AvatarKey
	}

	updated, err := s.users.UpdateProfile(ctx, userID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("User")
	}

	// Old avatar removal is best-effort; a stale object is not worth
	// failing the profile update for.
	if oldAvatarKey != "" {
		if err := s.storage.Delete(ctx, oldAvatarKey); err != nil {
			log.Warn().Err(err).Str("key", oldAvatarKey).Msg("failed to delete old avatar")
		}
	}

	sanitized := updated.Sanitized()
	return &sanitized, nil
}

// ListPublic pages through users whose profiles are browseable.
func (s *UserService) ListPublic(ctx context.Context, limit, offset int) ([]model.User, error) {
	users, err := s.users.FindPublic(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}
