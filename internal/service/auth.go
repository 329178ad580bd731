package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/auth"
	"github.com/craftfolio/portfolio-server-go/internal/config"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
	"github.com/craftfolio/portfolio-server-go/internal/storage"
	"github.com/craftfolio/portfolio-server-go/internal/util"
)

const avatarFolder = "avatars"

type RegisterParams struct {
	Fullname string
	Username string
	Email    string
	Password string
	UserType string

	// Avatar is required at registration; nil means the client attached
	// no file.
	Avatar            io.Reader
	AvatarContentType string
}

type LoginResult struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// AuthService orchestrates registration, login, logout, and password
// changes over the credential store.
type AuthService struct {
	users      repository.UserRepository
	portfolios *PortfolioService
	issuer     *auth.Issuer
	storage    storage.ObjectStorage
}

func NewAuthService(
	users repository.UserRepository,
	portfolios *PortfolioService,
	issuer *auth.Issuer,
	objStorage storage.ObjectStorage,
) *AuthService {
	return &AuthService{
		users:      users,
		portfolios: portfolios,
		issuer:     issuer,
		storage:    objStorage,
	}
}

// Register creates a user and, best-effort, their empty portfolio. The
// returned user is sanitized; registration does not log the user in.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	fullname := strings.TrimSpace(params.Fullname)
	username := strings.ToLower(strings.TrimSpace(params.Username))
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if fullname == "" || username == "" || email == "" || params.Password == "" {
		return nil, apperrors.ValidationError("All fields are required")
	}
	if !util.IsValidUsername(username) {
		return nil, apperrors.InvalidInput("username", "must be 3-30 characters")
	}
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if len(params.Password) < config.MinPasswordLength {
		return nil, apperrors.ValidationError("Password must contain at least 8 characters")
	}
	userType := model.UserType(params.UserType)
	if params.UserType == "" {
		userType = model.UserTypeStudent
	} else if !util.IsValidEnum(params.UserType, model.ValidUserTypes()) {
		return nil, apperrors.InvalidInput("userType", "unknown user type")
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if exists {
		return nil, apperrors.Conflict("User with email or username already exists")
	}

	if params.Avatar == nil {
		return nil, apperrors.ValidationError("Avatar file is required")
	}

	uploaded, err := s.storage.Upload(ctx, params.Avatar, params.AvatarContentType, avatarFolder)
	if err != nil {
		return nil, apperrors.Upstream("object storage", err)
	}
	if uploaded.URL == "" {
		return nil, apperrors.Upstream("object storage", fmt.Errorf("upload returned no accessible URL"))
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to process password").WithCause(err)
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		UserType:     userType,
		AvatarKey:    uploaded.Key,
		AvatarURL:    uploaded.URL,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	// Cascade-create the portfolio. A failure here is logged and swallowed:
	// the portfolio is lazily created on first read.
	if _, err := s.portfolios.EnsurePortfolio(ctx, user); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to create portfolio for new user")
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Login verifies credentials, issues a token pair, and persists the new
// refresh token, overwriting any previous one.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.ValidationError("All fields are required")
	}

	user, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Invalid user credentials")
	}

	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal("Something went wrong while generating tokens").WithCause(err)
	}
	refreshToken, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal("Something went wrong while generating tokens").WithCause(err)
	}

	// Single-field update, no full-record validation pass. Two concurrent
	// logins race here; the later write is the one the store remembers.
	expiresAt := time.Now().Add(s.issuer.RefreshTTL())
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, apperrors.Database(err)
	}

	return &LoginResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token. Calling it for a user who is
// already logged out is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// ChangePassword re-hashes and persists a new password after verifying the
// current one. Only the password field is touched, so the stored hash is
// never re-hashed by an unrelated update.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword, confirm string) error {
	if strings.TrimSpace(newPassword) == "" || strings.TrimSpace(confirm) == "" {
		return apperrors.ValidationError("All fields are required")
	}
	if newPassword != confirm {
		return apperrors.ValidationError("New password and confirm password should be same")
	}
	if len(newPassword) < config.MinPasswordLength {
		return apperrors.ValidationError("Password must contain at least 8 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	if !auth.CheckPassword(current, user.PasswordHash) {
		return apperrors.Unauthorized("Wrong password")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("Failed to process password").WithCause(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
