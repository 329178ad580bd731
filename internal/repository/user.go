package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/craftfolio/portfolio-server-go/internal/database"
	"github.com/craftfolio/portfolio-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, params model.UpdateProfileParams) (*model.User, error)
	MarkProfileComplete(ctx context.Context, id string) error
	ClearExpiredRefreshTokens(ctx context.Context) (int64, error)
	FindPublic(ctx context.Context, limit, offset int) ([]model.User, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	return HandleNotFound(&user, err)
}

// FindByEmailOrUsername matches the identifier against either column, the
// way the login form accepts both.
func (r *userRepo) FindByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = $1 OR username = $1
	`, identifier)
	return HandleNotFound(&user, err)
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email)
	return exists, err
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (fullname, username, email, password_hash, user_type, avatar_key, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.Fullname, params.Username, params.Email, params.PasswordHash,
		params.UserType, params.AvatarKey, params.AvatarURL)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRefreshToken overwrites the single stored refresh token. Concurrent
// logins race here and last write wins, which is the intended
// single-active-refresh-token behavior.
func (r *userRepo) UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, token, expiresAt)
	return err
}

func (r *userRepo) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	return err
}

func (r *userRepo) UpdateProfile(ctx context.Context, id string, params model.UpdateProfileParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			fullname   = COALESCE($2, fullname),
			bio        = COALESCE($3, bio),
			headline   = COALESCE($4, headline),
			avatar_key = COALESCE($5, avatar_key),
			avatar_url = COALESCE($6, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Fullname, params.Bio, params.Headline, params.AvatarKey, params.AvatarURL)
	return HandleNotFound(&user, err)
}

func (r *userRepo) MarkProfileComplete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_profile_complete = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// ClearExpiredRefreshTokens drops stored refresh tokens whose recorded
// expiry has passed. Run by the cleanup job.
func (r *userRepo) ClearExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = NULL, refresh_token_expires_at = NULL
		WHERE refresh_token IS NOT NULL AND refresh_token_expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *userRepo) FindPublic(ctx context.Context, limit, offset int) ([]model.User, error) {
	users := []model.User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		WHERE is_profile_complete = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}
