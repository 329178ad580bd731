package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/craftfolio/portfolio-server-go/internal/database"
	"github.com/craftfolio/portfolio-server-go/internal/model"
)

type PortfolioRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error)
	Create(ctx context.Context, params model.CreatePortfolioParams) (*model.Portfolio, error)
	Update(ctx context.Context, userID string, params model.UpdatePortfolioParams) (*model.Portfolio, error)
	ReplaceProjects(ctx context.Context, userID string, projects model.ProjectList) (*model.Portfolio, error)
	FindPublic(ctx context.Context, limit, offset int) ([]model.Portfolio, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PortfolioRepository
}

type portfolioRepo struct {
	db database.DBTX
}

func NewPortfolioRepository(db *sqlx.DB) PortfolioRepository {
	return &portfolioRepo{db: db}
}

func (r *portfolioRepo) WithTx(tx *sqlx.Tx) PortfolioRepository {
	return &portfolioRepo{db: tx}
}

func (r *portfolioRepo) FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.GetContext(ctx, &p, `SELECT * FROM portfolios WHERE user_id = $1`, userID)
	return HandleNotFound(&p, err)
}

// Create inserts an empty portfolio for the user. The ON CONFLICT guard
// makes cascade-create and lazy-create idempotent against each other.
func (r *portfolioRepo) Create(ctx context.Context, params model.CreatePortfolioParams) (*model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO portfolios (user_id, email, social)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = portfolios.updated_at
		RETURNING *
	`, params.UserID, params.Email, params.Social)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *portfolioRepo) Update(ctx context.Context, userID string, params model.UpdatePortfolioParams) (*model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.GetContext(ctx, &p, `
		UPDATE portfolios SET
			about        = COALESCE($2, about),
			skills       = COALESCE($3, skills),
			certificates = COALESCE($4, certificates),
			experience   = COALESCE($5, experience),
			education    = COALESCE($6, education),
			social       = COALESCE($7, social),
			updated_at   = NOW()
		WHERE user_id = $1
		RETURNING *
	`, userID, params.About, params.Skills, params.Certificates,
		params.Experience, params.Education, params.Social)
	return HandleNotFound(&p, err)
}

// ReplaceProjects swaps the whole projects collection. Project-level
// add/update/delete is resolved in the service and persisted as one write,
// matching the document-store semantics of the portfolio record.
func (r *portfolioRepo) ReplaceProjects(ctx context.Context, userID string, projects model.ProjectList) (*model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.GetContext(ctx, &p, `
		UPDATE portfolios SET projects = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	`, userID, projects)
	return HandleNotFound(&p, err)
}

// FindPublic lists portfolios of users who finished their profile, newest
// activity first.
func (r *portfolioRepo) FindPublic(ctx context.Context, limit, offset int) ([]model.Portfolio, error) {
	portfolios := []model.Portfolio{}
	err := r.db.SelectContext(ctx, &portfolios, `
		SELECT p.* FROM portfolios p
		JOIN users u ON u.id = p.user_id
		WHERE u.is_profile_complete = true
		ORDER BY p.updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return portfolios, nil
}
