package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/database"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
)

// TxRunner executes a function within a database transaction. Satisfied by
// *database.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// PortfolioService owns the 1:1 user-portfolio relationship. Creation is
// idempotent and callable from two places: right after registration
// (best-effort) and lazily on first read (authoritative fallback).
type PortfolioService struct {
	db         TxRunner
	portfolios repository.PortfolioRepository
	users      repository.UserRepository
}

func NewPortfolioService(db TxRunner, portfolios repository.PortfolioRepository, users repository.UserRepository) *PortfolioService {
	return &PortfolioService{db: db, portfolios: portfolios, users: users}
}

// EnsurePortfolio returns the user's portfolio, creating an empty one if
// none exists yet.
func (s *PortfolioService) EnsurePortfolio(ctx context.Context, user *model.User) (*model.Portfolio, error) {
	existing, err := s.portfolios.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.portfolios.Create(ctx, model.CreatePortfolioParams{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("userId", user.ID).Msg("portfolio created")
	return created, nil
}

// Get fetches the portfolio for userID, lazily creating it for the owner.
func (s *PortfolioService) Get(ctx context.Context, userID string) (*model.Portfolio, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return s.EnsurePortfolio(ctx, user)
}

// Update applies a partial edit and marks the owner's profile complete.
// The portfolio row and the user's completion flag change in one
// transaction so a browse listing never sees one without the other.
func (s *PortfolioService) Update(ctx context.Context, userID string, params model.UpdatePortfolioParams) (*model.Portfolio, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	if _, err := s.EnsurePortfolio(ctx, user); err != nil {
		return nil, err
	}

	var updated *model.Portfolio
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err = s.portfolios.WithTx(tx).Update(ctx, userID, params)
		if err != nil {
			return err
		}
		if updated == nil {
			return nil
		}
		return s.users.WithTx(tx).MarkProfileComplete(ctx, userID)
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Portfolio")
	}

	return updated, nil
}

// AddProject appends a project to the owner's portfolio.
func (s *PortfolioService) AddProject(ctx context.Context, userID string, project model.Project) (*model.Portfolio, error) {
	if strings.TrimSpace(project.Title) == "" || strings.TrimSpace(project.Description) == "" {
		return nil, apperrors.ValidationError("Project title and description are required")
	}

	portfolio, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	project.ID = uuid.NewString()
	project.Likes = 0
	project.CreatedAt = time.Now()

	updated, err := s.portfolios.ReplaceProjects(ctx, userID, append(portfolio.Projects, project))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Portfolio")
	}
	return updated, nil
}

// UpdateProject replaces a project in place, keeping its id and creation time.
func (s *PortfolioService) UpdateProject(ctx context.Context, userID, projectID string, project model.Project) (*model.Portfolio, error) {
	portfolio, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for idx, existing := range portfolio.Projects {
		if existing.ID == projectID {
			project.ID = existing.ID
			project.CreatedAt = existing.CreatedAt
			portfolio.Projects[idx] = project
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("Project")
	}

	updated, err := s.portfolios.ReplaceProjects(ctx, userID, portfolio.Projects)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return updated, nil
}

// DeleteProject removes a project from the owner's portfolio.
func (s *PortfolioService) DeleteProject(ctx context.Context, userID, projectID string) (*model.Portfolio, error) {
	portfolio, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := make(model.ProjectList, 0, len(portfolio.Projects))
	for _, existing := range portfolio.Projects {
		if existing.ID != projectID {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == len(portfolio.Projects) {
		return nil, apperrors.NotFound("Project")
	}

	updated, err := s.portfolios.ReplaceProjects(ctx, userID, remaining)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return updated, nil
}

// ListPublic pages through portfolios of completed profiles.
func (s *PortfolioService) ListPublic(ctx context.Context, limit, offset int) ([]model.Portfolio, error) {
	portfolios, err := s.portfolios.FindPublic(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return portfolios, nil
}
