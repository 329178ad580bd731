package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/service"
	"github.com/craftfolio/portfolio-server-go/internal/util"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	requireAuth      func(http.Handler) http.Handler
}

func NewPortfolioHandler(portfolioService *service.PortfolioService, requireAuth func(http.Handler) http.Handler) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		requireAuth:      requireAuth,
	}
}

func (h *PortfolioHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.GetMine)
		r.Put("/me", h.UpdateMine)
		r.Post("/me/projects", h.AddProject)
		r.Put("/me/projects/{projectId}", h.UpdateProject)
		r.Delete("/me/projects/{projectId}", h.DeleteProject)
	})

	r.Get("/", h.List)
	r.Get("/{userId}", h.GetByUserID)

	return r
}

// GET /api/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)

	portfolios, err := h.portfolioService.ListPublic(r.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list portfolios")
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", portfolios)
}

// GET /api/portfolios/me
func (h *PortfolioHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	portfolio, err := h.portfolioService.Get(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to load portfolio")
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", portfolio)
}

// GET /api/portfolios/{userId}
func (h *PortfolioHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !util.IsValidUUID(userID) {
		writeError(w, apperrors.InvalidInput("userId", "must be a valid UUID"))
		return
	}

	portfolio, err := h.portfolioService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", portfolio)
}

// PUT /api/portfolios/me
func (h *PortfolioHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var params model.UpdatePortfolioParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	portfolio, err := h.portfolioService.Update(r.Context(), user.ID, params)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to update portfolio")
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Portfolio updated successfully", portfolio)
}

// POST /api/portfolios/me/projects
func (h *PortfolioHandler) AddProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	portfolio, err := h.portfolioService.AddProject(r.Context(), user.ID, project)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Project added successfully", portfolio)
}

// PUT /api/portfolios/me/projects/{projectId}
func (h *PortfolioHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	projectID := chi.URLParam(r, "projectId")

	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	portfolio, err := h.portfolioService.UpdateProject(r.Context(), user.ID, projectID, project)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Project updated successfully", portfolio)
}

// DELETE /api/portfolios/me/projects/{projectId}
func (h *PortfolioHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	projectID := chi.URLParam(r, "projectId")

	portfolio, err := h.portfolioService.DeleteProject(r.Context(), user.ID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Project deleted successfully", portfolio)
}
