package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/audit"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/service"
	"github.com/craftfolio/portfolio-server-go/internal/util"
)

type UserHandler struct {
	userService    *service.UserService
	authService    *service.AuthService
	requireAuth    func(http.Handler) http.Handler
	avatarMaxBytes int64
}

func NewUserHandler(
	userService *service.UserService,
	authService *service.AuthService,
	requireAuth func(http.Handler) http.Handler,
	avatarMaxBytes int64,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		authService:    authService,
		requireAuth:    requireAuth,
		avatarMaxBytes: avatarMaxBytes,
	}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateProfile)
		r.Put("/change-password", h.ChangePassword)
	})

	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	return r
}

// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	writeSuccess(w, http.StatusOK, "", user)
}

// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(h.avatarMaxBytes); err != nil {
		writeError(w, apperrors.ValidationError("Invalid multipart form"))
		return
	}

	input := service.UpdateProfileInput{
		Fullname: r.FormValue("fullname"),
		Bio:      r.FormValue("bio"),
		Headline: r.FormValue("headline"),
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		input.Avatar = file
		input.AvatarContentType = header.Header.Get("Content-Type")
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, input)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("profile update failed")
		writeError(w, err)
		return
	}

	if input.Avatar != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventAvatarReplace,
			UserID: user.ID,
		})
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", updated)
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewConfirmPassword string `json:"newConfirmPassword"`
}

// PUT /api/users/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword, req.NewConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventPasswordChange,
		UserID:   user.ID,
		Username: user.Username,
	})

	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)

	users, err := h.userService.ListPublic(r.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", users)
}

// GET /api/users/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", user)
}
