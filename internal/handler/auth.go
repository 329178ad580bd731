package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/audit"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/service"
)

// AuthHandler owns the credential endpoints. Signup is multipart because the
// avatar file arrives with the form; everything else is JSON.
type AuthHandler struct {
	authService    *service.AuthService
	requireAuth    func(http.Handler) http.Handler
	rateLimit      func(http.Handler) http.Handler
	accessTTL      time.Duration
	refreshTTL     time.Duration
	avatarMaxBytes int64
	isProduction   bool
}

func NewAuthHandler(
	authService *service.AuthService,
	requireAuth func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
	accessTTL, refreshTTL time.Duration,
	avatarMaxBytes int64,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		requireAuth:    requireAuth,
		rateLimit:      rateLimit,
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
		avatarMaxBytes: avatarMaxBytes,
		isProduction:   isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/logout", h.Logout)
	})

	return r
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.avatarMaxBytes); err != nil {
		writeError(w, apperrors.ValidationError("Invalid multipart form"))
		return
	}

	params := service.RegisterParams{
		Fullname: r.FormValue("fullname"),
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		UserType: r.FormValue("userType"),
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		params.Avatar = file
		params.AvatarContentType = header.Header.Get("Content-Type")
	}

	user, err := h.authService.Register(r.Context(), params)
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeDatabase || code == apperrors.ErrCodeUpstream {
			log.Error().Err(err).Msg("signup failed")
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventSignup,
		UserID:   user.ID,
		Username: user.Username,
	})

	writeSuccess(w, http.StatusCreated, "User registered successfully", user)
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventLoginFailure,
			Username: req.EmailOrUsername,
		})
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, middleware.AccessTokenCookie, result.AccessToken, h.accessTTL)
	h.setTokenCookie(w, middleware.RefreshTokenCookie, result.RefreshToken, h.refreshTTL)

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		UserID:   result.User.ID,
		Username: result.User.Username,
	})

	writeSuccess(w, http.StatusOK, "User logged in successfully", result)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("logout failed")
		writeError(w, err)
		return
	}

	h.clearTokenCookie(w, middleware.AccessTokenCookie)
	h.clearTokenCookie(w, middleware.RefreshTokenCookie)

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLogout,
		UserID:   user.ID,
		Username: user.Username,
	})

	writeSuccess(w, http.StatusOK, "User logged out successfully", nil)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
