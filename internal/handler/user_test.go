package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftfolio/portfolio-server-go/internal/model"
)

func sanitizedUser(t *testing.T, env *testEnv, id string) *model.User {
	t.Helper()
	user, err := env.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	sanitized := user.Sanitized()
	return &sanitized
}

func TestUserHandler_Me(t *testing.T) {
	env := newTestEnv()
	userID := registerTestUser(t, env)
	user := sanitizedUser(t, env, userID)

	h := NewUserHandler(env.userService, env.authService, passthroughAuth(user), 5<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()

	router := chi.NewRouter()
	router.Mount("/api/users", h.Routes())
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "testuser", resp.Data.Username)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "refreshToken")
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	t.Run("updates text fields", func(t *testing.T) {
		env := newTestEnv()
		userID := registerTestUser(t, env)
		user := sanitizedUser(t, env, userID)

		h := NewUserHandler(env.userService, env.authService, passthroughAuth(user), 5<<20)

		body, contentType := multipartForm(map[string]string{
			"bio":      "I build things",
			"headline": "Software Engineer",
		}, false)
		req := httptest.NewRequest(http.MethodPatch, "/api/users/me", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router := chi.NewRouter()
		router.Mount("/api/users", h.Routes())
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		updated, err := env.users.FindByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "I build things", updated.Bio)
		assert.Equal(t, "Software Engineer", updated.Headline)
	})

	t.Run("replaces avatar", func(t *testing.T) {
		env := newTestEnv()
		userID := registerTestUser(t, env)
		user := sanitizedUser(t, env, userID)
		oldURL := user.AvatarURL

		h := NewUserHandler(env.userService, env.authService, passthroughAuth(user), 5<<20)

		body, contentType := multipartForm(nil, true)
		req := httptest.NewRequest(http.MethodPatch, "/api/users/me", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router := chi.NewRouter()
		router.Mount("/api/users", h.Routes())
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		updated, err := env.users.FindByID(context.Background(), userID)
		require.NoError(t, err)
		assert.NotEqual(t, oldURL, updated.AvatarURL)
		assert.NotEmpty(t, updated.AvatarURL)
	})
}

func TestUserHandler_ChangePassword(t *testing.T) {
	env := newTestEnv()
	userID := registerTestUser(t, env)
	user := sanitizedUser(t, env, userID)

	h := NewUserHandler(env.userService, env.authService, passthroughAuth(user), 5<<20)
	router := chi.NewRouter()
	router.Mount("/api/users", h.Routes())

	// Payloads are raw JSON so the tests pin the exact wire field names
	// clients are documented to send.
	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/users/change-password", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("changes password", func(t *testing.T) {
		rec := send(`{"currentPassword":"password123","newPassword":"newpassword456","newConfirmPassword":"newpassword456"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, err := env.authService.Login(context.Background(), "testuser", "newpassword456")
		assert.NoError(t, err)
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		rec := send(`{"currentPassword":"newpassword456","newPassword":"another789","newConfirmPassword":"different789"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		rec := send(`{"currentPassword":"wrong","newPassword":"another789","newConfirmPassword":"another789"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandler_GetByID(t *testing.T) {
	env := newTestEnv()
	userID := registerTestUser(t, env)

	h := NewUserHandler(env.userService, env.authService, noopMiddleware, 5<<20)
	router := chi.NewRouter()
	router.Mount("/api/users", h.Routes())

	t.Run("returns sanitized user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 404 for unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/11111111-2222-3333-4444-555555555555", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
