package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient(t *testing.T) {
	accessToken := issueToken(t, time.Hour)

	var lastAuthHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var payload loginPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			if payload.Password != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Invalid user credentials",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": map[string]string{
					"accessToken":  accessToken,
					"refreshToken": "refresh-opaque",
				},
			})
		case "/api/users/me":
			lastAuthHeader = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"username": "testuser"},
			})
		case "/api/auth/logout":
			lastAuthHeader = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	t.Run("login installs session and requests carry bearer", func(t *testing.T) {
		sessions := NewSessionManager(newStore(t), nil)
		defer sessions.Close()
		api := NewAPIClient(server.URL, sessions)

		require.NoError(t, api.Login(context.Background(), "testuser", "password123"))

		me, err := api.Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "testuser", me["username"])
		assert.Equal(t, "Bearer "+accessToken, lastAuthHeader)
	})

	t.Run("login surfaces server message on failure", func(t *testing.T) {
		sessions := NewSessionManager(newStore(t), nil)
		defer sessions.Close()
		api := NewAPIClient(server.URL, sessions)

		err := api.Login(context.Background(), "testuser", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid user credentials")

		_, err = sessions.AccessToken()
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("logout clears the session", func(t *testing.T) {
		sessions := NewSessionManager(newStore(t), nil)
		defer sessions.Close()
		api := NewAPIClient(server.URL, sessions)

		require.NoError(t, api.Login(context.Background(), "testuser", "password123"))
		require.NoError(t, api.Logout(context.Background()))

		_, err := sessions.AccessToken()
		assert.ErrorIs(t, err, ErrNoSession)

		_, err = api.Me(context.Background())
		assert.ErrorIs(t, err, ErrNoSession)
	})
}
