package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/audit"
	"github.com/craftfolio/portfolio-server-go/internal/auth"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
)

type contextKey string

const UserContextKey contextKey = "user"

// AccessTokenCookie is the http-only cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie is set at login and cleared at logout; no route
// consumes it server-side.
const RefreshTokenCookie = "refreshToken"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware guards protected routes. It verifies the access token and
// attaches the sanitized user record to the request context. Expired tokens
// are a hard 401; re-authentication is the client's problem.
type AuthMiddleware struct {
	users  repository.UserRepository
	issuer *auth.Issuer
}

func NewAuthMiddleware(users repository.UserRepository, issuer *auth.Issuer) *AuthMiddleware {
	return &AuthMiddleware{users: users, issuer: issuer}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		claims, err := m.issuer.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, apperrors.TokenExpired())
				return
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"reason": "invalid_token"},
			})
			writeError(w, apperrors.InvalidToken("Invalid access token"))
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeError(w, apperrors.Database(err))
			return
		}
		if user == nil {
			// Deleted between issuance and use.
			writeError(w, apperrors.Unauthorized("Invalid access token"))
			return
		}

		sanitized := user.Sanitized()
		ctx := context.WithValue(r.Context(), UserContextKey, &sanitized)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken prefers the http-only cookie over the Authorization header.
// Browser clients get the cookie; API clients send a bearer token.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
