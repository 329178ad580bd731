package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/craftfolio/portfolio-server-go/internal/model"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// AccessClaims assert the authenticated identity for individual requests.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RefreshClaims carry the minimum needed to re-establish a session.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Issuer mints and verifies the two token kinds. Access and refresh tokens
// use independent secrets and independent lifetimes, both injected at
// construction; there are no ambient defaults.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccessToken signs a short-lived token embedding id, email and
// username. Expiry is issued-at plus the configured access TTL.
func (i *Issuer) IssueAccessToken(user *model.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	return token.SignedString(i.accessSecret)
}

// IssueRefreshToken signs a longer-lived token embedding the user id only.
func (i *Issuer) IssueRefreshToken(user *model.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
		UserID: user.ID,
	})
	return token.SignedString(i.refreshSecret)
}

// VerifyAccess checks signature and expiry of an access token and returns
// its claims.
func (i *Issuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.verify(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry of a refresh token and returns
// its claims.
func (i *Issuer) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.verify(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenInvalid
		default:
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// DecodeExpiry extracts the embedded expiry without verifying the
// signature. Clients use it to schedule session teardown; it carries no
// authority, the server re-verifies on every request.
func DecodeExpiry(tokenString string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenMalformed
	}
	return claims.ExpiresAt.Time, nil
}
