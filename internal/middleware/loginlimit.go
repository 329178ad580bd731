package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/audit"
	"github.com/craftfolio/portfolio-server-go/internal/config"
	apperrors "github.com/craftfolio/portfolio-server-go/internal/errors"
	redisclient "github.com/craftfolio/portfolio-server-go/internal/redis"
)

const loginWindow = 60 * time.Second

var loginLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    return 0
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, window + 10)

return 1
`)

// LoginRateLimiter throttles credential endpoints per client IP using a
// redis sliding window. Redis failures fail open so an outage does not
// lock everyone out of login.
type LoginRateLimiter struct {
	client *redis.Client
}

func NewLoginRateLimiter(client *redisclient.Client) *LoginRateLimiter {
	return &LoginRateLimiter{client: client.Client}
}

func (l *LoginRateLimiter) isAllowed(ctx context.Context, ip string) bool {
	now := time.Now()
	key := redisclient.LoginAttemptKey(ip)

	// The member must be unique per attempt; lua math.random is seeded
	// identically on every script run, so uniqueness comes from here.
	result, err := loginLimitScript.Run(ctx, l.client, []string{key},
		now.Unix(), int64(loginWindow.Seconds()), config.LoginRateLimitPerMin,
		strconv.FormatInt(now.UnixNano(), 10)).Int64()
	if err != nil {
		log.Warn().Err(err).Msg("login rate limit check failed, allowing request")
		return true
	}

	return result == 1
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !l.isAllowed(r.Context(), ip) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"limit_per_min": config.LoginRateLimitPerMin},
			})
			w.Header().Set("Retry-After", "60")
			writeError(w, apperrors.RateLimitExceeded().
				WithDetails("Too many attempts. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First hop is the original client.
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
