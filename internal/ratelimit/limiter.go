package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatline/chatline/internal/httputil"
)

const (
	window        = 15 * time.Minute
	emailCooldown = 2 * time.Minute
)

// Limiter is a Redis-backed fixed-window rate limiter. The auth core
// treats it as an opaque collaborator: it may reject a request with 429
// before any handler runs, and nothing downstream depends on how it
// counts.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func requestKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

func cooldownKey(email string) string {
	return fmt.Sprintf("ratelimit:email_cooldown:%s", email)
}

// Allow records one request for the key and reports whether it is still
// within the per-window budget.
func (l *Limiter) Allow(ctx context.Context, purpose, ip string, max int) (bool, error) {
	key := requestKey(purpose, ip)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return incr.Val() <= int64(max), nil
}

// CheckEmailCooldown reports whether the email requested a reset recently.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, cooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown window for the email.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, cooldownKey(email), "1", emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}

// Middleware returns a chi-compatible middleware limiting each client IP
// to max requests per window for the given purpose. Limiter errors fail
// open so a Redis outage does not lock out legitimate users.
func (l *Limiter) Middleware(purpose string, max int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context(), purpose, clientIP(r), max)
			if err == nil && !allowed {
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP middleware having already rewritten
// RemoteAddr from the forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
