package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/chatline/chatline/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// ClaimsContextKey holds the decoded SessionClaims for the request
	ClaimsContextKey ContextKey = "session_claims"
)

// Middleware guards protected routes. It trusts the token signature and
// does not re-check the user row, so claims issued before a profile
// update stay valid until the token expires. Accepted staleness window.
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the bearer token from the session cookie, falling
// back to the Authorization header. An absent credential is a 403; a
// present but invalid or expired one is a 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Priority 1: session cookie
		if cookieToken, err := GetTokenFromCookie(r); err == nil {
			token = cookieToken
		}

		// Priority 2: Authorization header (fallback)
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				} else {
					httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
					return
				}
			}
		}

		if token == "" {
			httputil.RespondErrorWithCode(w, "access denied, no token provided", httputil.CodeMissingAuth, http.StatusForbidden)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext extracts the session claims from the request context
func GetClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*SessionClaims)
	return claims, ok
}
