package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the bearer token.
const SessionCookieName = "token"

// CookieManager binds the session token to an HTTP-only cookie. In
// production the cookie is Secure with SameSite=None so the browser
// sends it on cross-site requests from the hosted frontend; in dev it is
// SameSite=Lax over plain HTTP. Detach mirrors the attach attributes
// exactly, because browsers only honor a deletion whose attributes match
// the original Set-Cookie.
type CookieManager struct {
	isProduction bool
	maxAge       time.Duration
}

func NewCookieManager(isProduction bool, maxAge time.Duration) *CookieManager {
	return &CookieManager{
		isProduction: isProduction,
		maxAge:       maxAge,
	}
}

// Attach sets the session cookie on the response.
func (m *CookieManager) Attach(w http.ResponseWriter, token string) {
	cookie := m.newCookie(token)
	cookie.MaxAge = int(m.maxAge.Seconds())
	http.SetCookie(w, cookie)
}

// Detach clears the session cookie with attribute parity to Attach.
func (m *CookieManager) Detach(w http.ResponseWriter) {
	cookie := m.newCookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (m *CookieManager) newCookie(value string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if m.isProduction {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: sameSite,
	}
}

// GetTokenFromCookie extracts the session token from the request cookie.
func GetTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
