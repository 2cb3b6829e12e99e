package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCookie(t *testing.T, fn func(w http.ResponseWriter)) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	fn(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestCookieManagerAttachDevelopment(t *testing.T) {
	m := NewCookieManager(false, 7*24*time.Hour)

	cookie := setCookie(t, func(w http.ResponseWriter) { m.Attach(w, "session-token") })

	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "session-token", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)

	// Dev runs over plain HTTP on localhost, so Secure and SameSite=None
	// would make the browser drop the cookie.
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestCookieManagerAttachProduction(t *testing.T) {
	m := NewCookieManager(true, 7*24*time.Hour)

	cookie := setCookie(t, func(w http.ResponseWriter) { m.Attach(w, "session-token") })

	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

// Browsers only honor a deletion whose attributes match the original
// Set-Cookie, so Detach must mirror Attach exactly.
func TestCookieManagerDetachParity(t *testing.T) {
	for _, isProduction := range []bool{false, true} {
		m := NewCookieManager(isProduction, 7*24*time.Hour)

		attached := setCookie(t, func(w http.ResponseWriter) { m.Attach(w, "session-token") })
		detached := setCookie(t, func(w http.ResponseWriter) { m.Detach(w) })

		assert.Equal(t, attached.Name, detached.Name)
		assert.Equal(t, attached.Path, detached.Path)
		assert.Equal(t, attached.HttpOnly, detached.HttpOnly)
		assert.Equal(t, attached.Secure, detached.Secure)
		assert.Equal(t, attached.SameSite, detached.SameSite)

		assert.Empty(t, detached.Value)
		assert.Negative(t, detached.MaxAge)
	}
}

func TestGetTokenFromCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/check", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-token"})

	token, err := GetTokenFromCookie(r)
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)

	bare := httptest.NewRequest(http.MethodGet, "/check", nil)
	_, err = GetTokenFromCookie(bare)
	assert.ErrorIs(t, err, http.ErrNoCookie)
}
