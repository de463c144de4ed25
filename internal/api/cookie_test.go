package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieWriterProductionIsStrict(t *testing.T) {
	rr := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	NewCookieWriter("example.com", false).Set(rr, "token", expires)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, RefreshCookieName, cookie.Name)
	assert.Equal(t, "token", cookie.Value)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, expires.Equal(cookie.Expires))
}

func TestCookieWriterClearExpiresCookie(t *testing.T) {
	rr := httptest.NewRecorder()

	NewCookieWriter("example.com", true).Clear(rr)

	header := rr.Header().Get("Set-Cookie")
	assert.Contains(t, header, RefreshCookieName+"=;")
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "SameSite=Lax")
	assert.NotContains(t, header, "Secure")
}
