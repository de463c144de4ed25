package api

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// CookieWriter sets and clears the refresh-token cookie. Secure and SameSite
// flip together: relaxed in development, strict in production.
type CookieWriter struct {
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewCookieWriter builds a writer for domain.
func NewCookieWriter(domain string, development bool) CookieWriter {
	w := CookieWriter{
		domain:   domain,
		secure:   true,
		sameSite: http.SameSiteStrictMode,
	}
	if development {
		w.secure = false
		w.sameSite = http.SameSiteLaxMode
	}
	return w
}

// Set writes token with the given expiry.
func (w CookieWriter) Set(rw http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(rw, w.cookie(token, expires, 0))
}

// Clear expires the cookie on the client.
func (w CookieWriter) Clear(rw http.ResponseWriter) {
	http.SetCookie(rw, w.cookie("", time.Unix(0, 0), -1))
}

func (w CookieWriter) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   w.domain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: w.sameSite,
	}
}
