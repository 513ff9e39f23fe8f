// Package web serves the browser-facing pages and guards the
// protected routes.
package web

import (
	"net/http"
	"time"

	"github.com/saveole/timecal/internal/auth/oauth"
)

// setSession pins a verified token to the browser session cookie. The
// cookie lifetime matches the token's remaining validity so both
// expire together.
func (s *Server) setSession(w http.ResponseWriter, token string, claims *oauth.Claims) {
	maxAge := 0
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			maxAge = int(remaining.Seconds())
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauth.CookieWebSession,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauth.CookieWebSession,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionClaims verifies the session cookie and returns its claims, or
// nil when the browser has no valid session.
func (s *Server) sessionClaims(r *http.Request) *oauth.Claims {
	cookie, err := r.Cookie(oauth.CookieWebSession)
	if err != nil {
		return nil
	}
	return s.codec.Verify(cookie.Value)
}
