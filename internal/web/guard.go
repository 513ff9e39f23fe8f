package web

import (
	"net/http"
	"net/url"
	"strings"
)

// protectedPrefixes lists the page routes that need a session.
var protectedPrefixes = []string{
	"/dashboard",
	"/sleep",
	"/activities",
	"/goals",
	"/statistics",
}

// Guard enforces session rules on page routes: protected pages
// redirect anonymous visitors to the login page with a redirectTo
// parameter, and the login page bounces signed-in visitors to the
// dashboard. The token codec is the only session authority here; the
// guard never re-derives session state from anything else.
func (s *Server) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, s.secureCookies)

		path := r.URL.Path

		// The OAuth endpoints and the token landing page manage their
		// own session state.
		if path == "/auth/callback" || strings.HasPrefix(path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		claims := s.sessionClaims(r)

		if path == "/auth/login" {
			if claims != nil {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if isProtected(path) && claims == nil {
			target := "/auth/login?redirectTo=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func setSecurityHeaders(w http.ResponseWriter, production bool) {
	h := w.Header()
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if production {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}
