package oauth

import (
	"net/http"
	"time"
)

// Cookie names used across the authorization flow.
const (
	CookieOAuthSession = "oauth_session"
	CookieOAuthState   = "oauth_state"
	CookieAuthToken    = "auth_token"
	CookieWebSession   = "session_token"
)

// flowCookieTTL bounds how long a browser can sit on the GitHub consent
// screen before the callback cookies expire.
const flowCookieTTL = 10 * time.Minute

func (s *Server) setFlowCookies(w http.ResponseWriter, sessionID, state string) {
	secure := s.config.IsProduction()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieOAuthSession,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(flowCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieOAuthState,
		Value:    state,
		Path:     "/",
		MaxAge:   int(flowCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearFlowCookies(w http.ResponseWriter) {
	clearCookie(w, CookieOAuthSession, s.config.IsProduction())
	clearCookie(w, CookieOAuthState, s.config.IsProduction())
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	clearCookie(w, CookieAuthToken, s.config.IsProduction())
	clearCookie(w, CookieWebSession, s.config.IsProduction())
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
