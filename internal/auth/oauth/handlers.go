package oauth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/saveole/timecal/internal/httpx"
	apperrors "github.com/saveole/timecal/internal/platform/errors"
	"github.com/saveole/timecal/internal/preferences"
	"github.com/saveole/timecal/internal/profile"
)

// handleStart begins the authorization flow: it parks a PKCE verifier
// in the exchange store, pins the session and state to cookies, and
// sends the browser to GitHub's consent screen.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.config.GitHubClientID == "" {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "GitHub OAuth is not configured")
		return
	}

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "Failed to start authentication")
		return
	}
	state, err := GenerateState()
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "Failed to start authentication")
		return
	}

	challenge := ComputeS256Challenge(verifier)
	if !ValidatePKCE(verifier, challenge, "S256") {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "Failed to start authentication")
		return
	}

	sessionID, err := s.exchanges.Create(verifier)
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "Failed to start authentication")
		return
	}
	s.setFlowCookies(w, sessionID, state)

	query := url.Values{}
	query.Set("client_id", s.config.GitHubClientID)
	query.Set("redirect_uri", s.config.RedirectURI())
	query.Set("scope", strings.Join(s.config.Scopes, " "))
	query.Set("state", state)
	query.Set("code_challenge", challenge)
	query.Set("code_challenge_method", "S256")

	http.Redirect(w, r, s.config.AuthorizeURL+"?"+query.Encode(), http.StatusFound)
}

// handleCallback completes the flow. Every failure redirects back to
// the landing page with an error code rather than rendering a raw
// error body, so the browser always ends up somewhere navigable.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("error"); code != "" {
		s.failCallback(w, r, code)
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(CookieOAuthState)
	if err != nil || state == "" || state != stateCookie.Value {
		s.failCallback(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.failCallback(w, r, "missing_code")
		return
	}

	sessionCookie, err := r.Cookie(CookieOAuthSession)
	if err != nil {
		s.failCallback(w, r, "session_expired")
		return
	}
	verifier := s.exchanges.Consume(sessionCookie.Value)
	if verifier == "" {
		s.failCallback(w, r, "session_expired")
		return
	}

	accessToken, err := s.provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		s.logger.Printf("oauth callback: exchange code: %v", err)
		s.failCallback(w, r, "exchange_failed")
		return
	}

	user, err := s.provider.FetchUser(r.Context(), accessToken)
	if err != nil {
		s.logger.Printf("oauth callback: fetch user: %v", err)
		s.failCallback(w, r, "profile_failed")
		return
	}

	identity := Identity{
		GitHubID:       user.ID,
		GitHubUsername: user.Login,
		Email:          user.Email,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
	}

	if s.profiles != nil {
		stored, err := s.profiles.UpsertGitHub(r.Context(), profile.GitHubData{
			GitHubID:       user.ID,
			GitHubUsername: user.Login,
			Email:          user.Email,
			FullName:       user.Name,
			AvatarURL:      user.AvatarURL,
		})
		if err != nil {
			s.logger.Printf("oauth callback: upsert profile: %v", err)
			s.failCallback(w, r, "profile_failed")
			return
		}
		identity.UserID = stored.ID

		if s.prefs != nil {
			// Preferences are best effort; a failure here must not
			// block sign-in.
			if _, err := s.prefs.Ensure(r.Context(), stored.ID); err != nil {
				s.logger.Printf("oauth callback: ensure preferences: %v", err)
			}
		}
	}

	token, err := s.codec.Issue(identity, s.config.TokenTTL)
	if err != nil {
		s.logger.Printf("oauth callback: issue token: %v", err)
		s.failCallback(w, r, "token_failed")
		return
	}

	s.clearFlowCookies(w)
	http.Redirect(w, r, "/auth/callback?token="+url.QueryEscape(token), http.StatusFound)
}

func (s *Server) failCallback(w http.ResponseWriter, r *http.Request, code string) {
	s.clearFlowCookies(w)
	http.Redirect(w, r, "/auth/callback?error="+url.QueryEscape(code), http.StatusFound)
}

// meUser is the identity envelope returned by the session endpoint.
type meUser struct {
	ID             string                   `json:"id,omitempty"`
	GitHubID       int64                    `json:"githubId"`
	GitHubUsername string                   `json:"githubUsername"`
	Email          string                   `json:"email,omitempty"`
	Name           string                   `json:"name,omitempty"`
	AvatarURL      string                   `json:"avatarUrl,omitempty"`
	Profile        *profile.Profile         `json:"profile,omitempty"`
	Preferences    *preferences.Preferences `json:"preferences,omitempty"`
}

// handleMe reports the authenticated identity. A Bearer header takes
// precedence over the legacy auth_token cookie.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(CookieAuthToken); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		httpx.WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	claims := s.codec.Verify(token)
	if claims == nil {
		httpx.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	identity := claims.Identity()
	user := meUser{
		ID:             identity.UserID,
		GitHubID:       identity.GitHubID,
		GitHubUsername: identity.GitHubUsername,
		Email:          identity.Email,
		Name:           identity.Name,
		AvatarURL:      identity.AvatarURL,
	}

	// Enrichment is best effort: a storage failure still returns the
	// identity decoded from the token.
	if identity.UserID != "" && s.profiles != nil {
		if stored, err := s.profiles.Get(r.Context(), identity.UserID); err == nil {
			user.Profile = &stored
		} else if apperrors.CodeOf(err) != apperrors.CodeNotFound {
			s.logger.Printf("auth me: load profile: %v", err)
		}
		if s.prefs != nil {
			if prefs, err := s.prefs.Ensure(r.Context(), identity.UserID); err == nil {
				user.Preferences = &prefs
			} else {
				s.logger.Printf("auth me: load preferences: %v", err)
			}
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// handleLogout clears session cookies. POST answers JSON for API
// clients; GET redirects browsers to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Best effort: note who is signing out before the cookies go away.
	if claims := s.codec.Verify(requestToken(r)); claims != nil {
		s.logger.Printf("logout user=%s github=%s", claims.UserID, claims.GitHubUsername)
	}

	switch r.Method {
	case http.MethodPost:
		s.clearSessionCookies(w)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Logged out successfully",
		})
	case http.MethodGet:
		s.clearSessionCookies(w)
		http.Redirect(w, r, "/auth/login", http.StatusFound)
	default:
		w.Header().Set("Allow", "GET, POST")
		httpx.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// RequireIdentity guards API handlers: it verifies the request token
// and attaches the identity to the context, or answers 401.
func (s *Server) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := s.codec.Verify(requestToken(r))
		if claims == nil {
			httpx.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		ctx := WithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// requestToken finds the session token wherever the client carries it:
// Authorization header first, then the web session and legacy cookies.
func requestToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(CookieWebSession); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if cookie, err := r.Cookie(CookieAuthToken); err == nil {
		return cookie.Value
	}
	return ""
}
