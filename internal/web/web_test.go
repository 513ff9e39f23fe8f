package web

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/saveole/timecal/internal/auth/oauth"
)

func testWebServer(t *testing.T) (*Server, *oauth.Codec) {
	t.Helper()
	codec := oauth.NewCodec("test-secret")
	server, err := NewServer(codec, false, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server, codec
}

func guardedMux(t *testing.T, s *Server) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.Guard(mux)
}

func issueToken(t *testing.T, codec *oauth.Codec) string {
	t.Helper()
	token, err := codec.Issue(oauth.Identity{
		UserID:         "user-1",
		GitHubID:       12345,
		GitHubUsername: "octocat",
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestGuardRedirectsAnonymousFromProtectedPages(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	for _, path := range []string{"/dashboard", "/sleep", "/activities", "/goals", "/statistics", "/sleep/history"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			location, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatal(err)
			}
			if location.Path != "/auth/login" {
				t.Errorf("Location = %q, want /auth/login", location.Path)
			}
			if got := location.Query().Get("redirectTo"); got != path {
				t.Errorf("redirectTo = %q, want %q", got, path)
			}
		})
	}
}

func TestGuardAllowsSessionOnProtectedPage(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)
	token := issueToken(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: oauth.CookieWebSession, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "octocat") {
		t.Error("page body does not show the signed-in username")
	}
}

func TestGuardRejectsTamperedSession(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)
	token := issueToken(t, codec)
	tampered := token[:len(token)-2] + "xx"

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: oauth.CookieWebSession, Value: tampered})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want redirect to login", rec.Code)
	}
}

func TestGuardBouncesSignedInFromLogin(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)
	token := issueToken(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: oauth.CookieWebSession, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}
}

func TestGuardSetsSecurityHeaders(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS header set outside production")
	}
}

func TestCallbackLandingSetsSessionAndRedirects(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)
	token := issueToken(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token="+url.QueryEscape(token), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", res.StatusCode)
	}
	if got := res.Header.Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}

	var session *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == oauth.CookieWebSession {
			session = c
		}
	}
	if session == nil || session.Value != token {
		t.Fatal("session_token cookie not set to the issued token")
	}
	if !session.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
	if session.MaxAge <= 0 || session.MaxAge > int(time.Hour.Seconds()) {
		t.Errorf("session MaxAge = %d, want within token validity", session.MaxAge)
	}
}

func TestCallbackLandingWithoutParamsRestoresSession(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	req.AddCookie(&http.Cookie{Name: oauth.CookieWebSession, Value: issueToken(t, codec)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}
}

func TestCallbackLandingWithoutParamsAnonymous(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/auth/login" {
		t.Errorf("Location = %q, want /auth/login", got)
	}
}

func TestCallbackLandingRejectsInvalidToken(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?token=garbage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 error page", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Sign-in failed") {
		t.Error("error page body missing failure heading")
	}
	if !strings.Contains(body, `http-equiv="refresh"`) {
		t.Error("error page missing auto-redirect to login")
	}
}

func TestCallbackLandingShowsProviderError(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

	if !strings.Contains(rec.Body.String(), "cancelled") {
		t.Error("error page does not explain the cancellation")
	}
}

func TestLoginPageShowsErrorMessage(t *testing.T) {
	server, _ := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login?error=session_expired", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "expired") {
		t.Error("login page does not surface the error message")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestIndexRedirects(t *testing.T) {
	server, codec := testWebServer(t)
	handler := guardedMux(t, server)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("Location"); got != "/auth/login" {
		t.Errorf("anonymous index Location = %q, want /auth/login", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: oauth.CookieWebSession, Value: issueToken(t, codec)})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("signed-in index Location = %q, want /dashboard", got)
	}
}
