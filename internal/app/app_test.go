package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/saveole/timecal/internal/auth/oauth"
)

// fakeGitHub stands in for the token and user endpoints.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":12345,"login":"octocat","name":"The Octocat","email":"octocat@example.com","avatar_url":"https://example.com/a.png"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func composeApp(t *testing.T) *App {
	t.Helper()
	github := fakeGitHub(t)

	cfg := Config{
		OAuth: oauth.Config{
			GitHubClientID:     "client-id",
			GitHubClientSecret: "client-secret",
			JWTSecret:          "test-secret",
			BaseURL:            "http://localhost:3000",
			Environment:        "development",
			Scopes:             []string{"read:user", "user:email"},
			TokenTTL:           24 * time.Hour,
			ExchangeTTL:        10 * time.Minute,
			SweepInterval:      time.Minute,
			AuthorizeURL:       github.URL + "/login/oauth/authorize",
			TokenURL:           github.URL + "/login/oauth/access_token",
			UserURL:            github.URL + "/user",
			EmailsURL:          github.URL + "/user/emails",
		},
		HTTPAddr: ":0",
		DBPath:   filepath.Join(t.TempDir(), "timecal.db"),
	}

	composed, err := Compose(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	t.Cleanup(func() { composed.store.Close() })
	return composed
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TestSignInFlow drives the whole flow in process: start, provider
// callback, token landing, then an authenticated API call.
func TestSignInFlow(t *testing.T) {
	a := composeApp(t)
	handler := a.Handler()

	// Step 1: start. Capture flow cookies and the state parameter.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/github", nil))
	startRes := rec.Result()
	if startRes.StatusCode != http.StatusFound {
		t.Fatalf("start status = %d", startRes.StatusCode)
	}
	authorize, err := url.Parse(startRes.Header.Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	state := authorize.Query().Get("state")
	session := cookieByName(startRes, oauth.CookieOAuthSession)
	if state == "" || session == nil {
		t.Fatal("start did not establish state and session")
	}

	// Step 2: provider redirects back with a code.
	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/callback?code=auth-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(session)
	req.AddCookie(&http.Cookie{Name: oauth.CookieOAuthState, Value: state})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	callbackRes := rec.Result()
	if callbackRes.StatusCode != http.StatusFound {
		t.Fatalf("callback status = %d", callbackRes.StatusCode)
	}
	landing, err := url.Parse(callbackRes.Header.Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	token := landing.Query().Get("token")
	if landing.Path != "/auth/callback" || token == "" {
		t.Fatalf("callback redirect = %q", callbackRes.Header.Get("Location"))
	}

	// Step 3: the landing page converts the token to a session cookie.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, landing.String(), nil))
	landingRes := rec.Result()
	sessionCookie := cookieByName(landingRes, oauth.CookieWebSession)
	if sessionCookie == nil {
		t.Fatal("landing did not set the session cookie")
	}
	if got := landingRes.Header.Get("Location"); got != "/dashboard" {
		t.Errorf("landing redirect = %q, want /dashboard", got)
	}

	// Step 4: the session cookie authenticates API requests.
	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d: %s", rec.Code, rec.Body)
	}
	var profileBody struct {
		Profile struct {
			GitHubUsername string `json:"github_username"`
		} `json:"profile"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&profileBody); err != nil {
		t.Fatal(err)
	}
	if profileBody.Profile.GitHubUsername != "octocat" {
		t.Errorf("profile username = %q", profileBody.Profile.GitHubUsername)
	}

	// Step 5: the dashboard renders for the session.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("dashboard status = %d", rec.Code)
	}
}

func TestAnonymousAPIRequestIsRejected(t *testing.T) {
	a := composeApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMeEndpointAfterSignIn(t *testing.T) {
	a := composeApp(t)
	handler := a.Handler()

	token, err := a.auth.Codec().Issue(oauth.Identity{
		GitHubID:       12345,
		GitHubUsername: "octocat",
	}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		User struct {
			GitHubUsername string `json:"githubUsername"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.User.GitHubUsername != "octocat" {
		t.Errorf("githubUsername = %q", body.User.GitHubUsername)
	}
}
