package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func githubTestConfig(tokenURL, userURL, emailsURL string) Config {
	config := testConfig()
	config.TokenURL = tokenURL
	config.UserURL = userURL
	config.EmailsURL = emailsURL
	return config
}

func TestExchangeCode(t *testing.T) {
	var gotForm map[string]string
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("Accept = %q", accept)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"code":          r.PostFormValue("code"),
			"code_verifier": r.PostFormValue("code_verifier"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	}))
	defer tokenSrv.Close()

	client := NewGitHubClient(githubTestConfig(tokenSrv.URL, "", ""))
	token, err := client.ExchangeCode(context.Background(), "the-code", "the-verifier")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if token != "gho_test" {
		t.Errorf("token = %q, want gho_test", token)
	}
	if gotForm["client_id"] != "client-id" || gotForm["client_secret"] != "client-secret" {
		t.Errorf("credentials = %v", gotForm)
	}
	if gotForm["code"] != "the-code" || gotForm["code_verifier"] != "the-verifier" {
		t.Errorf("code/verifier = %v", gotForm)
	}
}

func TestExchangeCodeUpstreamError(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code is incorrect or expired."}`))
	}))
	defer tokenSrv.Close()

	client := NewGitHubClient(githubTestConfig(tokenSrv.URL, "", ""))
	if _, err := client.ExchangeCode(context.Background(), "bad", "v"); err == nil {
		t.Fatal("expected error for upstream error payload")
	}
}

func TestFetchUserFallsBackToPrimaryEmail(t *testing.T) {
	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer gho_test" {
			t.Errorf("Authorization = %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat","email":null,"avatar_url":"https://example.com/a.png"}`))
	}))
	defer userSrv.Close()

	emailsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"email":"old@example.com","primary":false,"verified":true},
			{"email":"unverified@example.com","primary":true,"verified":false},
			{"email":"octocat@example.com","primary":true,"verified":true}
		]`))
	}))
	defer emailsSrv.Close()

	client := NewGitHubClient(githubTestConfig("", userSrv.URL, emailsSrv.URL))
	user, err := client.FetchUser(context.Background(), "gho_test")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if user.ID != 42 || user.Login != "octocat" {
		t.Errorf("user = %+v", user)
	}
	if user.Email != "octocat@example.com" {
		t.Errorf("email = %q, want primary verified fallback", user.Email)
	}
}

func TestFetchUserMissingID(t *testing.T) {
	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer userSrv.Close()

	client := NewGitHubClient(githubTestConfig("", userSrv.URL, ""))
	if _, err := client.FetchUser(context.Background(), "gho_test"); err == nil {
		t.Fatal("expected error for payload without id")
	}
}
