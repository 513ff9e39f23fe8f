package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// GitHubUser is the subset of the GitHub user payload the service needs.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubClient talks to GitHub's OAuth and user endpoints.
type GitHubClient struct {
	config Config
	client *http.Client
}

// NewGitHubClient builds a client with a bounded request timeout.
func NewGitHubClient(config Config) *GitHubClient {
	return &GitHubClient{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// ExchangeCode trades an authorization code and PKCE verifier for an
// access token.
func (g *GitHubClient) ExchangeCode(ctx context.Context, code, verifier string) (string, error) {
	form := url.Values{}
	form.Set("client_id", g.config.GitHubClientID)
	form.Set("client_secret", g.config.GitHubClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", g.config.RedirectURI())
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUpstreamFailed, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUpstreamFailed, "exchange authorization code", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", apperrors.New(apperrors.CodeUpstreamFailed,
			fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperrors.Wrap(apperrors.CodeUpstreamFailed, "decode token response", err)
	}
	if payload.Error != "" {
		return "", apperrors.New(apperrors.CodeUpstreamFailed,
			fmt.Sprintf("token endpoint error: %s: %s", payload.Error, payload.ErrorDescription))
	}
	if payload.AccessToken == "" {
		return "", apperrors.New(apperrors.CodeUpstreamFailed, "token endpoint returned no access token")
	}
	return payload.AccessToken, nil
}

// FetchUser loads the authenticated user's profile. When the profile
// email is empty it falls back to the primary verified email from the
// emails endpoint.
func (g *GitHubClient) FetchUser(ctx context.Context, accessToken string) (GitHubUser, error) {
	var user GitHubUser
	if err := g.getJSON(ctx, g.config.UserURL, accessToken, &user); err != nil {
		return GitHubUser{}, err
	}
	if user.ID == 0 {
		return GitHubUser{}, apperrors.New(apperrors.CodeUpstreamFailed, "user endpoint returned no id")
	}

	if user.Email == "" {
		var emails []githubEmail
		if err := g.getJSON(ctx, g.config.EmailsURL, accessToken, &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}
	return user, nil
}

func (g *GitHubClient) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUpstreamFailed, "build user request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUpstreamFailed, "fetch github user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.CodeUpstreamFailed,
			fmt.Sprintf("github returned %d for %s", resp.StatusCode, endpoint))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.CodeUpstreamFailed, "decode github response", err)
	}
	return nil
}
