package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/saveole/timecal/internal/auth/oauth"
	"github.com/saveole/timecal/internal/httpx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server renders the browser pages and owns the session cookie.
type Server struct {
	codec         *oauth.Codec
	secureCookies bool
	templates     *template.Template
	logger        *log.Logger
}

// NewServer parses the embedded templates and returns a page server
// verifying sessions with codec.
func NewServer(codec *oauth.Codec, secureCookies bool, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		codec:         codec,
		secureCookies: secureCookies,
		templates:     templates,
		logger:        logger,
	}, nil
}

// RegisterRoutes mounts the page routes on mux. Callers wrap the mux
// in Guard.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallbackLanding)
	mux.HandleFunc("GET /dashboard", s.pageHandler("dashboard", "Dashboard", "/api/auth/me"))
	mux.HandleFunc("GET /sleep", s.pageHandler("sleep", "Sleep", "/api/sleep"))
	mux.HandleFunc("GET /activities", s.pageHandler("activities", "Activities", "/api/activities"))
	mux.HandleFunc("GET /goals", s.pageHandler("goals", "Goals", "/api/goals"))
	mux.HandleFunc("GET /statistics", s.pageHandler("statistics", "Statistics", "/api/sleep"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.sessionClaims(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusFound)
}

// loginErrorMessages maps callback error codes to user-facing text.
var loginErrorMessages = map[string]string{
	"access_denied":   "GitHub sign-in was cancelled.",
	"invalid_state":   "The sign-in request could not be verified. Please try again.",
	"missing_code":    "GitHub did not return an authorization code.",
	"session_expired": "The sign-in session expired. Please try again.",
	"exchange_failed": "GitHub could not complete the sign-in.",
	"profile_failed":  "Your GitHub profile could not be loaded.",
	"token_failed":    "A session could not be created. Please try again.",
	"invalid_token":   "The sign-in response could not be verified.",
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	message := ""
	if code := r.URL.Query().Get("error"); code != "" {
		message = loginErrorMessages[code]
		if message == "" {
			message = "Sign-in failed. Please try again."
		}
	}
	s.render(w, http.StatusOK, "login.html", map[string]any{"Error": message})
}

// handleCallbackLanding finishes the browser side of the OAuth flow:
// it turns the token handed over in the query string into the session
// cookie, then moves the user on to the app.
func (s *Server) handleCallbackLanding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if code := q.Get("error"); code != "" {
		message := loginErrorMessages[code]
		if message == "" {
			message = "Sign-in failed. Please try again."
		}
		s.render(w, http.StatusOK, "callback_error.html", map[string]any{"Message": message})
		return
	}

	token := q.Get("token")
	if token == "" {
		// No token and no error: the user navigated here directly.
		// Restore an existing session or send them to sign in.
		if s.sessionClaims(r) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	claims := s.codec.Verify(token)
	if claims == nil {
		s.render(w, http.StatusOK, "callback_error.html", map[string]any{
			"Message": loginErrorMessages["invalid_token"],
		})
		return
	}

	s.setSession(w, token, claims)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) pageHandler(section, title, apiPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := ""
		if claims := s.sessionClaims(r); claims != nil {
			username = claims.GitHubUsername
		}
		s.render(w, http.StatusOK, "page.html", map[string]any{
			"Section":  section,
			"Title":    title,
			"APIPath":  apiPath,
			"Username": username,
		})
	}
}

// render executes a template into a buffer first so a failed template
// never leaks a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Printf("render %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := httpx.WriteHTML(w, status, buf.String()); err != nil {
		s.logger.Printf("write %s: %v", name, err)
	}
}
