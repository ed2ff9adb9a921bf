package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/service"
)

const stateCookieName = "oauth_state"

// GitHubOAuth is the authorization-code half of the login flow.
// *auth.GitHubProvider satisfies it.
type GitHubOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// Authenticator turns a provider access token into a local user and session.
type Authenticator interface {
	LoginOrRegisterGitHub(ctx context.Context, accessToken string) (*service.AuthResult, error)
}

// AuthHandler manages the GitHub OAuth login flow and the session cookie.
//
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code, register/login the user, set the JWT cookie
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → echo the session identity
type AuthHandler struct {
	github       GitHubOAuth
	auth         Authenticator
	sessionTTL   time.Duration
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. sessionTTL must match the lifetime
// of the tokens the Authenticator issues so the cookie and JWT expire together.
func NewAuthHandler(
	github GitHubOAuth,
	authenticator Authenticator,
	sessionTTL time.Duration,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:       github,
		auth:         authenticator,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state goes into a short-lived HttpOnly cookie and into the
// authorization URL; the callback only proceeds when the two match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for an access token
//  3. Register or refresh the user and store the sealed token
//  4. Set the session JWT in an HttpOnly cookie
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single-use
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	token, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /auth/logout
//
// Sessions are stateless, so the token itself stays valid until it expires;
// the browser just stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// sessionResponse is the body of GET /api/me.
type sessionResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

// HandleMe returns the identity carried by the session token. It reads
// nothing from storage; the frontend calls it on load to learn who is signed in.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{UserID: id.UserID, Name: id.Name})
}
