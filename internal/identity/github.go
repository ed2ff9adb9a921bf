// Package identity fetches the caller's profile from GitHub.
//
// The client is read-only: one GET /user per call, authenticated with the
// user's own OAuth access token. Every failure is an *Error carrying a Kind,
// so callers can decide whether to recover (the profile sync always does).
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 10 * time.Second
)

// Kind classifies an identity failure.
type Kind string

const (
	CredentialMissing   Kind = "CredentialMissing"
	ProviderUnreachable Kind = "ProviderUnreachable"
	MalformedResponse   Kind = "MalformedResponse"
)

// Error is the typed failure returned by FetchProfile.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "identity: " + string(e.Kind)
	}
	return fmt.Sprintf("identity: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of an identity failure, or "" if err is not one.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// Snapshot is the normalized projection of GitHub's /user response.
// Nullable fields are nil when GitHub sends null or an empty string.
type Snapshot struct {
	ID              int64   `json:"id"`
	Login           string  `json:"login"`
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Bio             *string `json:"bio"`
	Location        *string `json:"location"`
	Blog            *string `json:"blog"`
	TwitterUsername *string `json:"twitter_username"`
	PublicRepos     int     `json:"public_repos"`
	Followers       int     `json:"followers"`
	Following       int     `json:"following"`
	HTMLURL         *string `json:"html_url"`
	AvatarURL       string  `json:"avatar_url"`
}

// Config configures a GitHubClient.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// GitHubClient calls the GitHub REST API on behalf of a user.
type GitHubClient struct {
	baseURL string
	timeout time.Duration
}

// NewGitHubClient returns a client for cfg, filling in defaults.
func NewGitHubClient(cfg Config) *GitHubClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &GitHubClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
	}
}

// FetchProfile returns the snapshot of the user the access token belongs to.
//
// The request is bounded by the client timeout only. A provider that does not
// answer in time is a ProviderUnreachable failure like any other.
func (c *GitHubClient) FetchProfile(ctx context.Context, accessToken string) (*Snapshot, error) {
	if accessToken == "" {
		return nil, &Error{Kind: CredentialMissing, Err: errors.New("no access token")}
	}

	// The oauth2 transport adds "Authorization: Bearer <token>" to every request.
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	resp, err := resty.NewWithClient(httpClient).
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		Get("/user")
	if err != nil {
		return nil, &Error{Kind: ProviderUnreachable, Err: err}
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized:
		// Revoked or expired token: the stored credential is no longer usable.
		return nil, &Error{Kind: CredentialMissing, Err: fmt.Errorf("token rejected with status %d", status)}
	case !resp.IsSuccess():
		return nil, &Error{Kind: ProviderUnreachable, Err: fmt.Errorf("GET /user returned status %d", status)}
	}

	return parseSnapshot(resp.Body())
}

// parseSnapshot checks the profile shape on the raw document and only then
// projects it into a Snapshot.
func parseSnapshot(body []byte) (*Snapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: MalformedResponse, Err: fmt.Errorf("decoding body: %w", err)}
	}

	for _, field := range []string{"login", "avatar_url"} {
		if _, ok := raw[field].(string); !ok {
			return nil, &Error{Kind: MalformedResponse, Err: fmt.Errorf("missing string field %q", field)}
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, &Error{Kind: MalformedResponse, Err: fmt.Errorf("projecting body: %w", err)}
	}

	for _, p := range []**string{&snap.Name, &snap.Email, &snap.Bio, &snap.Location, &snap.Blog, &snap.TwitterUsername, &snap.HTMLURL} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}

	return &snap, nil
}
