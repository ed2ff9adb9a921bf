package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Redirect the user to GitHub's authorization endpoint with our ClientID
//  2. The user approves on GitHub
//  3. GitHub redirects back to CallbackURL with a short-lived "code"
//  4. We exchange the code for an access token (server-to-server, with ClientSecret)
//
// Fetching the user's profile with that token is the identity client's job,
// see internal/identity.
type GitHubProvider struct {
	config *oauth2.Config
}

// ProviderOption customises a GitHubProvider.
type ProviderOption func(*oauth2.Config)

// WithEndpoint overrides GitHub's OAuth endpoints. Tests point it at an
// httptest server; GitHub Enterprise deployments point it at their host.
func WithEndpoint(ep oauth2.Endpoint) ProviderOption {
	return func(c *oauth2.Config) { c.Endpoint = ep }
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// Scopes we request:
//   - "read:user"  public profile (login, name, bio, blog, twitter)
//   - "user:email" email addresses
func NewGitHubProvider(clientID, clientSecret, callbackURL string, opts ...ProviderOption) *GitHubProvider {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &GitHubProvider{config: cfg}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random value the handler also stores in a cookie; the
// callback rejects a mismatch (CSRF protection).
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an OAuth access token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("auth: missing OAuth code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("auth: GitHub returned an empty access token")
	}

	return token, nil
}
